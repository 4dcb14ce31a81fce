package kll

// Sketch is a KLL quantile sketch over elements of type T (spec §3).
// The zero value is not usable; construct with NewHeap, NewHeapWithSource,
// NewDirect, Heapify, or Wrap.
type Sketch[T Float] struct {
	k               uint16
	m               uint8
	minK            uint16
	numLevels       uint8
	levelZeroSorted bool
	n               uint64
	levels          []uint32
	store           itemStore[T]
	minItem         T
	maxItem         T

	rand           RandSource
	memoryProvider MemoryProvider

	sv *sortedView[T]
}

// NewHeap creates an empty heap-backed Sketch with the given k and m,
// using a default, non-deterministic RandSource.
func NewHeap[T Float](k uint16, m uint8) (*Sketch[T], error) {
	return NewHeapWithSource[T](k, m, defaultRandSource())
}

// NewHeapWithSource creates an empty heap-backed Sketch whose
// compaction parity bit is drawn from rand. Tests use this with a
// seeded or AlternatingSource for reproducibility.
func NewHeapWithSource[T Float](k uint16, m uint8, rand RandSource) (*Sketch[T], error) {
	if err := checkM(m); err != nil {
		return nil, err
	}
	if err := checkK(k, m); err != nil {
		return nil, err
	}
	return &Sketch[T]{
		k:         k,
		m:         m,
		minK:      k,
		numLevels: 1,
		levels:    []uint32{uint32(k), uint32(k)},
		store:     newHeapStore[T](uint32(k)),
		rand:      rand,
	}, nil
}

// IsEmpty reports whether the sketch has never ingested a value.
func (s *Sketch[T]) IsEmpty() bool { return s.n == 0 }

// N returns the number of values ingested so far (NaN-rejected
// updates do not count).
func (s *Sketch[T]) N() uint64 { return s.n }

// K returns the sketch's accuracy parameter.
func (s *Sketch[T]) K() uint16 { return s.k }

// M returns the sketch's minimum level width.
func (s *Sketch[T]) M() uint8 { return s.m }

// MinK returns the smallest k this sketch has ever reflected, via
// construction or a merge with a lower-k sketch.
func (s *Sketch[T]) MinK() uint16 { return s.minK }

// NumRetained returns the number of items currently retained.
func (s *Sketch[T]) NumRetained() uint32 {
	return numRetained(s.levels, int(s.numLevels))
}

// IsEstimationMode reports whether the sketch has compacted at least
// once (numLevels > 1); below that, all queries are exact.
func (s *Sketch[T]) IsEstimationMode() bool { return s.numLevels > 1 }

// IsReadOnly reports whether mutating calls (Update, Merge, Reset)
// will fail with ErrReadOnly.
func (s *Sketch[T]) IsReadOnly() bool { return s.store.IsReadOnly() }

// MinItem returns the exact minimum of the ingested stream.
func (s *Sketch[T]) MinItem() (T, error) {
	if s.IsEmpty() {
		var zero T
		return zero, ErrEmptySketch
	}
	return s.minItem, nil
}

// MaxItem returns the exact maximum of the ingested stream.
func (s *Sketch[T]) MaxItem() (T, error) {
	if s.IsEmpty() {
		var zero T
		return zero, ErrEmptySketch
	}
	return s.maxItem, nil
}

// Reset returns the sketch to its initial empty state with the same k
// and m. It fails with ErrReadOnly on a read-only store. The storage
// variant is preserved: a heap-backed sketch gets a fresh heap buffer,
// a memory-backed sketch keeps viewing the same external region (its
// header bytes are left stale, per the same write-on-serialize policy
// ToCompactSlice/ToUpdatableSlice follow elsewhere).
func (s *Sketch[T]) Reset() error {
	if s.store.IsReadOnly() {
		return ErrReadOnly
	}
	if ms, ok := s.store.(*memoryStore[T]); ok && ms.Capacity() < uint32(s.k) {
		return wrapf(ErrInsufficientSpace, "backing region too small to reset to k=%d", s.k)
	}
	s.n = 0
	s.minK = s.k
	s.numLevels = 1
	s.levelZeroSorted = false
	s.levels = []uint32{uint32(s.k), uint32(s.k)}
	if _, ok := s.store.(*heapStore[T]); ok {
		s.store = newHeapStore[T](uint32(s.k))
	}
	var zero T
	s.minItem, s.maxItem = zero, zero
	s.sv = nil
	return nil
}

func (s *Sketch[T]) invalidateSortedView() { s.sv = nil }
