package kll

import "encoding/binary"

// ToCompactSlice serializes the sketch into the smallest byte image
// that still reconstructs it exactly (spec §6.1): empty and
// single-item sketches get a trimmed 8-byte-plus-one-item form, and a
// full sketch is written with level 0 sorted (the reader accepts an
// unsorted level 0 too, but this package's own writer always sorts
// it) and only its retained items, tightly packed level by level.
// Wrapping the result gives a read-only sketch; Heapify copies it into
// an independent, mutable one.
func (s *Sketch[T]) ToCompactSlice() []byte {
	sz := sizeOfT[T]()
	if s.IsEmpty() {
		buf := make([]byte, dataStartSingleItem)
		putPreambleInts(buf, preambleIntsEmptyOrSingle)
		putSerVer(buf, serVerCompact)
		putFamilyID(buf)
		flags := flagEmpty
		if isDoubleT[T]() {
			flags |= flagDoublesSketch
		}
		putFlags(buf, flags)
		putPreambleK(buf, s.k)
		putPreambleM(buf, s.m)
		return buf
	}
	if s.n == 1 {
		buf := make([]byte, dataStartSingleItem+sz)
		putPreambleInts(buf, preambleIntsEmptyOrSingle)
		putSerVer(buf, serVerSingleItem)
		putFamilyID(buf)
		flags := flagSingleItem
		if isDoubleT[T]() {
			flags |= flagDoublesSketch
		}
		putFlags(buf, flags)
		putPreambleK(buf, s.k)
		putPreambleM(buf, s.m)
		encodeT(s.minItem, buf[dataStartSingleItem:dataStartSingleItem+sz])
		return buf
	}

	level0 := s.sortedLevelValues(0)
	numRetained := s.NumRetained()
	size := dataStartFull + int(s.numLevels+1)*4 + 2*sz + int(numRetained)*sz
	buf := make([]byte, size)
	putPreambleInts(buf, preambleIntsFull)
	putSerVer(buf, serVerCompact)
	putFamilyID(buf)
	flags := flagLevelZeroSorted
	if isDoubleT[T]() {
		flags |= flagDoublesSketch
	}
	putFlags(buf, flags)
	putPreambleK(buf, s.k)
	putPreambleM(buf, s.m)
	putPreambleN(buf, s.n)
	putPreambleMinK(buf, s.minK)
	putPreambleNumLevels(buf, s.numLevels)

	off := dataStartFull
	compactLevels := make([]uint32, s.numLevels+1)
	var running uint32
	compactLevels[0] = 0
	running = uint32(len(level0))
	compactLevels[1] = running
	for lvl := uint8(1); lvl < s.numLevels; lvl++ {
		running += levelSize(s.levels, int(lvl))
		compactLevels[lvl+1] = running
	}
	for _, v := range compactLevels {
		binary.LittleEndian.PutUint32(buf[off:off+4], v)
		off += 4
	}
	encodeT(s.minItem, buf[off:off+sz])
	off += sz
	encodeT(s.maxItem, buf[off:off+sz])
	off += sz
	for _, v := range level0 {
		encodeT(v, buf[off:off+sz])
		off += sz
	}
	for lvl := uint8(1); lvl < s.numLevels; lvl++ {
		beg, end := s.levels[lvl], s.levels[lvl+1]
		for i := beg; i < end; i++ {
			encodeT(s.store.Get(i), buf[off:off+sz])
			off += sz
		}
	}
	return buf
}

// SerializedSizeBytes returns len(s.ToCompactSlice()) without
// allocating the image.
func (s *Sketch[T]) SerializedSizeBytes() int {
	sz := sizeOfT[T]()
	if s.IsEmpty() {
		return dataStartSingleItem
	}
	if s.n == 1 {
		return dataStartSingleItem + sz
	}
	return dataStartFull + int(s.numLevels+1)*4 + 2*sz + int(s.NumRetained())*sz
}

// ToUpdatableSlice serializes the full live layout, including every
// unused slack slot below levels[0], so the bytes can be wrapped back
// as a growable sketch with Wrap rather than just read.
func (s *Sketch[T]) ToUpdatableSlice() []byte {
	sz := sizeOfT[T]()
	capacity := s.levels[s.numLevels]
	size := dataStartFull + int(s.numLevels+1)*4 + 2*sz + int(capacity)*sz
	buf := make([]byte, size)
	putPreambleInts(buf, preambleIntsFull)
	putSerVer(buf, serVerUpdatable)
	putFamilyID(buf)
	flags := flagUpdatable
	if s.levelZeroSorted {
		flags |= flagLevelZeroSorted
	}
	if s.IsEmpty() {
		flags |= flagEmpty
	}
	if isDoubleT[T]() {
		flags |= flagDoublesSketch
	}
	putFlags(buf, flags)
	putPreambleK(buf, s.k)
	putPreambleM(buf, s.m)
	putPreambleN(buf, s.n)
	putPreambleMinK(buf, s.minK)
	putPreambleNumLevels(buf, s.numLevels)

	off := dataStartFull
	for i := uint8(0); i <= s.numLevels; i++ {
		binary.LittleEndian.PutUint32(buf[off:off+4], s.levels[i])
		off += 4
	}
	encodeT(s.minItem, buf[off:off+sz])
	off += sz
	encodeT(s.maxItem, buf[off:off+sz])
	off += sz
	for i := uint32(0); i < capacity; i++ {
		encodeT(s.store.Get(i), buf[off:off+sz])
		off += sz
	}
	return buf
}

func checkDoublesFlag[T Float](data []byte) error {
	if getDoublesFlag(data) != isDoubleT[T]() {
		return wrapf(ErrTypeMismatch, "image element width does not match requested type")
	}
	return nil
}

func checkHeader(data []byte) error {
	if len(data) < dataStartSingleItem {
		return wrapf(ErrCorruptImage, "image shorter than minimum preamble")
	}
	if getFamilyID(data) != familyID {
		return wrapf(ErrCorruptImage, "unrecognized family id %d", getFamilyID(data))
	}
	return nil
}

// parseFullLevels reads the shared tail of the compact and updatable
// full layouts: the levels boundary array followed by minItem/maxItem.
// It returns the byte offset immediately following maxItem.
func parseFullLevels[T Float](data []byte, numLevels uint8) (levels []uint32, minItem, maxItem T, next int, err error) {
	sz := sizeOfT[T]()
	off := dataStartFull
	need := off + int(numLevels+1)*4 + 2*sz
	if len(data) < need {
		err = wrapf(ErrCorruptImage, "image truncated before levels/minmax")
		return
	}
	levels = make([]uint32, numLevels+1)
	for i := uint8(0); i <= numLevels; i++ {
		levels[i] = binary.LittleEndian.Uint32(data[off : off+4])
		off += 4
	}
	minItem = decodeT[T](data[off : off+sz])
	off += sz
	maxItem = decodeT[T](data[off : off+sz])
	off += sz
	next = off
	return
}

// Heapify reconstructs a fully independent, heap-backed Sketch from a
// compact byte image produced by ToCompactSlice. Unlike Wrap, it always
// copies: the returned sketch shares no memory with data and is never
// read-only. An updatable image (from ToUpdatableSlice) is rejected
// with ErrInvalidArgument; Wrap reads those.
func Heapify[T Float](data []byte) (*Sketch[T], error) {
	if err := checkHeader(data); err != nil {
		return nil, err
	}
	layout, err := resolveLayout(data)
	if err != nil {
		return nil, err
	}
	if err := checkDoublesFlag[T](data); err != nil {
		return nil, err
	}
	k, m := getPreambleK(data), getPreambleM(data)

	switch layout {
	case layoutEmpty:
		return NewHeapWithSource[T](k, m, defaultRandSource())
	case layoutSingleItem:
		sz := sizeOfT[T]()
		if len(data) < dataStartSingleItem+sz {
			return nil, wrapf(ErrCorruptImage, "single-item image truncated")
		}
		v := decodeT[T](data[dataStartSingleItem : dataStartSingleItem+sz])
		sk, err := NewHeapWithSource[T](k, m, defaultRandSource())
		if err != nil {
			return nil, err
		}
		if err := sk.Update(v); err != nil {
			return nil, err
		}
		return sk, nil
	case layoutCompact:
		return heapifyCompact[T](data, k, m)
	default: // layoutUpdatable
		return nil, wrapf(ErrInvalidArgument, "use Wrap for an updatable image, not Heapify")
	}
}

func heapifyCompact[T Float](data []byte, k uint16, m uint8) (*Sketch[T], error) {
	numLevels := getPreambleNumLevels(data)
	if numLevels == 0 {
		return nil, wrapf(ErrCorruptImage, "compact image has no levels")
	}
	levels, minItem, maxItem, off, err := parseFullLevels[T](data, numLevels)
	if err != nil {
		return nil, err
	}
	sz := sizeOfT[T]()
	totalItems := levels[numLevels]
	if len(data) < off+int(totalItems)*sz {
		return nil, wrapf(ErrCorruptImage, "compact image truncated before items")
	}
	// The compact image keeps no free slots below level 0; reserve room
	// for level 0 to refill up to its capacity before the next compaction.
	slack := uint32(1)
	if cap0, pop0 := levelCapacity(k, m, numLevels, 0), levelSize(levels, 0); cap0 > pop0 {
		slack = cap0 - pop0
	}
	for i := range levels {
		levels[i] += slack
	}
	store := newHeapStore[T](totalItems + slack)
	for i := uint32(0); i < totalItems; i++ {
		store.Set(slack+i, decodeT[T](data[off:off+sz]))
		off += sz
	}
	return &Sketch[T]{
		k: k, m: m, minK: getPreambleMinK(data), numLevels: numLevels,
		levelZeroSorted: getLevelZeroSortedFlag(data), n: getPreambleN(data), levels: levels,
		store: store, minItem: minItem, maxItem: maxItem, rand: defaultRandSource(),
	}, nil
}

// Wrap views a byte image in place without copying. A compact image
// is always returned read-only regardless of readOnly, since it has
// no slack for future growth. An updatable image honors readOnly, and
// a writable result uses provider (if non-nil) to grow on demand.
func Wrap[T Float](data []byte, readOnly bool, provider MemoryProvider) (*Sketch[T], error) {
	if err := checkHeader(data); err != nil {
		return nil, err
	}
	layout, err := resolveLayout(data)
	if err != nil {
		return nil, err
	}
	if err := checkDoublesFlag[T](data); err != nil {
		return nil, err
	}
	switch layout {
	case layoutEmpty, layoutSingleItem:
		sk, err := Heapify[T](data)
		if err != nil {
			return nil, err
		}
		// Like every compact image these have no room to grow in place,
		// so the reconstructed items are viewed through a read-only store.
		sz := sizeOfT[T]()
		capacity := sk.store.Capacity()
		buf := make([]byte, int(capacity)*sz)
		for i := uint32(0); i < capacity; i++ {
			encodeT(sk.store.Get(i), buf[int(i)*sz:int(i+1)*sz])
		}
		sk.store = newMemoryStore[T](buf, 0, capacity, true)
		return sk, nil
	case layoutCompact:
		return wrapCompact[T](data)
	default:
		return wrapUpdatable[T](data, readOnly, provider)
	}
}

func wrapCompact[T Float](data []byte) (*Sketch[T], error) {
	k, m := getPreambleK(data), getPreambleM(data)
	numLevels := getPreambleNumLevels(data)
	levels, minItem, maxItem, off, err := parseFullLevels[T](data, numLevels)
	if err != nil {
		return nil, err
	}
	sz := sizeOfT[T]()
	totalItems := levels[numLevels]
	if len(data) < off+int(totalItems)*sz {
		return nil, wrapf(ErrCorruptImage, "compact image truncated before items")
	}
	store := newMemoryStore[T](data, off, totalItems, true)
	return &Sketch[T]{
		k: k, m: m, minK: getPreambleMinK(data), numLevels: numLevels,
		levelZeroSorted: getLevelZeroSortedFlag(data), n: getPreambleN(data), levels: levels,
		store: store, minItem: minItem, maxItem: maxItem, rand: defaultRandSource(),
	}, nil
}

func wrapUpdatable[T Float](data []byte, readOnly bool, provider MemoryProvider) (*Sketch[T], error) {
	k, m := getPreambleK(data), getPreambleM(data)
	numLevels := getPreambleNumLevels(data)
	levels, minItem, maxItem, off, err := parseFullLevels[T](data, numLevels)
	if err != nil {
		return nil, err
	}
	sz := sizeOfT[T]()
	capacity := levels[numLevels]
	if len(data) < off+int(capacity)*sz {
		return nil, wrapf(ErrCorruptImage, "updatable image truncated before items")
	}
	store := newMemoryStore[T](data, off, capacity, readOnly)
	return &Sketch[T]{
		k: k, m: m, minK: getPreambleMinK(data), numLevels: numLevels,
		levelZeroSorted: getLevelZeroSortedFlag(data), n: getPreambleN(data), levels: levels,
		store: store, minItem: minItem, maxItem: maxItem, rand: defaultRandSource(),
		memoryProvider: provider,
	}, nil
}

// NewDirect builds a fresh, empty, updatable sketch whose items live
// directly in memory rather than on the Go heap. If memory is too
// small to hold even level 0's initial capacity, provider is asked to
// supply a larger region up front. With a nil provider, a too-small
// memory fails with ErrInsufficientSpace, and so does any later growth:
// the items capacity starts at k and only a provider can enlarge it.
func NewDirect[T Float](k uint16, m uint8, memory []byte, provider MemoryProvider) (*Sketch[T], error) {
	if err := checkM(m); err != nil {
		return nil, err
	}
	if err := checkK(k, m); err != nil {
		return nil, err
	}
	sz := sizeOfT[T]()
	base := dataStartFull + 2*4 + 2*sz
	required := base + int(k)*sz
	if len(memory) < required {
		if provider == nil {
			return nil, wrapf(ErrInsufficientSpace, "need %d bytes, have %d", required, len(memory))
		}
		grown, err := provider.Request(memory, required)
		if err != nil {
			return nil, wrapf(ErrInsufficientSpace, "%v", err)
		}
		memory = grown
	}

	putPreambleInts(memory, preambleIntsFull)
	putSerVer(memory, serVerUpdatable)
	putFamilyID(memory)
	flags := flagUpdatable | flagEmpty
	if isDoubleT[T]() {
		flags |= flagDoublesSketch
	}
	putFlags(memory, flags)
	putPreambleK(memory, k)
	putPreambleM(memory, m)
	putPreambleN(memory, 0)
	putPreambleMinK(memory, k)
	putPreambleNumLevels(memory, 1)
	binary.LittleEndian.PutUint32(memory[dataStartFull:dataStartFull+4], uint32(k))
	binary.LittleEndian.PutUint32(memory[dataStartFull+4:dataStartFull+8], uint32(k))

	store := newMemoryStore[T](memory, base, uint32(k), false)
	return &Sketch[T]{
		k: k, m: m, minK: k, numLevels: 1,
		levels: []uint32{uint32(k), uint32(k)},
		store:  store, rand: defaultRandSource(), memoryProvider: provider,
	}, nil
}
