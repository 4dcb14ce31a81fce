package kll

// itemStore is the capability set every items-store backend exposes
// (spec §4.3). Callers that need to mutate a store must check
// IsReadOnly first; a read-only store's Set is never called by this
// package's own code (enforced at the Sketch-method entry points, not
// by the store itself) but would silently corrupt a shared image if
// it were, so callers outside this package should treat the
// capability, not a runtime panic, as the contract.
type itemStore[T Float] interface {
	// Capacity is the number of T-sized element slots the store has
	// room for.
	Capacity() uint32
	// Get reads the item at index i.
	Get(i uint32) T
	// Set writes the item at index i. Undefined on a read-only store.
	Set(i uint32, v T)
	// IsReadOnly reports whether Set may be called.
	IsReadOnly() bool
	// Clone returns an independent copy of the store's current
	// contents, so a caller can stage a mutation that might fail (a
	// growth attempt during compaction, say) against the clone and
	// only fold it back once the whole attempt succeeds.
	Clone() itemStore[T]
}

// heapStore owns a contiguous Go slice of T.
type heapStore[T Float] struct {
	buf []T
}

func newHeapStore[T Float](capacity uint32) *heapStore[T] {
	return &heapStore[T]{buf: make([]T, capacity)}
}

func (h *heapStore[T]) Capacity() uint32  { return uint32(len(h.buf)) }
func (h *heapStore[T]) Get(i uint32) T    { return h.buf[i] }
func (h *heapStore[T]) Set(i uint32, v T) { h.buf[i] = v }
func (h *heapStore[T]) IsReadOnly() bool  { return false }

func (h *heapStore[T]) Clone() itemStore[T] {
	buf := make([]T, len(h.buf))
	copy(buf, h.buf)
	return &heapStore[T]{buf: buf}
}

// memoryStore is a view over an externally owned byte region (spec
// §4.3, §6.2): the items live natively, packed, at `base` + i*sizeof(T)
// within mem. No copy is made; reads decode in place.
type memoryStore[T Float] struct {
	mem      []byte
	base     int
	capacity uint32
	readOnly bool
}

func newMemoryStore[T Float](mem []byte, base int, capacity uint32, readOnly bool) *memoryStore[T] {
	return &memoryStore[T]{mem: mem, base: base, capacity: capacity, readOnly: readOnly}
}

func (m *memoryStore[T]) Capacity() uint32 { return m.capacity }

func (m *memoryStore[T]) Get(i uint32) T {
	sz := sizeOfT[T]()
	off := m.base + int(i)*sz
	return decodeT[T](m.mem[off : off+sz])
}

func (m *memoryStore[T]) Set(i uint32, v T) {
	sz := sizeOfT[T]()
	off := m.base + int(i)*sz
	encodeT(v, m.mem[off:off+sz])
}

func (m *memoryStore[T]) IsReadOnly() bool { return m.readOnly }

func (m *memoryStore[T]) Clone() itemStore[T] {
	mem := make([]byte, len(m.mem))
	copy(mem, m.mem)
	return &memoryStore[T]{mem: mem, base: m.base, capacity: m.capacity, readOnly: m.readOnly}
}
