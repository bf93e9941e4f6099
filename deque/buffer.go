package deque

// buffer is a fixed-capacity circular array of slots. Capacity is a
// nonzero power of two, so indexing reduces to a mask (the retire-ring
// layout). Slot reads and writes are plain: publication happens
// through the deque's atomic indices, never through the slots.
type buffer[T any] struct {
	slots []T
	mask  int64
}

func newBuffer[T any](capacity int64) *buffer[T] {
	return &buffer[T]{slots: make([]T, capacity), mask: capacity - 1}
}

func (b *buffer[T]) cap() int64 {
	return b.mask + 1
}

func (b *buffer[T]) read(i int64) T {
	return b.slots[i&b.mask]
}

func (b *buffer[T]) write(i int64, v T) {
	b.slots[i&b.mask] = v
}

// destroy poisons the buffer. A read through a reclaimed buffer faults
// immediately instead of returning stale memory, so reclamation bugs
// surface as panics in stress tests rather than silent corruption.
func (b *buffer[T]) destroy() {
	b.slots = nil
}
