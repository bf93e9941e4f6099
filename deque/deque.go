package deque

import (
	"sync/atomic"

	"fenrir/epoch"
)

// minCapacity is the smallest buffer a deque allocates or shrinks to.
const minCapacity = 32

/*
inner

State shared by one Deque and all its Stealers:

  - bottom: owner-write, stealer-read
  - top:    multi-writer (owner's slow pop path and stealers, via CAS),
    monotonically non-decreasing
  - buf:    owner-write, stealer-read

The live range is [top, bottom). The owner may transiently drive
bottom below top inside a single pop, but never across an operation
boundary another thread can observe. Hot fields sit on separate cache
lines.
*/
type inner[T any] struct {
	top   atomic.Int64
	_pad0 [56]byte

	bottom atomic.Int64
	_pad1  [56]byte

	buf atomic.Pointer[buffer[T]]
}

func (in *inner[T]) len() int {
	b := in.bottom.Load()
	t := in.top.Load()
	if b-t < 0 {
		return 0
	}
	return int(b - t)
}

// Deque is the owner handle. Exactly one goroutine may call Push and
// Pop; sharing the owner handle is a precondition violation, not a
// checked error.
type Deque[T any] struct {
	inner *inner[T]
	local *epoch.Local
}

// New constructs an empty deque bound to a collector and returns the
// owner handle plus one stealer. Further stealers come from Clone.
func New[T any](g *epoch.Global) (*Deque[T], *Stealer[T]) {
	in := &inner[T]{}
	in.buf.Store(newBuffer[T](minCapacity))
	d := &Deque[T]{inner: in, local: g.Register()}
	s := &Stealer[T]{inner: in, local: g.Register()}
	return d, s
}

// Push adds value at the bottom end. Never blocks. The atomic bottom
// store publishes the slot write: a stealer that observes the new
// bottom also observes the value.
func (d *Deque[T]) Push(value T) {
	b := d.inner.bottom.Load()
	t := d.inner.top.Load()
	buf := d.inner.buf.Load() // owner-exclusive: no pin needed to chase this

	if b-t >= buf.cap() {
		d.resize(buf.cap() * 2)
		buf = d.inner.buf.Load()
	}

	buf.write(b, value)
	d.inner.bottom.Store(b + 1)
}

// Pop removes and returns the most recently pushed value. The second
// return is false when the deque is empty.
func (d *Deque[T]) Pop() (T, bool) {
	var zero T

	// Tentatively claim the bottom slot. The store and the top load
	// below are both sequentially consistent, which is the fence that
	// keeps this claim ordered against a concurrent steal.
	b := d.inner.bottom.Load()
	d.inner.bottom.Store(b - 1)
	t := d.inner.top.Load()

	size := b - t
	if size <= 0 {
		// Nothing was claimed; put bottom back.
		d.inner.bottom.Store(b)
		return zero, false
	}

	buf := d.inner.buf.Load()
	value := buf.read(b - 1)

	if size == 1 {
		// A stealer may be racing for this same last slot. The CAS on
		// top picks the winner; on loss the read value is discarded.
		won := d.inner.top.CompareAndSwap(t, t+1)
		d.inner.bottom.Store(b)
		if !won {
			return zero, false
		}
		return value, true
	}

	// No race possible for this slot. Drop the reference so popped
	// values do not pin memory, then maybe shrink.
	buf.write(b-1, zero)
	if c := buf.cap(); size-1 < c/4 && c > minCapacity {
		d.resize(c / 2)
	}
	return value, true
}

// Len reports a point-in-time size estimate.
func (d *Deque[T]) Len() int {
	return d.inner.len()
}

// Cap reports the current buffer capacity.
func (d *Deque[T]) Cap() int {
	return int(d.inner.buf.Load().cap())
}

// resize publishes a copy of the live range into a buffer of the given
// capacity and hands the old buffer to the collector. A stealer that
// loaded the old buffer pointer may still be reading it, so its
// destruction is deferred behind the epoch protocol.
func (d *Deque[T]) resize(capacity int64) {
	b := d.inner.bottom.Load()
	t := d.inner.top.Load()
	old := d.inner.buf.Load()

	next := newBuffer[T](capacity)
	for i := t; i < b; i++ {
		next.write(i, old.read(i))
	}
	d.inner.buf.Store(next)

	guard := d.local.Pin()
	guard.Defer(old.destroy)
	d.local.Flush()
	guard.Unpin()
}
