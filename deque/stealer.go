package deque

import "fenrir/epoch"

// Outcome reports how a single steal attempt ended. Callers must treat
// Empty and Retry differently: Empty is a terminal answer, Retry means
// a race was lost and the attempt should be repeated soon.
type Outcome uint8

const (
	// Success means a value was claimed.
	Success Outcome = iota
	// Empty means the deque was observed empty.
	Empty
	// Retry means another stealer or the owner won the race for the
	// observed top slot.
	Retry
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Empty:
		return "empty"
	default:
		return "retry"
	}
}

// Stealer is a shared handle on a deque's top end. Handles are cheap
// to clone; each individual handle may be used by one goroutine at a
// time.
type Stealer[T any] struct {
	inner *inner[T]
	local *epoch.Local
}

// TrySteal makes one attempt to claim the oldest value. The pin forces
// the full fence even when re-entrant: the bottom load below must not
// be ordered before the epoch store, or the buffer chased afterwards
// could already be reclaimed.
func (s *Stealer[T]) TrySteal() (T, Outcome) {
	var zero T

	t := s.inner.top.Load()

	guard := s.local.PinFenced()
	defer guard.Unpin()

	b := s.inner.bottom.Load()
	if b-t <= 0 {
		return zero, Empty
	}

	buf := s.inner.buf.Load()
	value := buf.read(t)

	if !s.inner.top.CompareAndSwap(t, t+1) {
		// Lost the race; the read value may be torn and is discarded.
		return zero, Retry
	}
	return value, Success
}

// Steal claims the oldest value, retrying internally on lost races.
// The second return is false only once the deque is observed empty.
// Lock-free: the retry count is bounded by contention, not by a lock.
func (s *Stealer[T]) Steal() (T, bool) {
	for {
		value, outcome := s.TrySteal()
		switch outcome {
		case Success:
			return value, true
		case Empty:
			var zero T
			return zero, false
		}
	}
}

// Clone returns a new handle on the same deque with its own
// participation record.
func (s *Stealer[T]) Clone() *Stealer[T] {
	return &Stealer[T]{inner: s.inner, local: s.local.Global().Register()}
}

// Len reports a point-in-time size estimate.
func (s *Stealer[T]) Len() int {
	return s.inner.len()
}

// IsEmpty reports whether the deque appears empty.
func (s *Stealer[T]) IsEmpty() bool {
	return s.inner.len() == 0
}
