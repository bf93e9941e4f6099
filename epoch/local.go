package epoch

import "sync/atomic"

// bagCap is the number of deferred closures a bag holds. The bag array
// lives inline in the Local, so deferring does not allocate until the
// bag is sealed.
const bagCap = 62

// pinsBetweenAdvance is how many pins a participant performs before it
// opportunistically tries to advance the global epoch and collect.
const pinsBetweenAdvance = 128

// Local is a per-goroutine participation record. It must be used by at
// most one goroutine at a time; only the epoch field is shared, and it
// is only ever scanned by other threads.
type Local struct {
	next   atomic.Pointer[Local]
	global *Global

	// Observed global epoch while pinned, or the unpinned sentinel.
	// Invariant while pinned: epoch <= global epoch <= epoch+1.
	epoch atomic.Uint64
	_pad  [56]byte

	pinCount int
	pins     int
	bag      bag
}

type bag struct {
	fns [bagCap]func()
	n   int
}

// Global returns the collector this record is registered with.
func (l *Local) Global() *Global {
	return l.global
}

// Pin enters an epoch-protected critical section. Re-entrant: nested
// pins only bump the nesting counter. The atomic store of the observed
// epoch doubles as the ordering fence the protocol needs: Go atomics
// are sequentially consistent, so a thread that pins here observes
// everything published by whichever thread advanced the epoch.
func (l *Local) Pin() Guard {
	l.pinCount++
	if l.pinCount == 1 {
		l.epoch.Store(l.global.epoch.Load())
		l.maybeAdvance()
	}
	return Guard{local: l}
}

// PinFenced pins and issues the full fence even when already pinned.
// Stealers need this: a re-entrant pin that skipped the fence could
// let a later read be ordered before the enclosing pin's epoch store.
func (l *Local) PinFenced() Guard {
	l.pinCount++
	if l.pinCount == 1 {
		l.epoch.Store(l.global.epoch.Load())
		l.maybeAdvance()
	} else {
		l.epoch.Load() // sequentially consistent op stands in for the fence
	}
	return Guard{local: l}
}

// maybeAdvance opportunistically tries to move the epoch forward and
// collect, once every pinsBetweenAdvance outermost pins.
func (l *Local) maybeAdvance() {
	l.pins++
	if l.pins >= pinsBetweenAdvance {
		l.pins = 0
		l.global.TryAdvance()
		l.global.Collect()
	}
}

func (l *Local) unpin() {
	l.pinCount--
	if l.pinCount == 0 {
		l.epoch.Store(unpinned)
	}
}

// deferFn queues fn behind the reclamation protocol. Caller holds a
// pin on this record.
func (l *Local) deferFn(fn func()) {
	l.bag.fns[l.bag.n] = fn
	l.bag.n++
	if l.bag.n == bagCap {
		l.Flush()
	}
}

// Flush seals the local bag, migrates it to the global generations,
// and nudges advancement and collection. A no-op on an empty bag.
func (l *Local) Flush() {
	if l.bag.n == 0 {
		return
	}
	sb := &sealedBag{epoch: l.global.epoch.Load(), n: l.bag.n}
	copy(sb.fns[:], l.bag.fns[:l.bag.n])
	for i := 0; i < l.bag.n; i++ {
		l.bag.fns[i] = nil
	}
	l.bag.n = 0

	l.global.garbage[sb.epoch%generations].push(sb)
	l.global.TryAdvance()
	l.global.Collect()
}

// Unregister migrates any remaining deferred work and leaves the
// record permanently unpinned. Must not be called while pinned. The
// registry is append-mostly: the record itself stays linked and is
// skipped by scans.
func (l *Local) Unregister() {
	l.Flush()
	l.epoch.Store(unpinned)
}
