package epoch

import "sync/atomic"

// generations is how many advancements a deferred closure waits before
// it may run. Three, not two: global pinning (Global.Pin) lets the
// shared pin record lag one advancement behind a pinner that raced the
// count transition, so one extra generation of slack is held.
const generations = 3

// unpinned marks a participant with no active pin.
const unpinned = ^uint64(0)

// Global is the shared state of one collector instance: the epoch
// counter, the participant registry, and the deferred-garbage
// generations. Every handle (Local, Guard) is a view over one Global.
type Global struct {
	epoch atomic.Uint64
	_pad0 [56]byte

	// CAS-prepend registry of participants. Append-mostly: records of
	// finished goroutines stay unpinned and are skipped by scans.
	locals atomic.Pointer[Local]

	// Sealed bags deferred at epoch e wait in garbage[e%generations].
	garbage [generations]bagList

	// Shared pin record for goroutines without a registered Local.
	sharedCount atomic.Int64
	sharedEpoch atomic.Uint64
}

// NewGlobal creates an empty collector.
func NewGlobal() *Global {
	g := &Global{}
	g.sharedEpoch.Store(unpinned)
	return g
}

// Epoch returns the current global epoch.
func (g *Global) Epoch() uint64 {
	return g.epoch.Load()
}

// Register adds a participation record for the calling goroutine.
// The returned Local must be used by at most one goroutine at a time.
func (g *Global) Register() *Local {
	l := &Local{global: g}
	l.epoch.Store(unpinned)
	for {
		head := g.locals.Load()
		l.next.Store(head)
		if g.locals.CompareAndSwap(head, l) {
			return l
		}
	}
}

// Pin enters a globally pinned critical section for a goroutine that
// has no registered Local. Heavier than Local.Pin: every pin touches
// shared counters, and reclamation holds one extra generation to cover
// the record's epoch lagging behind a racing pinner.
func (g *Global) Pin() Guard {
	if g.sharedCount.Add(1) == 1 {
		g.sharedEpoch.Store(g.epoch.Load())
	}
	return Guard{global: g}
}

func (g *Global) globalUnpin() {
	g.sharedCount.Add(-1)
}

// TryAdvance attempts to move the global epoch forward by one. It
// returns false without side effects when some pinned participant has
// not yet observed the current epoch; that participant must catch up
// first. Never blocks, so callers retry opportunistically.
func (g *Global) TryAdvance() bool {
	e := g.epoch.Load()
	for l := g.locals.Load(); l != nil; l = l.next.Load() {
		le := l.epoch.Load()
		if le != unpinned && le != e {
			return false
		}
	}
	if g.sharedCount.Load() > 0 && g.sharedEpoch.Load() != e {
		return false
	}
	return g.epoch.CompareAndSwap(e, e+1)
}

// Collect runs deferred work that has become safe: sealed bags whose
// epoch is at least `generations` advancements in the past. The engine
// calls it lazily on pin and flush; it is exported for callers that
// want bounded cleanup points. Bags still too young are requeued.
func (g *Global) Collect() {
	e := g.epoch.Load()
	for i := range g.garbage {
		sb := g.garbage[i].drain()
		for sb != nil {
			next := sb.next
			// A bag can be sealed at an epoch newer than the snapshot
			// above when flushers race this loop; unsigned age math
			// would wrap, so treat those bags as young.
			if sb.epoch <= e && e-sb.epoch >= generations {
				sb.run()
			} else {
				g.garbage[sb.epoch%generations].push(sb)
			}
			sb = next
		}
	}
}

// deferGlobal queues fn from a globally pinned guard. There is no
// local bag to batch into, so each deferral seals its own bag.
func (g *Global) deferGlobal(fn func()) {
	sb := &sealedBag{epoch: g.epoch.Load(), n: 1}
	sb.fns[0] = fn
	g.garbage[sb.epoch%generations].push(sb)
}

// sealedBag is a batch of deferred closures tagged with the global
// epoch at seal time. The tag is an upper bound for every closure in
// the bag, since the epoch only increases.
type sealedBag struct {
	next  *sealedBag
	epoch uint64
	fns   [bagCap]func()
	n     int
}

func (sb *sealedBag) run() {
	for i := 0; i < sb.n; i++ {
		sb.fns[i]()
		sb.fns[i] = nil
	}
}

// bagList is a lock-free stack of sealed bags. Producers CAS-prepend;
// a collector detaches the whole list with one swap, so concurrent
// collectors work on disjoint chains.
type bagList struct {
	head atomic.Pointer[sealedBag]
}

func (bl *bagList) push(sb *sealedBag) {
	for {
		head := bl.head.Load()
		sb.next = head
		if bl.head.CompareAndSwap(head, sb) {
			return
		}
	}
}

func (bl *bagList) drain() *sealedBag {
	return bl.head.Swap(nil)
}
