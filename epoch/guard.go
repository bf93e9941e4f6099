package epoch

/*
Guard

Proof of participation. A guard bounds the lifetime of every operation
that chases pointers into epoch-protected memory:

- bound to a Local  → produced by Local.Pin / Local.PinFenced
- bound to a Global → produced by Global.Pin (global pinning)
- unprotected       → zero value; asserts no concurrent writer exists

Each guard must be unpinned exactly once, on every exit path.
*/
type Guard struct {
	local  *Local
	global *Global
}

// Unprotected returns a guard for callers that guarantee exclusive
// access (single-threaded setup, owner-only fields). It skips all
// bookkeeping; deferred work runs immediately.
func Unprotected() Guard {
	return Guard{}
}

// Defer schedules fn to run once no pinned thread can still observe
// memory unlinked in the current epoch. On an unprotected guard fn
// runs right away: exclusivity means nobody else can be looking.
func (g Guard) Defer(fn func()) {
	switch {
	case g.local != nil:
		g.local.deferFn(fn)
	case g.global != nil:
		g.global.deferGlobal(fn)
	default:
		fn()
	}
}

// Unpin releases the guard. At zero nesting depth the participant is
// published as unpinned, which lets the epoch advance past it.
func (g Guard) Unpin() {
	switch {
	case g.local != nil:
		g.local.unpin()
	case g.global != nil:
		g.global.globalUnpin()
	}
}
