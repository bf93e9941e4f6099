// Package epoch provides epoch-based memory reclamation for
// lock-free data structures. Threads pin themselves before touching
// shared memory, unlink nodes while pinned, and defer the actual
// destruction until no pinned thread can still hold a reference.
//
// The engine is intentionally decoupled from any particular data
// structure. It only coordinates visibility: a global epoch counter,
// per-goroutine participation records, and generation-bucketed
// deferred work.
package epoch
