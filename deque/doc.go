// Package deque implements a lock-free work-stealing deque in the
// Chase-Lev style. The owner pushes and pops at the bottom end (LIFO);
// any number of stealers take from the top end (FIFO), racing each
// other and the owner through CAS on a single shared index.
//
// Buffer memory is reclaimed through the epoch package: when the owner
// resizes, the old buffer is unlinked and handed to the collector, and
// it is destroyed only once no stealer can still be reading it.
package deque
