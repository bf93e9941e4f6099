package deque

import (
	"sync/atomic"
	"testing"

	"fenrir/epoch"
)

// ---------------- Basic Benchmarks ---------------- //

func BenchmarkPushPop(b *testing.B) {
	g := epoch.NewGlobal()
	d, _ := New[int](g)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d.Push(i)
		d.Pop()
	}
}

func BenchmarkPushStealPair(b *testing.B) {
	g := epoch.NewGlobal()
	d, s := New[int](g)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d.Push(i)
		s.Steal()
	}
}

// ---------------- Parallel Versions ---------------- //

func BenchmarkStealParallel(b *testing.B) {
	g := epoch.NewGlobal()
	d, s := New[int](g)
	for i := 0; i < 1<<16; i++ {
		d.Push(i)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		st := s.Clone()
		for pb.Next() {
			st.TrySteal()
		}
	})
}

func BenchmarkOwnerUnderContention(b *testing.B) {
	g := epoch.NewGlobal()
	d, s := New[int](g)

	var done atomic.Bool
	const stealers = 4
	for i := 0; i < stealers; i++ {
		go func(st *Stealer[int]) {
			for !done.Load() {
				st.TrySteal()
			}
		}(s.Clone())
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d.Push(i)
		if i%2 == 0 {
			d.Pop()
		}
		// occasionally reclaim so deferred buffers don't pile up
		if i%4096 == 0 {
			g.TryAdvance()
			g.Collect()
		}
	}
	b.StopTimer()
	done.Store(true)
}
