package main

import (
	"flag"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"fenrir/deque"
	"fenrir/epoch"
)

func main() {
	stealers := flag.Int("stealers", 8, "number of stealer goroutines")
	items := flag.Int("items", 1_000_000, "values pushed by the owner")
	flag.Parse()

	// ---------------- Collector ----------------

	g := epoch.NewGlobal()

	// ---------------- Deque ----------------

	owner, stealer := deque.New[int](g)

	// ---------------- Background Reclamation ----------------

	var done atomic.Bool
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for !done.Load() {
			g.TryAdvance()
			g.Collect()
			runtime.Gosched()
		}
		g.Collect()
	}()

	// ---------------- Stealers ----------------

	var stolen atomic.Int64
	for i := 0; i < *stealers; i++ {
		wg.Add(1)
		go func(st *deque.Stealer[int]) {
			defer wg.Done()
			for {
				if _, ok := st.Steal(); ok {
					stolen.Add(1)
					continue
				}
				if done.Load() {
					return
				}
				runtime.Gosched()
			}
		}(stealer.Clone())
	}

	// ---------------- Owner ----------------

	fmt.Printf("stress: %d items, %d stealers\n", *items, *stealers)
	start := time.Now()

	var popped int64
	for i := 0; i < *items; i++ {
		owner.Push(i)
		if i%4 == 0 {
			if _, ok := owner.Pop(); ok {
				popped++
			}
		}
	}
	for {
		_, ok := owner.Pop()
		if !ok && stealer.IsEmpty() {
			break
		}
		if ok {
			popped++
		}
	}
	done.Store(true)
	wg.Wait()

	elapsed := time.Since(start)
	total := popped + stolen.Load()
	fmt.Printf("claimed %d/%d (popped %d, stolen %d) in %s, %.1fM ops/s\n",
		total, *items, popped, stolen.Load(), elapsed.Round(time.Millisecond),
		float64(*items)/elapsed.Seconds()/1e6)
	fmt.Printf("final epoch: %d\n", g.Epoch())

	if total != int64(*items) {
		fmt.Println("CONSERVATION VIOLATED")
	}
}
