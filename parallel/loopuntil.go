// Package parallel contains the concurrency primitives shared by feature
// extraction and training: bounded ForEach, LoopUntil search, an order
// independent Hasher and the MoveSet of visited training states.
package parallel

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
)

// LoopStopper is an interface to check if the loop should stop.
type LoopStopper interface {

	// Load reports true if the loop should stop.
	Load() bool
}

// Loop represents the number of goroutines to run.
type Loop int

// LoopUntil starts l goroutines that iterate until one of them stops the loop.
// Each iteration processes a unique integer i starting from 0.
// The loop stops when i reaches math.MaxUint32 or any yield returns true.
func (l Loop) LoopUntil(yield func(i uint32, ender LoopStopper) bool) {
	l.LoopUntilContext(context.Background(), yield)
}

// LoopUntilContext is LoopUntil which also stops when ctx is done. It reports
// whether some yield returned true.
func (l Loop) LoopUntilContext(ctx context.Context, yield func(i uint32, ender LoopStopper) bool) (found bool) {
	var (
		i     uint32
		ender atomic.Bool
		hit   atomic.Bool
		wg    sync.WaitGroup
	)
	if l < 1 {
		l = 1
	}

	stop := context.AfterFunc(ctx, func() { ender.Store(true) })
	defer stop()

	for n := 0; n < int(l); n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for !ender.Load() {
				newI := atomic.AddUint32(&i, 1)
				if newI == math.MaxUint32 {
					ender.Store(true)
					return
				}
				if yield(newI-1, &ender) {
					hit.Store(true)
					ender.Store(true)
					return
				}
			}
		}()
	}

	wg.Wait()
	return hit.Load()
}
