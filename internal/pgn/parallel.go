package pgn

import (
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Below this many items the goroutine setup costs more than the copy work.
const minParallelItems = 32

var maxWorkers atomic.Int32

// SetMaxWorkers caps the number of goroutines used to materialize matches.
// Zero or a negative value means GOMAXPROCS.
func SetMaxWorkers(n int) {
	if n < 0 {
		n = 0
	}
	maxWorkers.Store(int32(n))
}

func workers() int {
	if n := int(maxWorkers.Load()); n > 0 {
		return n
	}
	return runtime.GOMAXPROCS(0)
}

// parallelMap applies fn to every item and returns the results in input
// order. Items are split into contiguous chunks, one goroutine per chunk,
// and each goroutine writes only its own slots.
func parallelMap[T, R any](items []T, fn func(T) R) []R {
	out := make([]R, len(items))
	w := workers()
	if len(items) < minParallelItems || w == 1 {
		for i, it := range items {
			out[i] = fn(it)
		}
		return out
	}
	if w > len(items) {
		w = len(items)
	}
	chunk := (len(items) + w - 1) / w

	var g errgroup.Group
	for start := 0; start < len(items); start += chunk {
		end := min(start+chunk, len(items))
		g.Go(func() error {
			for i := start; i < end; i++ {
				out[i] = fn(items[i])
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}
