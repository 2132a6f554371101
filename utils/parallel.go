// Package utils contains the parallel kernel scheduler and small numeric
// helpers shared by the geometry packages.
package utils

import (
	"math"
	"runtime"
	"sync"

	"go.uber.org/multierr"
	"go.viam.com/utils"
)

// ParallelFactor controls the max level of parallelization. This might be useful
// to set in tests where too much parallelism actually slows tests down in
// aggregate.
var ParallelFactor = runtime.GOMAXPROCS(0)

func init() {
	if ParallelFactor <= 0 {
		ParallelFactor = 1
	}
}

// A Kernel is the per-item body of a parallel dispatch: it is invoked once for
// every work index in [0, n) with no ordering guarantee across indices.
type Kernel func(i int)

// ParallelForEachPoint dispatches f over n work items, one per point, split
// into contiguous ranges across ParallelFactor workers. It returns once every
// item has run.
func ParallelForEachPoint(n int, f Kernel) {
	if n <= 0 {
		return
	}
	workers := ParallelFactor
	if workers > n {
		workers = n
	}
	groupSize := int(math.Ceil(float64(n) / float64(workers)))
	var wait sync.WaitGroup
	for from := 0; from < n; from += groupSize {
		to := from + groupSize
		if to > n {
			to = n
		}
		fromCopy, toCopy := from, to
		wait.Add(1)
		utils.PanicCapturingGo(func() {
			defer wait.Done()
			for i := fromCopy; i < toCopy; i++ {
				f(i)
			}
		})
	}
	wait.Wait()
}

// ParallelReduce runs one worker per contiguous range of the n work items,
// collecting the per-range results of reduce. merge folds the partial results
// together on the caller's goroutine in range order, so the reduction is
// deterministic for a fixed n and ParallelFactor.
func ParallelReduce[T any](n int, reduce func(from, to int) (T, error), merge func(acc, part T) T) (T, error) {
	var zero T
	if n <= 0 {
		return zero, nil
	}
	workers := ParallelFactor
	if workers > n {
		workers = n
	}
	groupSize := int(math.Ceil(float64(n) / float64(workers)))
	numGroups := (n + groupSize - 1) / groupSize
	parts := make([]T, numGroups)
	errs := make([]error, numGroups)
	var wait sync.WaitGroup
	for g := 0; g < numGroups; g++ {
		gCopy := g
		from := g * groupSize
		to := from + groupSize
		if to > n {
			to = n
		}
		wait.Add(1)
		utils.PanicCapturingGo(func() {
			defer wait.Done()
			parts[gCopy], errs[gCopy] = reduce(from, to)
		})
	}
	wait.Wait()
	if err := multierr.Combine(errs...); err != nil {
		return zero, err
	}
	acc := parts[0]
	for _, part := range parts[1:] {
		acc = merge(acc, part)
	}
	return acc, nil
}
