// Package parallel provides the bounded worker pool used for row-parallel
// work inside a single node execution.
//
// Work is split into contiguous row ranges. Every call blocks until all
// workers have finished, so callers stay synchronous and no goroutine
// outlives the operation that started it. Results are always returned in
// input order.
package parallel

import (
	"context"
	"runtime"
	"sync"
)

// WorkerPool manages a pool of goroutines for parallel processing
type WorkerPool struct {
	numWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewWorkerPoolWithContext creates a worker pool whose work stops being
// scheduled once ctx is cancelled. A non-positive count uses runtime.NumCPU().
func NewWorkerPoolWithContext(ctx context.Context, numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(ctx)

	return &WorkerPool{
		numWorkers: numWorkers,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Workers returns the number of goroutines the pool runs
func (wp *WorkerPool) Workers() int {
	return wp.numWorkers
}

// Range is a half-open row interval [Start, End)
type Range struct {
	Start int
	End   int
}

// Len returns the number of rows in the range
func (r Range) Len() int {
	return r.End - r.Start
}

// SplitRange divides n rows into at most parts contiguous ranges of nearly equal size
func SplitRange(n, parts int) []Range {
	if n <= 0 {
		return nil
	}
	if parts <= 0 {
		parts = 1
	}
	if parts > n {
		parts = n
	}

	ranges := make([]Range, 0, parts)
	size := n / parts
	extra := n % parts
	start := 0
	for i := 0; i < parts; i++ {
		end := start + size
		if i < extra {
			end++
		}
		ranges = append(ranges, Range{Start: start, End: end})
		start = end
	}
	return ranges
}

// ProcessIndexed executes work items in parallel while preserving order
func ProcessIndexed[T, R any](
	wp *WorkerPool,
	items []T,
	worker func(int, T) R,
) []R {
	if len(items) == 0 {
		return nil
	}

	// Channel for input items with index
	itemCh := make(chan indexedItem[T], len(items))

	// Channel for results with index
	resultCh := make(chan indexedResult[R], len(items))

	var wg sync.WaitGroup
	for i := 0; i < wp.numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range itemCh {
				select {
				case <-wp.ctx.Done():
					return
				default:
					resultCh <- indexedResult[R]{
						index:  item.index,
						result: worker(item.index, item.value),
					}
				}
			}
		}()
	}

	go func() {
		defer close(itemCh)
		for i, item := range items {
			select {
			case <-wp.ctx.Done():
				return
			case itemCh <- indexedItem[T]{index: i, value: item}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]R, len(items))
	for result := range resultCh {
		results[result.index] = result.result
	}

	return results
}

// ForEachRange splits n rows into one range per worker and runs fn on each.
// It returns the error of the lowest failing range, or the context error if
// the pool was cancelled before every range ran.
func (wp *WorkerPool) ForEachRange(n int, fn func(Range) error) error {
	ranges := SplitRange(n, wp.numWorkers)
	if len(ranges) == 0 {
		return nil
	}

	ran := make([]bool, len(ranges))
	errs := ProcessIndexed(wp, ranges, func(i int, r Range) error {
		ran[i] = true
		return fn(r)
	})

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	for _, ok := range ran {
		if !ok {
			return wp.ctx.Err()
		}
	}
	return nil
}

// Close shuts down the worker pool
func (wp *WorkerPool) Close() {
	wp.cancel()
}

// indexedItem holds an item with its index
type indexedItem[T any] struct {
	index int
	value T
}

// indexedResult holds a result with its index
type indexedResult[R any] struct {
	index  int
	result R
}
