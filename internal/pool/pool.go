// Package pool runs independent jobs across a fixed-size worker pool while
// preserving input order: result i always corresponds to input i, regardless
// of worker scheduling.
package pool

import (
	"context"
	"sync"
)

// #region map

// Map applies fn to every input using at most workers goroutines and returns
// the results in input order. The first error cancels the remaining work and
// is returned. workers <= 1 (or a single input) runs synchronously.
func Map[I, O any](ctx context.Context, workers int, inputs []I, fn func(context.Context, I) (O, error)) ([]O, error) {
	results := make([]O, len(inputs))
	if len(inputs) == 0 {
		return results, nil
	}

	if workers <= 1 || len(inputs) == 1 {
		for i, in := range inputs {
			out, err := fn(ctx, in)
			if err != nil {
				return nil, err
			}
			results[i] = out
		}
		return results, nil
	}

	if workers > len(inputs) {
		workers = len(inputs)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int)
	var wg sync.WaitGroup
	var once sync.Once
	var firstErr error

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				out, err := fn(ctx, inputs[i])
				if err != nil {
					once.Do(func() {
						firstErr = err
						cancel()
					})
					return
				}
				results[i] = out
			}
		}()
	}

feed:
	for i := range inputs {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	// The derived context is only cancelled together with firstErr, so any
	// remaining cancellation came from the caller.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// #endregion map
