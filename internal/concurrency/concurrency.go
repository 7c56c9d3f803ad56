// Package concurrency runs independent units of work on a bounded pool.
package concurrency

import (
	"context"

	"github.com/sourcegraph/conc/pool"
)

// NewPool returns a new pool where each task respects context cancellation.
// The first failing task cancels the others and Wait returns its error.
func NewPool(ctx context.Context, maxGoroutines int) *pool.ContextPool {
	return pool.New().
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError().
		WithMaxGoroutines(maxGoroutines)
}

// Map applies fn to every item and returns the results in item order.
//
// With maxGoroutines <= 1, or a single item, fn runs sequentially in the
// calling goroutine. Otherwise at most maxGoroutines items run at once. Either
// way the first error aborts the remaining items and no results are returned.
// fn must not share mutable state between items.
func Map[T, R any](ctx context.Context, maxGoroutines int, items []T, fn func(context.Context, int, T) (R, error)) ([]R, error) {
	results := make([]R, len(items))

	if maxGoroutines <= 1 || len(items) <= 1 {
		for i, item := range items {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			r, err := fn(ctx, i, item)
			if err != nil {
				return nil, err
			}
			results[i] = r
		}
		return results, nil
	}

	p := NewPool(ctx, min(maxGoroutines, len(items)))
	for i, item := range items {
		p.Go(func(ctx context.Context) error {
			r, err := fn(ctx, i, item)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
