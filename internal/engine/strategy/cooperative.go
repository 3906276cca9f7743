package strategy

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/brhoades44/batchbench/internal/engine"
)

// Cooperative models items as lightweight tasks sharing one session: every
// task is launched before any is joined, so all items proceed concurrently
// and suspend only at their I/O wait points. Cancellation abandons tasks
// that have not started and interrupts in-flight ones at their next I/O
// boundary.
//
// CPU-bound work has no wait points to interleave, which makes this strategy
// strictly worse than Sequential for it.
type Cooperative[T, R any] struct {
	engine.RunState
}

// NewCooperative creates a cooperative-task strategy.
func NewCooperative[T, R any]() *Cooperative[T, R] {
	return &Cooperative[T, R]{}
}

// Name implements engine.Strategy.
func (c *Cooperative[T, R]) Name() string {
	return "async"
}

// Run implements engine.Strategy.
func (c *Cooperative[T, R]) Run(
	ctx context.Context,
	items []T,
	factory engine.Factory[T, R],
) ([]engine.Result[R], error) {
	if err := c.Begin(); err != nil {
		return nil, err
	}
	defer c.End()

	fn, closeFn, err := factory()
	if err != nil {
		return nil, fmt.Errorf("creating shared session: %w", err)
	}
	defer closeSession(ctx, closeFn)

	// Fire all, then join all. Each task writes only its own slot, so the
	// slice needs no lock.
	results := make([]engine.Result[R], len(items))
	var g errgroup.Group
	for i, item := range items {
		g.Go(func() error {
			if cause := ctx.Err(); cause != nil {
				results[i] = engine.CancelledResult[R](i, cause)
				return nil
			}
			results[i] = engine.RunItem(ctx, fn, i, item)
			return nil
		})
	}
	// Task errors are captured in results, never returned.
	_ = g.Wait()

	return results, nil
}
