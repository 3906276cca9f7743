package strategy

import (
	"context"
	"fmt"

	"github.com/brhoades44/batchbench/internal/engine"
	"github.com/brhoades44/batchbench/internal/logging"
)

// Sequential runs items one at a time on the calling goroutine. Result order
// matches input order; cancellation is checked between items and the
// remainder of the batch is reported as cancelled.
type Sequential[T, R any] struct {
	engine.RunState
}

// NewSequential creates a sequential strategy.
func NewSequential[T, R any]() *Sequential[T, R] {
	return &Sequential[T, R]{}
}

// Name implements engine.Strategy.
func (s *Sequential[T, R]) Name() string {
	return "sequential"
}

// Run implements engine.Strategy.
func (s *Sequential[T, R]) Run(
	ctx context.Context,
	items []T,
	factory engine.Factory[T, R],
) ([]engine.Result[R], error) {
	if err := s.Begin(); err != nil {
		return nil, err
	}
	defer s.End()

	fn, closeFn, err := factory()
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	defer closeSession(ctx, closeFn)

	results := make([]engine.Result[R], 0, len(items))
	for i, item := range items {
		if cause := ctx.Err(); cause != nil {
			results = append(results, engine.CancelledResult[R](i, cause))
			continue
		}
		results = append(results, engine.RunItem(ctx, fn, i, item))
	}
	return results, nil
}

// closeSession releases a session, downgrading close errors to a log line:
// by the time a session closes every item already has its result.
func closeSession(ctx context.Context, closeFn engine.CloseFn) {
	if closeFn == nil {
		return
	}
	if err := closeFn(); err != nil {
		logging.FromContext(ctx).Warn().
			Str("component", "strategy").
			Err(err).
			Msg("failed to close work session")
	}
}
