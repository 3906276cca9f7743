package engine

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Result is the outcome of processing one work item. Every submitted item
// yields exactly one Result, success or failure. Result order matches input
// order only for the sequential strategy; Index correlates a result back to
// its item for the others.
type Result[R any] struct {
	// Index is the position of the item in the submitted batch.
	Index int

	// Value is the success payload. Only meaningful when Err is nil.
	Value R

	// Err is nil on success, ErrCancelled (possibly wrapped) for abandoned
	// items, or the per-item failure cause otherwise.
	Err error

	// Duration is the wall-clock time spent on this item.
	Duration time.Duration
}

// Failed reports whether the item produced any failure, including
// cancellation.
func (r Result[R]) Failed() bool {
	return r.Err != nil
}

// Cancelled reports whether the item was abandoned due to run cancellation.
func (r Result[R]) Cancelled() bool {
	return errors.Is(r.Err, ErrCancelled)
}

// RunItem applies fn to one item, measuring duration and converting a panic
// into a per-item failure so a misbehaving work function cannot take its
// sibling items down with it. Strategies route every item through here.
func RunItem[T, R any](ctx context.Context, fn WorkFn[T, R], index int, item T) (res Result[R]) {
	start := time.Now()
	res = Result[R]{Index: index}

	defer func() {
		if rec := recover(); rec != nil {
			res.Err = fmt.Errorf("work function panicked: %v", rec)
		}
		res.Duration = time.Since(start)
	}()

	res.Value, res.Err = fn(ctx, item)
	if res.Err != nil && ctx.Err() != nil &&
		(errors.Is(res.Err, context.Canceled) || errors.Is(res.Err, context.DeadlineExceeded)) {
		// In-flight item interrupted by run cancellation: report it with a
		// cancellation cause, not as an ordinary per-item failure.
		res.Err = fmt.Errorf("%w: %v", ErrCancelled, res.Err)
	}
	return res
}

// CancelledResult builds the failure result for an item abandoned before it
// was started.
func CancelledResult[R any](index int, cause error) Result[R] {
	return Result[R]{Index: index, Err: fmt.Errorf("%w: %v", ErrCancelled, cause)}
}
