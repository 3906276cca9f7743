package strategy

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/brhoades44/batchbench/internal/engine"
)

// ErrInvalidWorkers is the batch fault for a non-positive worker count.
var ErrInvalidWorkers = errors.New("worker count must be positive")

// Pool distributes items across a bounded pool of worker goroutines fed
// from a shared queue. Each worker builds its own session exactly once at
// run start and reuses it for every item it picks up; sessions are never
// shared across workers. The pool is created at Run entry and fully drained
// before Run returns, so no worker goroutine outlives the call.
//
// Completion order is not input order.
type Pool[T, R any] struct {
	engine.RunState

	// Workers is the maximum number of items concurrently in flight.
	Workers int
}

// NewPool creates a pool strategy with the given worker count.
func NewPool[T, R any](workers int) *Pool[T, R] {
	return &Pool[T, R]{Workers: workers}
}

// Name implements engine.Strategy.
func (p *Pool[T, R]) Name() string {
	return "pool"
}

type job[T any] struct {
	index int
	item  T
}

// Run implements engine.Strategy.
func (p *Pool[T, R]) Run(
	ctx context.Context,
	items []T,
	factory engine.Factory[T, R],
) ([]engine.Result[R], error) {
	if p.Workers <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWorkers, p.Workers)
	}
	if err := p.Begin(); err != nil {
		return nil, err
	}
	defer p.End()

	if len(items) == 0 {
		return []engine.Result[R]{}, nil
	}

	workers := min(p.Workers, len(items))

	// Acquire every worker session up front so a setup failure aborts the
	// run before any item starts.
	fns := make([]engine.WorkFn[T, R], workers)
	closes := make([]engine.CloseFn, workers)
	for w := range workers {
		fn, closeFn, err := factory()
		if err != nil {
			for i := range w {
				closeSession(ctx, closes[i])
			}
			return nil, fmt.Errorf("creating session for worker %d: %w", w, err)
		}
		fns[w], closes[w] = fn, closeFn
	}

	jobs := make(chan job[T], len(items))
	for i, item := range items {
		jobs <- job[T]{index: i, item: item}
	}
	close(jobs)

	out := make(chan engine.Result[R], len(items))
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := range workers {
		go func(fn engine.WorkFn[T, R], closeFn engine.CloseFn) {
			defer wg.Done()
			defer closeSession(ctx, closeFn)
			for j := range jobs {
				if cause := ctx.Err(); cause != nil {
					// Queued items are not started after cancellation, but
					// each still gets its result.
					out <- engine.CancelledResult[R](j.index, cause)
					continue
				}
				out <- engine.RunItem(ctx, fn, j.index, j.item)
			}
		}(fns[w], closes[w])
	}

	wg.Wait()
	close(out)

	results := make([]engine.Result[R], 0, len(items))
	for res := range out {
		results = append(results, res)
	}
	return results, nil
}
