// Package engine implements the batch executor: it dispatches a homogeneous
// set of work items through a pluggable execution strategy, times the run,
// and aggregates per-item outcomes into a Report.
//
// The executor guarantees that every submitted item yields exactly one
// Result. Per-item failures are isolated (one item's error never aborts its
// siblings) while batch faults, such as session setup or pool startup
// errors or a strategy violating the one-result-per-item invariant, abort
// the run and are returned to the caller.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/brhoades44/batchbench/internal/logging"
)

// Strategy is a concurrency policy: run fn over every item and return one
// result per item. Implementations are free to complete items in any order
// but must preserve each item's Index. A non-nil error is a batch fault and
// invalidates the partial result set.
type Strategy[T, R any] interface {
	// Name identifies the strategy in reports and logs.
	Name() string

	// Run executes the batch. It must return only after every item has a
	// result or the run has been terminated by a batch fault.
	Run(ctx context.Context, items []T, factory Factory[T, R]) ([]Result[R], error)
}

type options struct {
	timeout time.Duration
}

// Option configures a single Execute call.
type Option func(*options)

// WithTimeout sets an overall deadline for the run. On expiry, in-flight
// work is cancelled best-effort and the remaining items are reported as
// cancelled failures; the run itself still completes normally.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// Execute runs items through strat and returns the timed report.
//
// An empty batch is valid and returns a report with zero results. The items
// slice is never mutated.
func Execute[T, R any](
	ctx context.Context,
	items []T,
	factory Factory[T, R],
	strat Strategy[T, R],
	opts ...Option,
) (*Report[R], error) {
	if strat == nil {
		return nil, ErrNoStrategy
	}
	if factory == nil {
		return nil, ErrNoFactory
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	log := logging.FromContext(ctx)
	log.Debug().
		Str("component", "engine").
		Str("strategy", strat.Name()).
		Int("items", len(items)).
		Msg("starting batch run")

	start := time.Now()
	results, err := strat.Run(ctx, items, factory)
	elapsed := time.Since(start)

	if err != nil {
		log.Error().
			Str("component", "engine").
			Str("strategy", strat.Name()).
			Err(err).
			Msg("batch run aborted")
		return nil, fmt.Errorf("strategy %s: %w", strat.Name(), err)
	}

	if err := checkCoverage(len(items), results); err != nil {
		return nil, fmt.Errorf("strategy %s: %w", strat.Name(), err)
	}

	report := newReport(strat.Name(), results, elapsed)
	log.Info().
		Str("component", "engine").
		Str("strategy", strat.Name()).
		Str("run_id", report.RunID.String()).
		Int("items", report.Total).
		Int("failures", report.Failures).
		Dur("elapsed", report.Elapsed).
		Msg("batch run complete")
	return report, nil
}

// checkCoverage enforces the one-result-per-item invariant: the result set
// must cover indices [0, total) exactly once.
func checkCoverage[R any](total int, results []Result[R]) error {
	if len(results) != total {
		return fmt.Errorf("%w: got %d results for %d items", ErrIncompleteBatch, len(results), total)
	}
	seen := make([]bool, total)
	for _, res := range results {
		if res.Index < 0 || res.Index >= total {
			return fmt.Errorf("%w: result index %d out of range", ErrIncompleteBatch, res.Index)
		}
		if seen[res.Index] {
			return fmt.Errorf("%w: duplicate result for item %d", ErrIncompleteBatch, res.Index)
		}
		seen[res.Index] = true
	}
	return nil
}
