package engine

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Report aggregates the outcome of one batch run. It is created once per
// run, immutable after construction, and safe to hand to renderers or
// callers that want to retry individual failed items themselves.
type Report[R any] struct {
	// RunID uniquely identifies the run.
	RunID ulid.ULID

	// Strategy is the name of the execution strategy that produced the run.
	Strategy string

	// Total is the number of items submitted.
	Total int

	// Failures counts results with a non-nil Err, cancellations included.
	Failures int

	// Cancelled counts results abandoned due to deadline or cancellation.
	// Cancelled results are also counted in Failures.
	Cancelled int

	// Elapsed is the wall-clock duration of the whole run, setup and
	// teardown included.
	Elapsed time.Duration

	// Results holds one entry per submitted item. Ordered by input index
	// only for the sequential strategy.
	Results []Result[R]
}

// Succeeded counts results that completed without error.
func (r *Report[R]) Succeeded() int {
	return r.Total - r.Failures
}

func newReport[R any](strategy string, results []Result[R], elapsed time.Duration) *Report[R] {
	rep := &Report[R]{
		RunID:    ulid.Make(),
		Strategy: strategy,
		Total:    len(results),
		Elapsed:  elapsed,
		Results:  results,
	}
	for _, res := range results {
		if res.Failed() {
			rep.Failures++
		}
		if res.Cancelled() {
			rep.Cancelled++
		}
	}
	return rep
}
