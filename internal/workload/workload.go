// Package workload defines the work executed by the batch strategies: an
// I/O-bound HTTP download and a CPU-bound sum-of-squares computation. The
// request/response types are JSON-serializable because the process-pool
// strategy ships them across a process boundary unchanged.
package workload

import (
	"context"
	"fmt"
)

// Kind names a workload on the wire and in CLI flags.
type Kind string

const (
	// KindFetch downloads a URL and reports the body length.
	KindFetch Kind = "fetch"

	// KindSumSquares computes the sum of i*i for i in [0, Number).
	KindSumSquares Kind = "sum_squares"
)

// Request is one work item. Exactly one of URL or Number is meaningful,
// selected by Kind.
type Request struct {
	Kind   Kind   `json:"kind"`
	URL    string `json:"url,omitempty"`
	Number int64  `json:"number,omitempty"`
}

// Response is the success payload for one request.
type Response struct {
	// Bytes is the downloaded body length for KindFetch.
	Bytes int64 `json:"bytes,omitempty"`

	// Sum is the computed sum for KindSumSquares.
	Sum uint64 `json:"sum,omitempty"`
}

// Validate checks that a request is executable.
func (r Request) Validate() error {
	switch r.Kind {
	case KindFetch:
		if r.URL == "" {
			return fmt.Errorf("fetch request needs a url")
		}
	case KindSumSquares:
		if r.Number < 0 {
			return fmt.Errorf("sum_squares request needs a non-negative number, got %d", r.Number)
		}
	default:
		return fmt.Errorf("unknown workload kind %q", r.Kind)
	}
	return nil
}

// SumSquares returns the sum of i*i for i in [0, n).
func SumSquares(n int64) uint64 {
	var sum uint64
	for i := int64(0); i < n; i++ {
		sum += uint64(i) * uint64(i)
	}
	return sum
}

// sumSquaresRequest executes a KindSumSquares request. The computation is
// deliberately not interruptible mid-item: cancellation takes effect between
// items, matching the engine's sequential cancellation contract.
func sumSquaresRequest(_ context.Context, req Request) (Response, error) {
	if err := req.Validate(); err != nil {
		return Response{}, err
	}
	return Response{Sum: SumSquares(req.Number)}, nil
}
