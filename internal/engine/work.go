package engine

import "context"

// WorkFn processes a single work item. Implementations must honor ctx
// cancellation at their blocking points and report failures through the
// returned error rather than panicking.
type WorkFn[T, R any] func(ctx context.Context, item T) (R, error)

// CloseFn releases whatever session state a WorkFn was bound to.
type CloseFn func() error

// Factory builds a WorkFn bound to a freshly created, caller-owned session
// (an HTTP client, a file handle, ...). Strategies decide how often the
// factory runs: sequential and cooperative runs share a single session,
// a worker pool builds one per worker. The returned CloseFn is invoked when
// the owning worker retires; either return value may rely on the other
// having the same lifetime.
//
// A factory error is a batch fault: the run is aborted before any item is
// processed.
type Factory[T, R any] func() (WorkFn[T, R], CloseFn, error)

// Stateless wraps a session-free WorkFn (pure computation) into a Factory.
func Stateless[T, R any](fn WorkFn[T, R]) Factory[T, R] {
	return func() (WorkFn[T, R], CloseFn, error) {
		return fn, func() error { return nil }, nil
	}
}
