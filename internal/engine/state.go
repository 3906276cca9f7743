package engine

import "sync/atomic"

// RunState tracks the Idle -> Running lifecycle of a strategy value.
// Strategies embed it so that a value can be reused for a new run once the
// previous run has returned, while concurrent reuse is rejected as a batch
// fault. Running is the only state in which items are in flight; both
// completion and failure return the strategy to Idle.
type RunState struct {
	running atomic.Bool
}

// Begin transitions Idle -> Running, or returns ErrBusy when a run is
// already in flight.
func (s *RunState) Begin() error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrBusy
	}
	return nil
}

// End returns the strategy to Idle. Callers pair it with Begin via defer so
// the transition happens on every exit path.
func (s *RunState) End() {
	s.running.Store(false)
}
