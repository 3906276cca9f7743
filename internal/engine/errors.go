package engine

import "errors"

// Failure taxonomy for a batch run. Per-item failures and cancellations are
// captured in the item's Result and never surface as an Execute error; batch
// faults abort the run and are returned from Execute directly.
var (
	// ErrCancelled marks an item that was abandoned because the run's
	// context was cancelled or its deadline expired before the item could
	// complete.
	ErrCancelled = errors.New("item cancelled before completion")

	// ErrBusy is the batch fault returned when a strategy is asked to run
	// while a previous run on the same strategy value is still in flight.
	ErrBusy = errors.New("strategy already running")

	// ErrNoStrategy is the batch fault for a nil strategy.
	ErrNoStrategy = errors.New("no execution strategy provided")

	// ErrNoFactory is the batch fault for a nil work factory.
	ErrNoFactory = errors.New("no work factory provided")

	// ErrIncompleteBatch is the batch fault raised when a strategy returns
	// a result set that does not cover every submitted item exactly once.
	ErrIncompleteBatch = errors.New("strategy lost or duplicated work items")
)
