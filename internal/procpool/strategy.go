package procpool

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/brhoades44/batchbench/internal/engine"
	"github.com/brhoades44/batchbench/internal/logging"
	"github.com/brhoades44/batchbench/internal/workload"
)

// Strategy executes a batch across worker subprocesses. Each worker is a
// separate OS process with its own runtime and its own lazily initialized
// workload session; items are dispatched greedily, one in flight per worker.
//
// This strategy carries the highest fixed setup and teardown cost of the
// four: it only pays off for CPU-bound work, where separate processes give
// true parallelism. Work crosses the process boundary serialized, so the
// strategy runs named workloads (workload.Request) rather than closures;
// the engine factory argument is ignored and sessions live inside the
// workers.
type Strategy struct {
	engine.RunState

	// Workers is the pool size. Zero or negative means runtime.NumCPU().
	Workers int

	launcher *Launcher
}

// New creates a process-pool strategy.
func New(workers int) *Strategy {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Strategy{
		Workers:  workers,
		launcher: NewLauncher(),
	}
}

// Name implements engine.Strategy.
func (s *Strategy) Name() string {
	return "procpool"
}

// Run implements engine.Strategy[workload.Request, workload.Response].
func (s *Strategy) Run(
	ctx context.Context,
	items []workload.Request,
	_ engine.Factory[workload.Request, workload.Response],
) ([]engine.Result[workload.Response], error) {
	if err := s.Begin(); err != nil {
		return nil, err
	}
	defer s.End()

	if len(items) == 0 {
		return []engine.Result[workload.Response]{}, nil
	}

	log := logging.FromContext(ctx)
	count := min(s.Workers, len(items))

	workers, err := s.spawn(ctx, count)
	if err != nil {
		return nil, err
	}
	defer func() {
		for _, w := range workers {
			if cerr := w.Close(); cerr != nil {
				log.Warn().
					Str("component", "procpool").
					Int("pid", w.PID()).
					Err(cerr).
					Msg("worker teardown failed")
			}
		}
	}()

	// When the run is cancelled, poison every connection so dispatchers
	// blocked in Call return promptly instead of waiting on a dead run.
	stop := context.AfterFunc(ctx, func() {
		for _, w := range workers {
			w.Interrupt()
		}
	})
	defer stop()

	jobs := make(chan Call, len(items))
	for i, item := range items {
		jobs <- Call{ID: i, Request: item}
	}
	close(jobs)

	out := make(chan engine.Result[workload.Response], len(items))
	var wg sync.WaitGroup
	wg.Add(len(workers))
	for _, w := range workers {
		go func(w *Worker) {
			defer wg.Done()
			s.dispatch(ctx, w, jobs, out)
		}(w)
	}

	wg.Wait()
	close(out)

	results := make([]engine.Result[workload.Response], 0, len(items))
	for res := range out {
		results = append(results, res)
	}
	return results, nil
}

// spawn starts count workers, tearing down the partial pool when any launch
// fails. A launch failure is a batch fault.
func (s *Strategy) spawn(ctx context.Context, count int) ([]*Worker, error) {
	workers := make([]*Worker, 0, count)
	for range count {
		w, err := s.launcher.Start(ctx)
		if err != nil {
			for _, started := range workers {
				_ = started.Close()
			}
			return nil, fmt.Errorf("spawning worker pool: %w", err)
		}
		workers = append(workers, w)
	}
	return workers, nil
}

// dispatch is the host-side loop for one worker: pull items off the shared
// queue and forward them until the queue drains.
func (s *Strategy) dispatch(
	ctx context.Context,
	w *Worker,
	jobs <-chan Call,
	out chan<- engine.Result[workload.Response],
) {
	for call := range jobs {
		if cause := ctx.Err(); cause != nil {
			out <- engine.CancelledResult[workload.Response](call.ID, cause)
			continue
		}

		start := time.Now()
		reply, err := w.Call(call.ID, call.Request)
		elapsed := time.Since(start)

		res := engine.Result[workload.Response]{Index: call.ID, Duration: elapsed}
		switch {
		case err != nil && ctx.Err() != nil:
			res.Err = fmt.Errorf("%w: %v", engine.ErrCancelled, err)
		case err != nil:
			res.Err = fmt.Errorf("worker %d: %w", w.PID(), err)
		case reply.Error != "":
			res.Err = errors.New(reply.Error)
		default:
			res.Value = reply.Response
		}
		out <- res
	}
}
