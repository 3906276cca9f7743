package procpool

import (
	"context"
	"encoding/json"
	"net"
	"os"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brhoades44/batchbench/internal/workload"
)

// TestHelperWorker is not a test: it is the worker-process entry point for
// the end-to-end tests below, which re-exec the test binary with
// "-test.run=^TestHelperWorker$ -- <port>" in place of an installed binary.
func TestHelperWorker(t *testing.T) {
	port := helperWorkerPort()
	if port == 0 {
		t.Skip("only runs as a re-exec worker helper")
	}
	if err := Serve(context.Background(), port); err != nil {
		t.Fatalf("helper worker: %v", err)
	}
}

// helperWorkerPort extracts the port argument after "--", or 0 when the
// binary is running as a normal test process.
func helperWorkerPort() int {
	for i, arg := range os.Args {
		if arg == "--" && i+1 < len(os.Args) {
			port, err := strconv.Atoi(os.Args[i+1])
			if err != nil {
				return 0
			}
			return port
		}
	}
	return 0
}

func useHelperWorker(t *testing.T) {
	t.Helper()
	restore := workerArgs
	workerArgs = func(port int) (string, []string, error) {
		return os.Args[0], []string{"-test.run=^TestHelperWorker$", "--", strconv.Itoa(port)}, nil
	}
	t.Cleanup(func() { workerArgs = restore })
}

func TestLauncherStartAndCall(t *testing.T) {
	useHelperWorker(t)

	l := NewLauncher()
	w, err := l.Start(context.Background())
	require.NoError(t, err)
	defer w.Close() //nolint:errcheck

	assert.Positive(t, w.PID())

	reply, err := w.Call(7, workload.Request{Kind: workload.KindSumSquares, Number: 10})
	require.NoError(t, err)
	assert.Equal(t, 7, reply.ID)
	assert.Equal(t, workload.SumSquares(10), reply.Response.Sum)
}

func TestLauncherMissingBinary(t *testing.T) {
	restore := workerArgs
	workerArgs = func(port int) (string, []string, error) {
		return "/nonexistent/worker-binary", []string{"--port=" + strconv.Itoa(port)}, nil
	}
	t.Cleanup(func() { workerArgs = restore })

	l := NewLauncher()
	_, err := l.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "starting worker")
}

func TestStrategyEndToEnd(t *testing.T) {
	useHelperWorker(t)

	strat := New(2)
	items := workload.ComputeBatch(10, 8)
	results, err := strat.Run(context.Background(), items, workload.Factory())
	require.NoError(t, err)
	require.Len(t, results, 8)

	seen := make(map[int]bool, len(results))
	for _, res := range results {
		require.NoError(t, res.Err)
		require.False(t, seen[res.Index])
		seen[res.Index] = true
		assert.Equal(t, workload.SumSquares(10+int64(res.Index)), res.Value.Sum)
	}
}

func TestStrategyEndToEndItemFailure(t *testing.T) {
	useHelperWorker(t)

	strat := New(1)
	items := []workload.Request{
		{Kind: workload.KindSumSquares, Number: 3},
		{Kind: workload.KindFetch}, // invalid: no URL
	}
	results, err := strat.Run(context.Background(), items, workload.Factory())
	require.NoError(t, err, "a per-item failure is not a batch fault")
	require.Len(t, results, 2)

	for _, res := range results {
		switch res.Index {
		case 0:
			require.NoError(t, res.Err)
			assert.Equal(t, uint64(5), res.Value.Sum)
		case 1:
			require.Error(t, res.Err)
			assert.Contains(t, res.Err.Error(), "needs a url")
		}
	}
}

func TestStrategyDeadlineInterruptsWorkers(t *testing.T) {
	useHelperWorker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	// Heavy enough per item that two workers cannot finish twelve of them
	// before the deadline.
	items := make([]workload.Request, 12)
	for i := range items {
		items[i] = workload.Request{Kind: workload.KindSumSquares, Number: 200_000_000}
	}

	strat := New(2)
	start := time.Now()
	results, err := strat.Run(ctx, items, workload.Factory())
	require.NoError(t, err, "a deadline is not a batch fault")

	assert.Less(t, time.Since(start), 15*time.Second,
		"poisoned connections must unblock pending calls promptly")
	require.Len(t, results, 12)

	seen := make(map[int]bool, len(results))
	cancelled := 0
	for _, res := range results {
		require.False(t, seen[res.Index])
		seen[res.Index] = true
		if res.Cancelled() {
			cancelled++
		}
	}
	assert.GreaterOrEqual(t, cancelled, 1, "items past the deadline surface as cancelled")
}

func TestStrategySpawnsOnePerItemAtMost(t *testing.T) {
	useHelperWorker(t)

	var launches atomic.Int32
	helperArgs := workerArgs
	workerArgs = func(port int) (string, []string, error) {
		launches.Add(1)
		return helperArgs(port)
	}
	t.Cleanup(func() { workerArgs = helperArgs })

	strat := New(8)
	items := workload.ComputeBatch(5, 3)
	results, err := strat.Run(context.Background(), items, workload.Factory())
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, int32(3), launches.Load(),
		"the pool shrinks to the batch size; no worker process sits idle")
}

func TestStrategyDefaultWorkerCount(t *testing.T) {
	assert.Positive(t, New(0).Workers)
	assert.Equal(t, 3, New(3).Workers)
}

func TestWorkerCallIDMismatch(t *testing.T) {
	host, remote := net.Pipe()
	defer host.Close()
	defer remote.Close()

	w := &Worker{
		conn: host,
		enc:  json.NewEncoder(host),
		dec:  json.NewDecoder(host),
	}

	go func() {
		dec := json.NewDecoder(remote)
		enc := json.NewEncoder(remote)
		var call Call
		if dec.Decode(&call) == nil {
			_ = enc.Encode(Reply{ID: call.ID + 1})
		}
	}()

	_, err := w.Call(1, workload.Request{Kind: workload.KindSumSquares, Number: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reply 2")
}
