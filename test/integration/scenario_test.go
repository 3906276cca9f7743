package integration_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brhoades44/batchbench/internal/engine"
	"github.com/brhoades44/batchbench/internal/engine/strategy"
	"github.com/brhoades44/batchbench/internal/workload"
)

// slowServer serves a small body after a fixed delay, standing in for the
// demo download sites.
func slowServer(t *testing.T, delay time.Duration) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(delay)
		_, _ = w.Write([]byte("<html>dice roll</html>"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func inProcessStrategies() map[string]engine.Strategy[workload.Request, workload.Response] {
	return map[string]engine.Strategy[workload.Request, workload.Response]{
		"sequential": strategy.NewSequential[workload.Request, workload.Response](),
		"pool":       strategy.NewPool[workload.Request, workload.Response](5),
		"async":      strategy.NewCooperative[workload.Request, workload.Response](),
	}
}

// TestIntegration_DemoDownloadScenario runs the full 160-item download
// scenario (two sites, 80 repeats) through each in-process strategy.
func TestIntegration_DemoDownloadScenario(t *testing.T) {
	srvA := slowServer(t, time.Millisecond)
	srvB := slowServer(t, time.Millisecond)
	items := workload.FetchBatch([]string{srvA.URL, srvB.URL}, 80)
	require.Len(t, items, 160)

	for name, strat := range inProcessStrategies() {
		t.Run(name, func(t *testing.T) {
			report, err := engine.Execute(context.Background(), items, workload.Factory(), strat)
			require.NoError(t, err)

			assert.Equal(t, 160, report.Total)
			assert.Equal(t, 0, report.Failures, "every download should succeed")
			assert.Equal(t, name, report.Strategy)
			assert.Positive(t, report.Elapsed)
			for _, res := range report.Results {
				assert.Positive(t, res.Value.Bytes)
			}
		})
	}
}

// TestIntegration_ComputeScenario runs the twenty sum-of-squares items and
// cross-checks every result against a direct computation.
func TestIntegration_ComputeScenario(t *testing.T) {
	const base = 100_000
	items := workload.ComputeBatch(base, 20)

	for name, strat := range inProcessStrategies() {
		t.Run(name, func(t *testing.T) {
			report, err := engine.Execute(context.Background(), items, workload.Factory(), strat)
			require.NoError(t, err)
			require.Equal(t, 0, report.Failures)

			for _, res := range report.Results {
				want := workload.SumSquares(base + int64(res.Index))
				assert.Equal(t, want, res.Value.Sum, "item %d", res.Index)
			}
		})
	}
}

// TestIntegration_PoolOutpacesSequential is the headline comparison: on
// I/O-bound work a bounded worker pool beats doing one download at a time.
// The server delay is large relative to scheduling noise so the ordering is
// stable even on a loaded machine.
func TestIntegration_PoolOutpacesSequential(t *testing.T) {
	srv := slowServer(t, 20*time.Millisecond)
	items := workload.FetchBatch([]string{srv.URL}, 40)

	seq, err := engine.Execute(context.Background(), items, workload.Factory(),
		strategy.NewSequential[workload.Request, workload.Response]())
	require.NoError(t, err)
	require.Equal(t, 0, seq.Failures)

	pool, err := engine.Execute(context.Background(), items, workload.Factory(),
		strategy.NewPool[workload.Request, workload.Response](8))
	require.NoError(t, err)
	require.Equal(t, 0, pool.Failures)

	assert.Less(t, pool.Elapsed, seq.Elapsed,
		"pool %s should beat sequential %s on I/O-bound work", pool.Elapsed, seq.Elapsed)
}

// TestIntegration_DeadlineCutsRunShort verifies that an overall deadline
// abandons the remainder of the batch without losing result coverage.
func TestIntegration_DeadlineCutsRunShort(t *testing.T) {
	srv := slowServer(t, 50*time.Millisecond)
	items := workload.FetchBatch([]string{srv.URL}, 100)

	start := time.Now()
	report, err := engine.Execute(context.Background(), items, workload.Factory(),
		strategy.NewSequential[workload.Request, workload.Response](),
		engine.WithTimeout(200*time.Millisecond))
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 10*time.Second, "the deadline must actually stop the run")
	assert.Equal(t, 100, report.Total, "abandoned items still get results")
	assert.GreaterOrEqual(t, report.Cancelled, 1)
	assert.Greater(t, report.Succeeded(), 0, "items before the deadline completed")
}
