package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brhoades44/batchbench/internal/config"
	"github.com/brhoades44/batchbench/internal/engine"
	"github.com/brhoades44/batchbench/internal/engine/strategy"
	"github.com/brhoades44/batchbench/internal/procpool"
	"github.com/brhoades44/batchbench/internal/workload"
)

// Problem names accepted by --problem.
const (
	problemIO  = "io"
	problemCPU = "cpu"
)

// Strategy names accepted by --strategy.
const (
	strategySequential = "sequential"
	strategyPool       = "pool"
	strategyAsync      = "async"
	strategyProcPool   = "procpool"
)

// runFlags carries the per-run overrides on top of the loaded config.
type runFlags struct {
	problem     string
	strategy    string
	workers     int
	procWorkers int
	repeat      int
	count       int
	sites       []string
	timeout     string
}

func newRunCmd() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one timed batch run",
		Long: "Run executes the selected problem's batch through one concurrency\n" +
			"strategy and prints item count, failure count, and elapsed wall-clock\n" +
			"time.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			applyFlagOverrides(cmd, &flags, cfg)

			report, err := executeRun(cmd.Context(), cfg, flags.problem, flags.strategy)
			if err != nil {
				return err
			}
			cmd.Println(RenderReport(report, flags.problem))
			return nil
		},
	}

	cmd.Flags().StringVarP(&flags.problem, "problem", "p", problemIO,
		"problem type: 'io' (download URLs) or 'cpu' (sum squares)")
	cmd.Flags().StringVarP(&flags.strategy, "strategy", "s", strategySequential,
		"strategy: 'sequential', 'pool', 'async', or 'procpool'")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "goroutine pool size (overrides config)")
	cmd.Flags().IntVar(&flags.procWorkers, "proc-workers", -1,
		"process pool size, 0 means CPU count (overrides config)")
	cmd.Flags().IntVar(&flags.repeat, "repeat", 0, "times to repeat the site list (overrides config)")
	cmd.Flags().IntVar(&flags.count, "count", 0, "number of CPU work items (overrides config)")
	cmd.Flags().StringSliceVar(&flags.sites, "sites", nil, "override the download URL list")
	cmd.Flags().String("timeout", "", "overall run deadline, e.g. '30s' (overrides config)")

	return cmd
}

// applyFlagOverrides folds explicitly set flags into the effective config.
// Precedence: flag > config file > default.
func applyFlagOverrides(cmd *cobra.Command, flags *runFlags, cfg *config.Config) {
	if flags.workers > 0 {
		cfg.Run.Workers = flags.workers
	}
	if flags.procWorkers >= 0 {
		cfg.Run.ProcWorkers = flags.procWorkers
	}
	if flags.repeat > 0 {
		cfg.IO.Repeat = flags.repeat
	}
	if flags.count > 0 {
		cfg.CPU.Count = flags.count
	}
	if len(flags.sites) > 0 {
		cfg.IO.Sites = flags.sites
	}
	if t, _ := cmd.Flags().GetString("timeout"); t != "" {
		cfg.Run.Timeout = t
	}
}

// buildItems expands the configured scenario for a problem into work items.
func buildItems(cfg *config.Config, problem string) ([]workload.Request, error) {
	switch problem {
	case problemIO:
		return workload.FetchBatch(cfg.IO.Sites, cfg.IO.Repeat), nil
	case problemCPU:
		return workload.ComputeBatch(cfg.CPU.Base, cfg.CPU.Count), nil
	default:
		return nil, fmt.Errorf("unknown problem %q: must be 'io' or 'cpu'", problem)
	}
}

// buildStrategy constructs the named strategy sized from config.
func buildStrategy(cfg *config.Config, name string) (engine.Strategy[workload.Request, workload.Response], error) {
	switch name {
	case strategySequential:
		return strategy.NewSequential[workload.Request, workload.Response](), nil
	case strategyPool:
		return strategy.NewPool[workload.Request, workload.Response](cfg.Run.Workers), nil
	case strategyAsync:
		return strategy.NewCooperative[workload.Request, workload.Response](), nil
	case strategyProcPool:
		return procpool.New(cfg.Run.ProcWorkers), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q: must be 'sequential', 'pool', 'async', or 'procpool'", name)
	}
}

// executeRun runs one problem/strategy pairing and returns the report.
// Deliberately slow pairings (async or pool on CPU work, procpool on I/O
// work) still run, with a warning so the numbers aren't mistaken for a bug.
func executeRun(
	ctx context.Context,
	cfg *config.Config,
	problem, strategyName string,
) (*engine.Report[workload.Response], error) {
	items, err := buildItems(cfg, problem)
	if err != nil {
		return nil, err
	}
	strat, err := buildStrategy(cfg, strategyName)
	if err != nil {
		return nil, err
	}

	warnAntiPattern(problem, strategyName)

	var opts []engine.Option
	timeout, err := cfg.RunTimeout()
	if err != nil {
		return nil, err
	}
	if timeout > 0 {
		opts = append(opts, engine.WithTimeout(timeout))
	}

	return engine.Execute(ctx, items, workload.Factory(), strat, opts...)
}

func warnAntiPattern(problem, strategyName string) {
	switch {
	case problem == problemCPU && (strategyName == strategyAsync || strategyName == strategyPool):
		logger.Warn().
			Str("problem", problem).
			Str("strategy", strategyName).
			Msg("CPU-bound work gains nothing from tasks or threads; expect this to trail sequential")
	case problem == problemIO && strategyName == strategyProcPool:
		logger.Warn().
			Str("problem", problem).
			Str("strategy", strategyName).
			Msg("process setup overhead dominates I/O-bound work; expect pool or async to win")
	}
}
