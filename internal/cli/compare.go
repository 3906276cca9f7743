package cli

import (
	"github.com/spf13/cobra"
)

// strategiesFor returns the strategies a comparison exercises for a problem,
// in the order they are shown. The CPU comparison keeps async in the lineup
// on purpose: watching it trail sequential is the documented anti-pattern.
func strategiesFor(problem string) []string {
	if problem == problemCPU {
		return []string{strategySequential, strategyAsync, strategyProcPool}
	}
	return []string{strategySequential, strategyPool, strategyAsync, strategyProcPool}
}

func newCompareCmd() *cobra.Command {
	var problem string

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Run every applicable strategy over the same workload",
		Long: "Compare executes the same batch once per strategy, one strategy at a\n" +
			"time so runs don't contend with each other, and prints a timing table.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := buildItems(cfg, problem); err != nil {
				return err
			}

			names := strategiesFor(problem)
			rows := make([]CompareRow, 0, len(names))
			for _, name := range names {
				logger.Info().Str("strategy", name).Msg("comparison leg starting")
				report, err := executeRun(cmd.Context(), cfg, problem, name)
				if err != nil {
					rows = append(rows, CompareRow{Strategy: name, Err: err})
					continue
				}
				rows = append(rows, CompareRow{
					Strategy: report.Strategy,
					Total:    report.Total,
					Failures: report.Failures,
					Elapsed:  report.Elapsed,
				})
			}

			cmd.Println(RenderComparison(problem, rows))
			return nil
		},
	}

	cmd.Flags().StringVarP(&problem, "problem", "p", problemIO,
		"problem type: 'io' (download URLs) or 'cpu' (sum squares)")
	return cmd
}
