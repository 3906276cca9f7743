// Package cli wires the batchbench commands: timed batch runs, strategy
// comparisons, the interactive menu, and the hidden worker entry point used
// by the process-pool strategy. The packages underneath stay importable and
// side-effect free; everything user-facing lives here.
package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/brhoades44/batchbench/internal/config"
	"github.com/brhoades44/batchbench/internal/logging"
	"github.com/brhoades44/batchbench/internal/tui"
)

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// cfg is the effective configuration, resolved once in the root
// PersistentPreRunE and read by every subcommand.
var cfg *config.Config //nolint:gochecknoglobals // Set once at startup, read by subcommands

// NewRootCmd creates the root Cobra command for the batchbench CLI.
func NewRootCmd(ver string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batchbench",
		Short: "Compare concurrency strategies over batches of work",
		Long: "batchbench runs a batch of homogeneous work items (HTTP downloads or\n" +
			"CPU-bound computations) through a chosen concurrency strategy and\n" +
			"reports wall-clock timing, so the strategies can be compared on the\n" +
			"same workload.",
		Version: ver,
		Example: rootCmdExample,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setup(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Bare invocation on a terminal drops into the menu, matching
			// the original tool's behavior.
			if tui.IsTTY() {
				return runMenu(cmd)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().String("config", "", "path to config file (default ~/.batchbench/config.yaml)")
	cmd.PersistentFlags().String("log-format", "", "log output format: 'console' or 'json'")

	cmd.AddCommand(newRunCmd(), newCompareCmd(), newMenuCmd(), newWorkerCmd())
	return cmd
}

// setup resolves config and logging for the invoked command and embeds the
// logger in the command context.
func setup(cmd *cobra.Command) error {
	configPath, _ := cmd.Flags().GetString("config")
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg = loaded

	level := cfg.Log.Level
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		level = "debug"
	}
	format := cfg.Log.Format
	if f, _ := cmd.Flags().GetString("log-format"); f != "" {
		format = f
	}
	if format != "console" && format != "json" {
		return fmt.Errorf("invalid log-format %q: must be 'console' or 'json'", format)
	}

	root := logging.New(logging.Config{
		Level:  level,
		Format: format,
		Out:    cmd.ErrOrStderr(),
	})
	logger = logging.ComponentLogger(root, "cli")
	cmd.SetContext(logging.WithContext(cmd.Context(), root))

	logger.Debug().Str("command", cmd.Name()).Msg("command started")
	return nil
}

// Execute runs the CLI and returns a process exit code.
func Execute(ver string) int {
	cmd := NewRootCmd(ver)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

const rootCmdExample = `  # Download the demo sites with a 5-worker goroutine pool
  batchbench run --problem io --strategy pool --workers 5

  # Sum squares across one process per CPU
  batchbench run --problem cpu --strategy procpool

  # Run every applicable strategy on the same workload and compare
  batchbench compare --problem io

  # Interactive menu (also the default on a terminal)
  batchbench menu`
