package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brhoades44/batchbench/internal/procpool"
)

// newWorkerCmd is the process-pool subprocess entry point. The host
// re-executes its own binary with this command; it is not meant to be
// invoked by hand and stays out of help output.
func newWorkerCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:    "worker",
		Short:  "Run as a process-pool worker (internal)",
		Hidden: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if port <= 0 || port > 65535 {
				return fmt.Errorf("worker requires a valid --port, got %d", port)
			}
			logger.Debug().Int("port", port).Msg("starting worker process")
			return procpool.Serve(cmd.Context(), port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "loopback port to serve work calls on")
	_ = cmd.MarkFlagRequired("port")
	return cmd
}
