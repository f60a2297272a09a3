package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newRunCmd creates and configures the 'run' subcommand. One invocation
// performs one complete ingestion run: every source adapter is collected
// concurrently and the merged dataset is written back to disk.
func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Collects every source once and updates the dataset",
		Long: `Runs every configured source adapter concurrently, each under its own
time budget, and merges the results into the persisted dataset. A failing
source records its error without blocking the others; only run-level
problems (an unreadable dataset file, a failed write) exit non-zero.`,

		RunE: runIngestion,
	}
}

func runIngestion(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary, err := appInstance.Runner().Run(ctx)
	if err != nil {
		return fmt.Errorf("ingestion run: %w", err)
	}

	appInstance.Logger.Info("run complete",
		zap.String("run_id", summary.RunID),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
	)
	return nil
}
