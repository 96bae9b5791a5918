package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fieldsync/internal/connectivity"
	"fieldsync/internal/logging"
	"fieldsync/internal/queue"
	"fieldsync/internal/reconcile"
	"fieldsync/internal/uploader"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one reconciliation pass now",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return err
			}

			store, err := queue.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			monitor := connectivity.NewProbeMonitor(cfg, logger)
			monitor.CheckNow(cmd.Context())

			manager := reconcile.NewManager(cfg, store, uploader.NewHTTPClient(cfg), monitor, logger)
			summary := manager.RunNow(cmd.Context())

			out := cmd.OutOrStdout()
			if !monitor.IsOnline() {
				fmt.Fprintln(out, "Offline; nothing attempted.")
				return nil
			}
			fmt.Fprintln(out, formatSummary(summary))
			return nil
		},
	}
}

// formatSummary renders a pass result for CLI output; run and sync share it.
func formatSummary(summary reconcile.Summary) string {
	return fmt.Sprintf("synced %d, failed %d of %d queued capture(s) in %s",
		summary.Synced, summary.Failed, summary.Total, summary.Duration.Round(summaryRound))
}
