package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"fieldsync/internal/connectivity"
	"fieldsync/internal/logging"
	"fieldsync/internal/queue"
	"fieldsync/internal/reconcile"
	"fieldsync/internal/uploader"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the reconciliation engine until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return err
			}

			// One engine per data directory; a second instance would race on
			// the queue database and double-deliver captures.
			lockPath := filepath.Join(cfg.Paths.DataDir, "fieldsync.lock")
			lock := flock.New(lockPath)
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("failed to acquire instance lock %s: %w", lockPath, err)
			}
			if !locked {
				return fmt.Errorf("another fieldsync instance is already running (lock held on %s)", lockPath)
			}
			defer lock.Unlock()

			store, err := queue.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			monitor := connectivity.NewProbeMonitor(cfg, logger)
			manager := reconcile.NewManager(cfg, store, uploader.NewHTTPClient(cfg), monitor, logger,
				reconcile.WithSummaryHook(func(summary reconcile.Summary) {
					if summary.Total == 0 {
						return
					}
					fmt.Fprintln(out, formatSummary(summary))
				}),
			)

			if err := manager.Start(runCtx); err != nil {
				return err
			}
			if err := monitor.Start(runCtx); err != nil {
				manager.Stop()
				return err
			}

			pending, _ := store.Count(runCtx)
			fmt.Fprintln(out, countPrinter.Sprintf(
				"fieldsync running (%d capture(s) pending); press Ctrl+C to stop", pending))

			<-runCtx.Done()

			monitor.Stop()
			manager.Stop()

			status := manager.Status(context.Background())
			if status.LastSummary != nil {
				fmt.Fprintln(out, "last pass: "+formatSummary(*status.LastSummary))
			}
			fmt.Fprintln(out, countPrinter.Sprintf(
				"fieldsync stopped (%d capture(s) still pending)", status.Pending))
			return nil
		},
	}
}
