package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fieldsync/internal/preflight"
	"fieldsync/internal/queue"
)

const summaryRound = time.Millisecond

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue depth and environment health",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			rows := make([][]string, 0, 4)
			for _, result := range preflight.CheckAll(cmd.Context(), cfg) {
				rows = append(rows, []string{result.Name, passMark(result.Passed), result.Detail})
			}

			store, err := queue.Open(cfg)
			if err != nil {
				rows = append(rows, []string{"Queue database", passMark(false), err.Error()})
				fmt.Fprintln(out, renderTable(
					[]string{"Check", "OK", "Detail"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft},
				))
				return nil
			}
			defer store.Close()

			health, healthErr := store.CheckHealth(cmd.Context())
			detail := fmt.Sprintf("%s (%d pending)", health.DBPath, health.PendingCaptures)
			if healthErr != nil {
				detail = health.Error
			}
			rows = append(rows, []string{"Queue database", passMark(healthErr == nil), detail})

			fmt.Fprintln(out, renderTable(
				[]string{"Check", "OK", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func passMark(passed bool) string {
	if passed {
		return "yes"
	}
	return "no"
}
