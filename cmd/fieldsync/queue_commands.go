package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"fieldsync/internal/queue"
)

var countPrinter = message.NewPrinter(language.English)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the capture queue",
	}

	queueCmd.AddCommand(newQueueAddCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueCountCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))

	return queueCmd
}

func newQueueAddCommand(ctx *commandContext) *cobra.Command {
	var (
		latitude  float64
		longitude float64
		accuracy  float64
	)

	cmd := &cobra.Command{
		Use:   "add <image-file>",
		Short: "Enqueue an image file for upload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			payload, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read image file: %w", err)
			}
			store, err := queue.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			var location queue.Location
			if cmd.Flags().Changed("lat") {
				location.Latitude = &latitude
			}
			if cmd.Flags().Changed("lon") {
				location.Longitude = &longitude
			}
			if cmd.Flags().Changed("accuracy") {
				location.AccuracyM = &accuracy
			}

			capture, err := store.Enqueue(cmd.Context(), queue.NewCapture{
				FileName: filepath.Base(args[0]),
				Payload:  payload,
				Location: location,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Queued capture %d (%s, %s)\n",
				capture.ID, capture.FileName, humanize.Bytes(uint64(len(capture.Payload))))
			return nil
		},
	}

	cmd.Flags().Float64Var(&latitude, "lat", 0, "Latitude of the capture")
	cmd.Flags().Float64Var(&longitude, "lon", 0, "Longitude of the capture")
	cmd.Flags().Float64Var(&accuracy, "accuracy", 0, "GPS accuracy in meters")
	return cmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List queued captures",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := queue.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			captures, err := store.List(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(captures) == 0 {
				fmt.Fprintln(out, "Queue is empty.")
				return nil
			}

			rows := make([][]string, 0, len(captures))
			for _, capture := range captures {
				rows = append(rows, []string{
					strconv.FormatInt(capture.ID, 10),
					capture.FileName,
					humanize.Bytes(uint64(len(capture.Payload))),
					formatLocation(capture.Location),
					capture.CreatedAt.Local().Format(time.RFC3339),
					strconv.Itoa(capture.RetryCount),
				})
			}

			fmt.Fprintln(out, renderTable(
				[]string{"ID", "File", "Size", "Location", "Queued", "Retries"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft, alignRight},
			))
			fmt.Fprintln(out, countPrinter.Sprintf("%d capture(s) pending upload", len(captures)))
			return nil
		},
	}
}

func newQueueCountCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of queued captures",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := queue.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			count, err := store.Count(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), countPrinter.Sprintf("%d", count))
			return nil
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all queued captures",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return fmt.Errorf("refusing to clear the queue without --yes")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := queue.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), countPrinter.Sprintf("Removed %d capture(s)", removed))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&confirmed, "yes", "y", false, "Confirm clearing the queue")
	return cmd
}

func formatLocation(loc queue.Location) string {
	if !loc.HasFix() {
		return "-"
	}
	lat, lon := "?", "?"
	if loc.Latitude != nil {
		lat = strconv.FormatFloat(*loc.Latitude, 'f', 5, 64)
	}
	if loc.Longitude != nil {
		lon = strconv.FormatFloat(*loc.Longitude, 'f', 5, 64)
	}
	formatted := lat + "," + lon
	if loc.AccuracyM != nil {
		formatted += fmt.Sprintf(" ±%.0fm", *loc.AccuracyM)
	}
	return formatted
}
