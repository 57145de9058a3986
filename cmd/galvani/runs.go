package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"volthaus/galvani/pkg/cli"
	"volthaus/galvani/pkg/results"
	"volthaus/galvani/pkg/results/storage"
)

var runsFlags struct {
	limit     int
	status    string
	timeRange string
	format    string
}

var runsCmd = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "Query stored simulation runs",
	Long: `List stored simulation runs, or show one run in full when a run ID is
given. Reads the store configured in the config file; the server does not
need to be running.

Examples:
  # Most recent runs
  galvani runs

  # Failed runs only
  galvani runs --status error --limit 20

  # Runs in a time range
  galvani runs --time-range "2026-08-01T00:00:00Z/2026-08-29T00:00:00Z"

  # One run with its result vectors
  galvani runs 9f3c2a1e-... --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: queryRuns,
}

func init() {
	rootCmd.AddCommand(runsCmd)

	runsCmd.Flags().IntVar(&runsFlags.limit, "limit", 20, "maximum number of runs to list")
	runsCmd.Flags().StringVar(&runsFlags.status, "status", "", "filter by status: ok, invalid_input, invalid_circuit, error")
	runsCmd.Flags().StringVar(&runsFlags.timeRange, "time-range", "", "filter by time range (RFC3339 interval: start/end)")
	runsCmd.Flags().StringVar(&runsFlags.format, "format", "text", "output format: text, json")
}

func queryRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	setupLogging(&cfg.Telemetry.Logging)

	store, err := openStorage(&cfg.Storage)
	if err != nil {
		return cli.NewCommandError("runs", err)
	}
	defer store.Close()

	ctx := context.Background()

	if len(args) == 1 {
		record, err := store.Get(ctx, args[0])
		if err != nil {
			return cli.NewCommandError("runs", err)
		}
		return printRun(record)
	}

	query := &storage.Query{
		Limit:  runsFlags.limit,
		Status: runsFlags.status,
	}
	if runsFlags.timeRange != "" {
		since, until, err := parseTimeRange(runsFlags.timeRange)
		if err != nil {
			return cli.NewCommandError("runs", err)
		}
		query.Since = since
		query.Until = until
	}

	records, err := store.List(ctx, query)
	if err != nil {
		return cli.NewCommandError("runs", err)
	}

	if runsFlags.format == "json" {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, records)
	}

	if len(records) == 0 {
		fmt.Println("No runs found.")
		return nil
	}
	fmt.Printf("%-36s  %-24s  %-15s  %-8s  %s\n", "ID", "CREATED", "STATUS", "TIME", "COMMAND")
	for _, record := range records {
		fmt.Printf("%-36s  %-24s  %-15s  %6dms  %s\n",
			record.ID,
			record.CreatedAt.Format(time.RFC3339),
			record.Status,
			record.DurationMS,
			record.Command,
		)
	}
	return nil
}

func printRun(record *results.Record) error {
	if runsFlags.format == "json" {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, record)
	}

	fmt.Printf("ID:       %s\n", record.ID)
	fmt.Printf("Created:  %s\n", record.CreatedAt.Format(time.RFC3339))
	fmt.Printf("Status:   %s\n", record.Status)
	fmt.Printf("Command:  %s\n", record.Command)
	fmt.Printf("Duration: %dms\n", record.DurationMS)
	if record.Error != "" {
		fmt.Printf("Error:    %s\n", record.Error)
	}
	if len(record.Vectors) > 0 {
		fmt.Printf("Vectors:  %d\n", len(record.Vectors))
	}
	return nil
}

// parseTimeRange parses an RFC3339 interval of the form start/end.
func parseTimeRange(s string) (since, until time.Time, err error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid time range format (expected: start/end)")
	}
	since, err = time.Parse(time.RFC3339, parts[0])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start time: %w", err)
	}
	until, err = time.Parse(time.RFC3339, parts[1])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end time: %w", err)
	}
	return since, until, nil
}
