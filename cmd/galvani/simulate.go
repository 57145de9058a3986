package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"volthaus/galvani/pkg/cli"
	"volthaus/galvani/pkg/config"
	"volthaus/galvani/pkg/results"
	"volthaus/galvani/pkg/spice"
)

var simulateFlags struct {
	command string
	format  string
}

var simulateCmd = &cobra.Command{
	Use:   "simulate <netlist-file>",
	Short: "Simulate a netlist file",
	Long: `Run one analysis command against a netlist file and print the results.

The netlist must be a self-contained circuit terminated by .end. Pass "-"
to read the netlist from standard input.

Examples:
  # Operating point analysis (default command)
  galvani simulate circuit.cir

  # Transient analysis
  galvani simulate circuit.cir --command "tran 10u 1m"

  # Full result vectors as JSON
  galvani simulate circuit.cir --format json`,
	Args: cobra.ExactArgs(1),
	RunE: simulateNetlist,
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().StringVar(&simulateFlags.command, "command", "", "analysis command (defaults to the configured default)")
	simulateCmd.Flags().StringVar(&simulateFlags.format, "format", "text", "output format: text, json")
}

func simulateNetlist(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	setupLogging(&cfg.Telemetry.Logging)

	if cfg.Engine.LibraryPath != "" {
		spice.SetLibraryPath(cfg.Engine.LibraryPath)
	}

	circuit, err := readNetlist(args[0])
	if err != nil {
		return cli.NewCommandError("simulate", err)
	}

	command := simulateFlags.command
	if command == "" {
		command = cfg.Engine.DefaultCommand
		if command == "" {
			command = config.DefaultEngineCommand
		}
	}

	record := results.New(circuit, command)
	start := time.Now()
	sim, simErr := spice.Simulate(circuit, command)
	record.Finish(sim, simErr, time.Since(start))

	if simulateFlags.format == "json" {
		formatter := cli.NewFormatter(cli.FormatJSON)
		if err := formatter.FormatTo(os.Stdout, record); err != nil {
			return cli.NewCommandError("simulate", err)
		}
		if simErr != nil {
			os.Exit(1)
		}
		return nil
	}

	if simErr != nil {
		fmt.Fprintf(os.Stderr, "✗ Simulation failed (%s): %v\n", record.Status, simErr)
		if record.Stderr != "" {
			fmt.Fprintln(os.Stderr, record.Stderr)
		}
		os.Exit(1)
	}

	fmt.Printf("✓ Simulation complete (%s, %dms)\n", command, record.DurationMS)
	if record.Stderr != "" {
		fmt.Fprintln(os.Stderr, record.Stderr)
	}

	names := make([]string, 0, len(record.Vectors))
	for name := range record.Vectors {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("\nVectors (%d):\n", len(names))
	for _, name := range names {
		vec := record.Vectors[name]
		fmt.Printf("  %-20s %-12s length=%d", name, vec.DataType, vec.Values.Len())
		switch {
		case vec.Values.IsComplex() && vec.Values.Len() == 1:
			fmt.Printf(" value=%g", vec.Values.Complex[0])
		case vec.Values.Len() == 1:
			fmt.Printf(" value=%g", vec.Values.Real[0])
		}
		fmt.Println()
	}
	return nil
}

// readNetlist reads the netlist from a file, or stdin when path is "-".
func readNetlist(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read netlist from stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read netlist: %w", err)
	}
	return string(data), nil
}
