package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "galvani",
	Short: "Galvani - circuit simulation service",
	Long: `Galvani is a simulation service built around the ngspice shared library.

It provides:
  - A thread-safe HTTP API for submitting circuits and analysis commands
  - Persistent run history with queryable results
  - Automatic batch simulation of netlist files dropped into a watched directory
  - Prometheus metrics for simulation throughput and engine contention`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
