package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"volthaus/galvani/pkg/cli"
	"volthaus/galvani/pkg/spice"
)

var checkFlags struct {
	command string
}

var checkCmd = &cobra.Command{
	Use:   "check <netlist-file>...",
	Short: "Check netlist files without simulating them",
	Long: `Validate netlist files against the same rules the server applies before
a simulation runs. The engine library is never loaded; this command works
on machines without ngspice installed.

Each file is checked for valid encoding, a .end terminator, and forbidden
control directives. With --command, the analysis command is checked too.

Examples:
  # Check a single netlist
  galvani check circuit.cir

  # Check several netlists and an analysis command
  galvani check *.cir --command "tran 10u 1m"`,
	Args: cobra.MinimumNArgs(1),
	RunE: checkNetlists,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkFlags.command, "command", "", "analysis command to check")
}

func checkNetlists(cmd *cobra.Command, args []string) error {
	failed := 0

	if checkFlags.command != "" {
		if err := spice.CheckCommand(checkFlags.command); err != nil {
			fmt.Printf("✗ command %q: %v\n", checkFlags.command, err)
			failed++
		} else {
			fmt.Printf("✓ command %q\n", checkFlags.command)
		}
	}

	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return cli.NewCommandError("check", err)
		}
		if err := spice.CheckCircuit(string(data)); err != nil {
			fmt.Printf("✗ %s: %v\n", path, err)
			failed++
			continue
		}
		fmt.Printf("✓ %s\n", path)
	}

	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	return nil
}
