// Galvani is a simulation service built around the ngspice shared library.
//
// It exposes circuit simulation over a thread-safe HTTP API, records every
// run in a queryable store, and can watch a directory for netlist files to
// simulate automatically.
//
// Usage:
//
//	# Start the server with default configuration
//	galvani run
//
//	# Start with a custom configuration file
//	galvani run --config /path/to/config.yaml
//
//	# Simulate a netlist from the command line
//	galvani simulate circuit.cir --command "tran 10u 1m"
//
//	# Check a netlist without running it
//	galvani check circuit.cir
//
//	# Show version information
//	galvani version
package main

func main() {
	Execute()
}
