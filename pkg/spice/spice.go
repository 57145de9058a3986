package spice

import (
	"context"
	"fmt"
)

// Simulate parses a circuit and executes one analysis command against the
// shared engine, returning the complete results.
//
// The circuit must be a self-contained netlist terminated by .end; the
// command is an analysis directive such as "op", "tran 10u 1m" or
// "ac dec 10 1 100k". Simulate blocks until the run completes and is safe
// to call from any goroutine; runs execute one at a time in lock-
// acquisition order.
//
// Validation failures (ErrInvalidStringEncoding, *InvalidCircuitError,
// *InvalidCommandError) are reported without touching the engine. Engine
// rejections are reported as *InvalidCircuitError or *UnknownError with
// the engine's error log attached. An unrecoverable engine fault panics.
func Simulate(circuit, command string) (*Simulation, error) {
	// Validate before any shared state is involved: bad input must not
	// cost a lock acquisition, or even engine initialization.
	if err := CheckCircuit(circuit); err != nil {
		return nil, err
	}
	if err := CheckCommand(command); err != nil {
		return nil, err
	}

	e, err := shared()
	if err != nil {
		return nil, fmt.Errorf("spice: initializing engine: %w", err)
	}
	return e.run(circuit, command)
}

// Simulator runs circuit simulations. It exists so that services built on
// this package (HTTP handlers, batch processing) can substitute a fake in
// tests.
type Simulator interface {
	// Simulate runs one circuit/command pair. The context is checked
	// before the run starts; a run in progress cannot be interrupted.
	Simulate(ctx context.Context, circuit, command string) (*Simulation, error)
}

// Shared returns a Simulator backed by the process-wide engine.
func Shared() Simulator { return sharedSimulator{} }

type sharedSimulator struct{}

func (sharedSimulator) Simulate(ctx context.Context, circuit, command string) (*Simulation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Simulate(circuit, command)
}
