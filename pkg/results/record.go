package results

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"volthaus/galvani/pkg/spice"
)

// Run states recorded after a simulation finishes.
const (
	// StatusOK means the simulation completed and produced vectors.
	StatusOK = "ok"

	// StatusInvalidInput means the circuit or command was rejected before
	// reaching the engine (encoding, empty input, forbidden directives).
	StatusInvalidInput = "invalid_input"

	// StatusInvalidCircuit means the engine refused to parse the circuit.
	StatusInvalidCircuit = "invalid_circuit"

	// StatusError covers every other failure, including engine command
	// errors and storage-independent internal faults.
	StatusError = "error"
)

// Record is one stored simulation run: the inputs, the outcome, and (for
// successful runs) the full result vectors.
type Record struct {
	// ID uniquely identifies this run.
	ID string `json:"id"`

	// CreatedAt is when the run started, in UTC.
	CreatedAt time.Time `json:"created_at"`

	// Circuit is the netlist that was simulated.
	Circuit string `json:"circuit"`

	// Command is the analysis command that was executed.
	Command string `json:"command"`

	// Status is one of the Status* constants.
	Status string `json:"status"`

	// Error is the failure message when Status is not StatusOK.
	Error string `json:"error,omitempty"`

	// Stdout and Stderr are the engine's diagnostic streams for this run.
	Stdout string `json:"stdout,omitempty"`
	Stderr string `json:"stderr,omitempty"`

	// DurationMS is the wall-clock duration of the run in milliseconds.
	DurationMS int64 `json:"duration_ms"`

	// Vectors holds the result data for successful runs.
	Vectors map[string]spice.VectorInfo `json:"vectors,omitempty"`
}

// New creates a Record for a run that is about to execute. The outcome
// fields are filled in by Finish.
func New(circuit, command string) *Record {
	return &Record{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Circuit:   circuit,
		Command:   command,
	}
}

// Finish records the outcome of the run: the result on success, the
// classified failure otherwise. It returns the record for chaining.
func (r *Record) Finish(sim *spice.Simulation, err error, elapsed time.Duration) *Record {
	r.DurationMS = elapsed.Milliseconds()

	if err == nil {
		r.Status = StatusOK
		if sim != nil {
			r.Stdout = sim.Stdout
			r.Stderr = sim.Stderr
			r.Vectors = sim.Vectors
		}
		return r
	}

	r.Status = classify(err)
	r.Error = err.Error()

	var ice *spice.InvalidCircuitError
	if errors.As(err, &ice) {
		r.Stderr = ice.Log
	}
	var ue *spice.UnknownError
	if errors.As(err, &ue) {
		r.Stderr = ue.Log
	}

	return r
}

// classify maps a simulation error to a record status.
func classify(err error) string {
	if errors.Is(err, spice.ErrInvalidStringEncoding) {
		return StatusInvalidInput
	}
	var cmdErr *spice.InvalidCommandError
	if errors.As(err, &cmdErr) {
		return StatusInvalidInput
	}
	var circErr *spice.InvalidCircuitError
	if errors.As(err, &circErr) {
		return StatusInvalidCircuit
	}
	return StatusError
}
