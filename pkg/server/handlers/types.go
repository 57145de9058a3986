package handlers

import (
	"encoding/json"
	"net/http"

	"volthaus/galvani/pkg/spice"
)

// SimulateRequest is the body of POST /v1/simulate.
type SimulateRequest struct {
	// Circuit is the netlist to simulate. Required.
	Circuit string `json:"circuit"`

	// Command is the analysis command. Optional; the server's configured
	// default command is used when empty.
	Command string `json:"command,omitempty"`
}

// SimulateResponse is the body of a successful POST /v1/simulate.
type SimulateResponse struct {
	// ID is the stored run's identifier, usable with GET /v1/runs/{id}.
	ID string `json:"id"`

	// Command is the analysis command that was executed.
	Command string `json:"command"`

	// DurationMS is the wall-clock duration of the run in milliseconds.
	DurationMS int64 `json:"duration_ms"`

	// Stdout and Stderr are the engine's diagnostic streams.
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`

	// Vectors holds the result data by vector name.
	Vectors map[string]spice.VectorInfo `json:"vectors"`
}

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains detailed error information.
type ErrorDetail struct {
	// Message is a human-readable error message.
	Message string `json:"message"`

	// Type categorizes the error.
	// Possible values: "invalid_request_error", "invalid_circuit_error",
	// "simulation_error", "not_found", "internal_error"
	Type string `json:"type"`

	// Log carries the engine's diagnostic output when available.
	Log string `json:"log,omitempty"`
}

// Error type values used in ErrorDetail.Type.
const (
	ErrorTypeInvalidRequest = "invalid_request_error"
	ErrorTypeInvalidCircuit = "invalid_circuit_error"
	ErrorTypeSimulation     = "simulation_error"
	ErrorTypeNotFound       = "not_found"
	ErrorTypeInternal       = "internal_error"
)

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, errType, message, log string) {
	writeJSON(w, status, &ErrorResponse{Error: ErrorDetail{
		Message: message,
		Type:    errType,
		Log:     log,
	}})
}
