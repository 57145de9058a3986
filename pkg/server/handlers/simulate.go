package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"volthaus/galvani/pkg/results"
	"volthaus/galvani/pkg/results/storage"
	"volthaus/galvani/pkg/spice"
	"volthaus/galvani/pkg/telemetry/metrics"
)

// maxRequestBody caps the size of a simulation request body (4MB). Netlists
// are text; anything larger is almost certainly a mistake.
const maxRequestBody = 4 << 20

// SimulateHandler handles POST /v1/simulate: it runs one simulation, stores
// the outcome, and returns the full result.
type SimulateHandler struct {
	simulator      spice.Simulator
	storage        storage.Storage
	metrics        *metrics.Collector
	defaultCommand string
	logger         *slog.Logger
}

// NewSimulateHandler creates a new simulation handler.
func NewSimulateHandler(sim spice.Simulator, store storage.Storage, collector *metrics.Collector, defaultCommand string) *SimulateHandler {
	return &SimulateHandler{
		simulator:      sim,
		storage:        store,
		metrics:        collector,
		defaultCommand: defaultCommand,
		logger:         slog.Default().With("component", "server.simulate"),
	}
}

// ServeHTTP implements http.Handler.
func (h *SimulateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, ErrorTypeInvalidRequest, "method not allowed", "")
		return
	}

	var req SimulateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorTypeInvalidRequest, "invalid request body: "+err.Error(), "")
		return
	}
	if req.Circuit == "" {
		writeError(w, http.StatusBadRequest, ErrorTypeInvalidRequest, "circuit is required", "")
		return
	}
	command := req.Command
	if command == "" {
		command = h.defaultCommand
	}

	record := results.New(req.Circuit, command)
	start := time.Now()
	sim, err := h.simulator.Simulate(r.Context(), req.Circuit, command)
	record.Finish(sim, err, time.Since(start))

	h.store(r.Context(), record)
	h.metrics.RecordSimulation(record.Status, time.Since(start), len(record.Vectors))

	if err != nil {
		h.writeSimulationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, &SimulateResponse{
		ID:         record.ID,
		Command:    command,
		DurationMS: record.DurationMS,
		Stdout:     sim.Stdout,
		Stderr:     sim.Stderr,
		Vectors:    sim.Vectors,
	})
}

// store persists the record; storage failures are logged, not returned, so
// a broken database does not hide an otherwise complete simulation result.
func (h *SimulateHandler) store(ctx context.Context, record *results.Record) {
	if h.storage == nil {
		return
	}
	if err := h.storage.Store(ctx, record); err != nil {
		h.logger.Error("failed to store run", "run_id", record.ID, "error", err)
		return
	}
	h.metrics.RecordRunStored()
}

// writeSimulationError maps simulation failures to HTTP status codes.
func (h *SimulateHandler) writeSimulationError(w http.ResponseWriter, err error) {
	if errors.Is(err, spice.ErrInvalidStringEncoding) {
		writeError(w, http.StatusBadRequest, ErrorTypeInvalidRequest, err.Error(), "")
		return
	}
	var cmdErr *spice.InvalidCommandError
	if errors.As(err, &cmdErr) {
		writeError(w, http.StatusBadRequest, ErrorTypeInvalidRequest, err.Error(), "")
		return
	}
	var circErr *spice.InvalidCircuitError
	if errors.As(err, &circErr) {
		writeError(w, http.StatusUnprocessableEntity, ErrorTypeInvalidCircuit, "circuit rejected", circErr.Log)
		return
	}
	var ue *spice.UnknownError
	if errors.As(err, &ue) {
		writeError(w, http.StatusInternalServerError, ErrorTypeSimulation, "simulation failed", ue.Log)
		return
	}
	writeError(w, http.StatusInternalServerError, ErrorTypeInternal, err.Error(), "")
}
