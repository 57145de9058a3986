package handlers

import (
	"net/http"
	"time"
)

// HealthHandler handles health check requests for liveness probes.
type HealthHandler struct{}

// NewHealthHandler creates a new health check handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// ServeHTTP implements http.Handler for liveness checks.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	})
}

// ReadyHandler handles readiness check requests. The service is ready when
// its readiness probe function reports no error; the probe typically checks
// that result storage is reachable.
type ReadyHandler struct {
	probe func() error
}

// NewReadyHandler creates a new readiness check handler. A nil probe means
// always ready.
func NewReadyHandler(probe func() error) *ReadyHandler {
	return &ReadyHandler{probe: probe}
}

// ServeHTTP implements http.Handler for readiness checks.
func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := "ready"
	statusCode := http.StatusOK
	var detail string
	if h.probe != nil {
		if err := h.probe(); err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			detail = err.Error()
		}
	}

	body := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Unix(),
	}
	if detail != "" {
		body["detail"] = detail
	}
	writeJSON(w, statusCode, body)
}
