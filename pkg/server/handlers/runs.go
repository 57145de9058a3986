package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"volthaus/galvani/pkg/results/storage"
)

// maxListLimit caps the limit query parameter for run listings.
const maxListLimit = 1000

// RunsHandler handles GET /v1/runs (list) and GET /v1/runs/{id} (fetch).
type RunsHandler struct {
	storage storage.Storage
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(store storage.Storage) *RunsHandler {
	return &RunsHandler{storage: store}
}

// ServeHTTP implements http.Handler.
func (h *RunsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, ErrorTypeInvalidRequest, "method not allowed", "")
		return
	}
	if h.storage == nil {
		writeError(w, http.StatusNotFound, ErrorTypeNotFound, "run storage is disabled", "")
		return
	}

	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/runs"), "/")
	if id == "" {
		h.list(w, r)
		return
	}
	h.get(w, r, id)
}

func (h *RunsHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	record, err := h.storage.Get(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, ErrorTypeNotFound, "no run with id "+id, "")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrorTypeInternal, "failed to load run", "")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *RunsHandler) list(w http.ResponseWriter, r *http.Request) {
	query, err := parseListQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorTypeInvalidRequest, err.Error(), "")
		return
	}

	records, err := h.storage.List(r.Context(), query)
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrorTypeInternal, "failed to list runs", "")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  records,
		"count": len(records),
	})
}

// parseListQuery builds a storage query from URL parameters: limit, status,
// since, until (RFC 3339 timestamps).
func parseListQuery(r *http.Request) (*storage.Query, error) {
	q := &storage.Query{}
	params := r.URL.Query()

	if v := params.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			return nil, errors.New("limit must be a positive integer")
		}
		if limit > maxListLimit {
			limit = maxListLimit
		}
		q.Limit = limit
	}
	if v := params.Get("status"); v != "" {
		q.Status = v
	}
	if v := params.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, errors.New("since must be an RFC 3339 timestamp")
		}
		q.Since = t
	}
	if v := params.Get("until"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, errors.New("until must be an RFC 3339 timestamp")
		}
		q.Until = t
	}

	return q, nil
}
