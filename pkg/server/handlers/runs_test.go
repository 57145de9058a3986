package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"volthaus/galvani/pkg/results"
	"volthaus/galvani/pkg/results/storage"
)

func seededStorage(t *testing.T) *storage.MemoryStorage {
	t.Helper()
	s := storage.NewMemoryStorage()
	base := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	runs := []*results.Record{
		{ID: "aaa", CreatedAt: base, Circuit: ".end", Command: "op", Status: results.StatusOK},
		{ID: "bbb", CreatedAt: base.Add(time.Hour), Circuit: ".end", Command: "op", Status: results.StatusError},
		{ID: "ccc", CreatedAt: base.Add(2 * time.Hour), Circuit: ".end", Command: "op", Status: results.StatusOK},
	}
	for _, rec := range runs {
		if err := s.Store(context.Background(), rec); err != nil {
			t.Fatalf("Store() failed: %v", err)
		}
	}
	return s
}

func getRuns(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
	return rec
}

type listResponse struct {
	Runs  []*results.Record `json:"runs"`
	Count int               `json:"count"`
}

func TestRunsList(t *testing.T) {
	h := NewRunsHandler(seededStorage(t))

	rec := getRuns(t, h, "/v1/runs")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp listResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if resp.Count != 3 || len(resp.Runs) != 3 {
		t.Fatalf("count = %d, runs = %d, want 3", resp.Count, len(resp.Runs))
	}
	if resp.Runs[0].ID != "ccc" {
		t.Errorf("first run = %s, want newest (ccc)", resp.Runs[0].ID)
	}
}

func TestRunsListFilters(t *testing.T) {
	h := NewRunsHandler(seededStorage(t))

	rec := getRuns(t, h, "/v1/runs?status=error")
	var resp listResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if resp.Count != 1 || resp.Runs[0].ID != "bbb" {
		t.Errorf("status filter returned %+v", resp.Runs)
	}

	rec = getRuns(t, h, "/v1/runs?limit=2")
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if resp.Count != 2 {
		t.Errorf("limit filter returned %d runs", resp.Count)
	}

	rec = getRuns(t, h, "/v1/runs?since=2026-04-01T11:30:00Z")
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if resp.Count != 1 || resp.Runs[0].ID != "ccc" {
		t.Errorf("since filter returned %+v", resp.Runs)
	}
}

func TestRunsListBadParams(t *testing.T) {
	h := NewRunsHandler(seededStorage(t))
	for _, path := range []string{
		"/v1/runs?limit=zero",
		"/v1/runs?limit=-5",
		"/v1/runs?since=yesterday",
		"/v1/runs?until=tomorrow",
	} {
		if rec := getRuns(t, h, path); rec.Code != http.StatusBadRequest {
			t.Errorf("GET %s = %d, want 400", path, rec.Code)
		}
	}
}

func TestRunsGet(t *testing.T) {
	h := NewRunsHandler(seededStorage(t))

	rec := getRuns(t, h, "/v1/runs/bbb")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var run results.Record
	if err := json.Unmarshal(rec.Body.Bytes(), &run); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if run.ID != "bbb" || run.Status != results.StatusError {
		t.Errorf("run = %+v", run)
	}
}

func TestRunsGetNotFound(t *testing.T) {
	h := NewRunsHandler(seededStorage(t))

	rec := getRuns(t, h, "/v1/runs/zzz")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if resp.Error.Type != ErrorTypeNotFound {
		t.Errorf("error type = %q", resp.Error.Type)
	}
}

func TestRunsMethodNotAllowed(t *testing.T) {
	h := NewRunsHandler(seededStorage(t))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("DELETE", "/v1/runs/aaa", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestHealthHandlers(t *testing.T) {
	rec := getRuns(t, NewHealthHandler(), "/health")
	if rec.Code != http.StatusOK {
		t.Errorf("GET /health = %d", rec.Code)
	}

	rec = getRuns(t, NewReadyHandler(nil), "/ready")
	if rec.Code != http.StatusOK {
		t.Errorf("GET /ready = %d with nil probe", rec.Code)
	}

	failing := NewReadyHandler(func() error { return context.DeadlineExceeded })
	rec = getRuns(t, failing, "/ready")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("GET /ready = %d with failing probe, want 503", rec.Code)
	}
}
