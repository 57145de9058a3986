package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"volthaus/galvani/pkg/results"
)

func newTestSQLiteStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	cfg := DefaultSQLiteConfig()
	cfg.Path = filepath.Join(t.TempDir(), "runs.db")
	s, err := NewSQLiteStorage(cfg)
	if err != nil {
		t.Fatalf("NewSQLiteStorage() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStorage(t *testing.T) {
	runStorageTests(t, newTestSQLiteStorage(t))
}

func TestSQLiteStorageSecondBoundary(t *testing.T) {
	runSecondBoundaryTests(t, newTestSQLiteStorage(t))
}

func TestSQLiteStorageFailedRunHasNoVectors(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStorage(t)

	rec := &results.Record{
		ID:        "failed-run",
		CreatedAt: time.Now().UTC(),
		Circuit:   "broken",
		Command:   "op",
		Status:    results.StatusInvalidCircuit,
		Error:     "spice: error parsing circuit",
		Stderr:    "unknown device\n",
	}
	if err := s.Store(ctx, rec); err != nil {
		t.Fatalf("Store() failed: %v", err)
	}

	got, err := s.Get(ctx, "failed-run")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.Vectors != nil {
		t.Errorf("Vectors = %v, want nil", got.Vectors)
	}
	if got.Error != rec.Error {
		t.Errorf("Error = %q, want %q", got.Error, rec.Error)
	}
	if got.Stderr != rec.Stderr {
		t.Errorf("Stderr = %q, want %q", got.Stderr, rec.Stderr)
	}
}

func TestSQLiteStorageReopen(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultSQLiteConfig()
	cfg.Path = filepath.Join(t.TempDir(), "runs.db")

	s, err := NewSQLiteStorage(cfg)
	if err != nil {
		t.Fatalf("NewSQLiteStorage() failed: %v", err)
	}
	rec := testRecord("persists", results.StatusOK, time.Now().UTC())
	if err := s.Store(ctx, rec); err != nil {
		t.Fatalf("Store() failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	s, err = NewSQLiteStorage(cfg)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	if _, err := s.Get(ctx, "persists"); err != nil {
		t.Errorf("record lost across reopen: %v", err)
	}
}
