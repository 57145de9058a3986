package storage

import (
	"context"
	"errors"
	"time"

	"volthaus/galvani/pkg/results"
)

// ErrNotFound is returned by Get when no record exists with the given ID.
var ErrNotFound = errors.New("storage: record not found")

// Query contains the filters for listing simulation runs.
// Zero-valued fields are ignored.
type Query struct {
	// Limit caps the number of records returned. Zero means the backend
	// default (100).
	Limit int

	// Status filters runs by their recorded status.
	Status string

	// Since filters runs created at or after this time.
	Since time.Time

	// Until filters runs created before this time.
	Until time.Time
}

// DefaultQueryLimit is applied when a query does not specify a limit.
const DefaultQueryLimit = 100

// Storage defines the interface for simulation run storage backends.
// Implementations must be thread-safe and support concurrent access.
// Listing returns records newest first.
type Storage interface {
	// Store persists a simulation record.
	Store(ctx context.Context, record *results.Record) error

	// Get retrieves a record by ID. Returns ErrNotFound if no record
	// exists with that ID.
	Get(ctx context.Context, id string) (*results.Record, error)

	// List retrieves records matching the query filters, newest first.
	// Returns an empty slice if no records match.
	List(ctx context.Context, query *Query) ([]*results.Record, error)

	// Count returns the total number of stored records.
	Count(ctx context.Context) (int64, error)

	// DeleteBefore deletes all records created before the cutoff and
	// returns how many were deleted.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// DeleteOldest deletes the n oldest records and returns how many
	// were deleted.
	DeleteOldest(ctx context.Context, n int64) (int64, error)

	// Close releases backend resources. The storage must not be used
	// after Close returns.
	Close() error
}
