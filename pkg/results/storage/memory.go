package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"volthaus/galvani/pkg/results"
)

// MemoryStorage implements the Storage interface using an in-memory map.
// Records are lost on restart; intended for testing and ephemeral setups.
type MemoryStorage struct {
	records map[string]*results.Record
	mu      sync.RWMutex
}

// NewMemoryStorage creates a new in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records: make(map[string]*results.Record),
	}
}

// Store persists a simulation record to memory.
func (s *MemoryStorage) Store(ctx context.Context, record *results.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Copy so later caller mutations do not leak into storage.
	recordCopy := *record
	s.records[record.ID] = &recordCopy

	return nil
}

// Get retrieves a record by ID.
func (s *MemoryStorage) Get(ctx context.Context, id string) (*results.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	recordCopy := *record
	return &recordCopy, nil
}

// List retrieves records matching the query filters, newest first.
func (s *MemoryStorage) List(ctx context.Context, query *Query) ([]*results.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := []*results.Record{}
	for _, record := range s.records {
		if !matchesQuery(record, query) {
			continue
		}
		recordCopy := *record
		matched = append(matched, &recordCopy)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	limit := DefaultQueryLimit
	if query != nil && query.Limit > 0 {
		limit = query.Limit
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}

	return matched, nil
}

// Count returns the total number of stored records.
func (s *MemoryStorage) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.records)), nil
}

// DeleteBefore deletes all records created before the cutoff.
func (s *MemoryStorage) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, record := range s.records {
		if record.CreatedAt.Before(cutoff) {
			delete(s.records, id)
			deleted++
		}
	}
	return deleted, nil
}

// DeleteOldest deletes the n oldest records.
func (s *MemoryStorage) DeleteOldest(ctx context.Context, n int64) (int64, error) {
	if n <= 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ordered := make([]*results.Record, 0, len(s.records))
	for _, record := range s.records {
		ordered = append(ordered, record)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	var deleted int64
	for _, record := range ordered {
		if deleted >= n {
			break
		}
		delete(s.records, record.ID)
		deleted++
	}
	return deleted, nil
}

// Close is a no-op for memory storage.
func (s *MemoryStorage) Close() error {
	return nil
}

// matchesQuery reports whether a record passes the query filters.
func matchesQuery(record *results.Record, query *Query) bool {
	if query == nil {
		return true
	}
	if query.Status != "" && record.Status != query.Status {
		return false
	}
	if !query.Since.IsZero() && record.CreatedAt.Before(query.Since) {
		return false
	}
	if !query.Until.IsZero() && !record.CreatedAt.Before(query.Until) {
		return false
	}
	return true
}
