package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // driver "sqlite3"
	_ "modernc.org/sqlite"          // driver "sqlite"

	"volthaus/galvani/pkg/results"
	"volthaus/galvani/pkg/spice"
)

// timeFormat is the created_at column format. Unlike RFC3339Nano it keeps
// trailing zeros, so every timestamp is the same width and string
// comparison in SQL agrees with time order. Timestamps are stored in UTC,
// which fixes the zone suffix to "Z".
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// Driver selects the database/sql driver: "sqlite" (pure Go) or
	// "sqlite3" (cgo). Default: "sqlite"
	Driver string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/runs.db",
		Driver:       "sqlite",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStorage implements the Storage interface using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage creates a new SQLite storage backend.
// It initializes the database schema and enables WAL mode if configured.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if config.Driver == "" {
		config.Driver = "sqlite"
	}

	logger := slog.Default().With("component", "results.storage.sqlite")

	db, err := sql.Open(config.Driver, config.Path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &SQLiteStorage{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite storage initialized",
		"path", config.Path,
		"driver", config.Driver,
		"wal_mode", config.WALMode,
		"max_open_conns", config.MaxOpenConns,
	)

	return s, nil
}

// initialize sets up the database schema and enables WAL mode.
func (s *SQLiteStorage) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return fmt.Errorf("sqlite enable_wal: %w", err)
		}
	}

	busyTimeoutMs := s.config.BusyTimeout.Milliseconds()
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs)); err != nil {
		return fmt.Errorf("sqlite set_busy_timeout: %w", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return fmt.Errorf("sqlite create_schema: %w", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return fmt.Errorf("sqlite insert_schema_version: %w", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("sqlite get_schema_version: %w", err)
	}
	if version != SchemaVersion {
		return fmt.Errorf("sqlite schema version mismatch: expected %d, got %d", SchemaVersion, version)
	}

	return nil
}

// Store persists a simulation record to the database.
func (s *SQLiteStorage) Store(ctx context.Context, record *results.Record) error {
	var vectors interface{}
	if record.Vectors != nil {
		data, err := json.Marshal(record.Vectors)
		if err != nil {
			return fmt.Errorf("sqlite marshal vectors: %w", err)
		}
		vectors = string(data)
	}

	var errVal interface{}
	if record.Error != "" {
		errVal = record.Error
	}

	query := `
		INSERT INTO runs (
			id, created_at, circuit, command,
			status, error, stdout, stderr, duration_ms, vectors
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		record.ID, record.CreatedAt.UTC().Format(timeFormat), record.Circuit, record.Command,
		record.Status, errVal, record.Stdout, record.Stderr, record.DurationMS, vectors,
	)
	if err != nil {
		return fmt.Errorf("sqlite store: %w", err)
	}
	return nil
}

// Get retrieves a record by ID.
func (s *SQLiteStorage) Get(ctx context.Context, id string) (*results.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, circuit, command, status, error, stdout, stderr, duration_ms, vectors
		FROM runs WHERE id = ?
	`, id)

	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite get: %w", err)
	}
	return record, nil
}

// List retrieves records matching the query filters, newest first.
func (s *SQLiteStorage) List(ctx context.Context, query *Query) ([]*results.Record, error) {
	var conditions []string
	var args []interface{}

	if query != nil {
		if query.Status != "" {
			conditions = append(conditions, "status = ?")
			args = append(args, query.Status)
		}
		if !query.Since.IsZero() {
			conditions = append(conditions, "created_at >= ?")
			args = append(args, query.Since.UTC().Format(timeFormat))
		}
		if !query.Until.IsZero() {
			conditions = append(conditions, "created_at < ?")
			args = append(args, query.Until.UTC().Format(timeFormat))
		}
	}

	sqlQuery := "SELECT id, created_at, circuit, command, status, error, stdout, stderr, duration_ms, vectors FROM runs"
	if len(conditions) > 0 {
		sqlQuery += " WHERE " + strings.Join(conditions, " AND ")
	}

	limit := DefaultQueryLimit
	if query != nil && query.Limit > 0 {
		limit = query.Limit
	}
	sqlQuery += fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d", limit)

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite list: %w", err)
	}
	defer rows.Close()

	records := []*results.Record{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite scan: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite list: %w", err)
	}
	return records, nil
}

// Count returns the total number of stored records.
func (s *SQLiteStorage) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs").Scan(&count); err != nil {
		return 0, fmt.Errorf("sqlite count: %w", err)
	}
	return count, nil
}

// DeleteBefore deletes all records created before the cutoff.
func (s *SQLiteStorage) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM runs WHERE created_at < ?",
		cutoff.UTC().Format(timeFormat),
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite delete_before: %w", err)
	}
	return res.RowsAffected()
}

// DeleteOldest deletes the n oldest records.
func (s *SQLiteStorage) DeleteOldest(ctx context.Context, n int64) (int64, error) {
	if n <= 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM runs WHERE id IN (
			SELECT id FROM runs ORDER BY created_at ASC LIMIT ?
		)
	`, n)
	if err != nil {
		return 0, fmt.Errorf("sqlite delete_oldest: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// rowScanner abstracts *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanRecord reads one runs row into a Record.
func scanRecord(row rowScanner) (*results.Record, error) {
	var record results.Record
	var createdAt string
	var errVal, vectors sql.NullString

	err := row.Scan(
		&record.ID, &createdAt, &record.Circuit, &record.Command,
		&record.Status, &errVal, &record.Stdout, &record.Stderr,
		&record.DurationMS, &vectors,
	)
	if err != nil {
		return nil, err
	}

	record.CreatedAt, err = time.Parse(timeFormat, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	if errVal.Valid {
		record.Error = errVal.String
	}
	if vectors.Valid && vectors.String != "" {
		record.Vectors = make(map[string]spice.VectorInfo)
		if err := json.Unmarshal([]byte(vectors.String), &record.Vectors); err != nil {
			return nil, fmt.Errorf("unmarshal vectors: %w", err)
		}
	}

	return &record, nil
}
