package config

import "time"

// Config is the root configuration structure for Galvani.
// It contains all configuration sections for the simulation engine, HTTP
// server, result storage, retention, batch watching, and telemetry.
type Config struct {
	// Engine contains configuration for the ngspice shared library,
	// including where to load it from and the default analysis command.
	Engine EngineConfig `yaml:"engine"`

	// Server contains HTTP server configuration including listen address,
	// timeouts, and header limits.
	Server ServerConfig `yaml:"server"`

	// Storage contains configuration for simulation result persistence
	// including backend selection and SQLite tuning.
	Storage StorageConfig `yaml:"storage"`

	// Retention contains configuration for pruning old simulation records.
	Retention RetentionConfig `yaml:"retention"`

	// Watch contains configuration for the batch directory watcher, which
	// simulates netlist files dropped into a watched directory.
	Watch WatchConfig `yaml:"watch"`

	// Telemetry contains configuration for observability including logging
	// and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// EngineConfig contains configuration for the simulation engine.
type EngineConfig struct {
	// LibraryPath is the path of the ngspice shared library to load.
	// An empty value loads the platform default name (libngspice.so on
	// Linux, libngspice.dylib on macOS) from the system search path.
	// Default: ""
	LibraryPath string `yaml:"library_path"`

	// DefaultCommand is the analysis command used when a simulation
	// request does not specify one.
	// Default: "op"
	DefaultCommand string `yaml:"default_command"`
}

// ServerConfig contains configuration for the HTTP API server.
type ServerConfig struct {
	// ListenAddress is the address and port for the server to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:8866", "0.0.0.0:8866").
	// Default: "127.0.0.1:8866"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body. A zero or negative value means no timeout.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. Simulations run inside the request handler, so this bounds
	// the longest simulation a request may perform.
	// Default: 120s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled. If IdleTimeout is zero, ReadTimeout is used.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// If requests are still in-flight after this timeout, the server will
	// force shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes controls the maximum number of bytes the server will
	// read parsing the request header's keys and values, including the
	// request line. It does not limit the size of the request body.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`
}

// StorageConfig contains configuration for simulation result storage.
type StorageConfig struct {
	// Backend selects the storage implementation.
	// Options: "memory" (in-process, lost on restart), "sqlite"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// Driver selects the SQLite driver when Backend is "sqlite".
	// Options: "sqlite" (pure Go), "sqlite3" (cgo)
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// Path is the SQLite database file path when Backend is "sqlite".
	// Default: "data/runs.db"
	Path string `yaml:"path"`

	// MaxOpenConns is the maximum number of open database connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle database connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables SQLite write-ahead logging.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is how long SQLite waits on a locked database before
	// returning SQLITE_BUSY.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RetentionConfig contains configuration for pruning stored simulation runs.
type RetentionConfig struct {
	// Enabled controls whether the retention scheduler runs.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Days is the number of days to keep simulation records. Records older
	// than this are deleted on each prune. Zero disables age-based pruning.
	// Default: 30
	Days int `yaml:"days"`

	// MaxRecords is the maximum number of records to keep. When exceeded,
	// the oldest records are deleted first. Zero disables count-based pruning.
	// Default: 0 (unlimited)
	MaxRecords int64 `yaml:"max_records"`

	// Schedule is a standard cron expression controlling when pruning runs.
	// Default: "0 3 * * *" (daily at 3 AM)
	Schedule string `yaml:"schedule"`
}

// WatchConfig contains configuration for the batch directory watcher.
type WatchConfig struct {
	// Enabled controls whether the directory watcher runs.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Directory is the directory to watch for netlist files.
	// Required when Enabled is true.
	Directory string `yaml:"directory"`

	// Extensions lists the file extensions treated as netlists.
	// Default: [".cir", ".sp", ".net"]
	Extensions []string `yaml:"extensions"`

	// DebounceInterval is how long to wait after the last write event
	// before simulating a file. Editors and copies produce bursts of
	// events; the debounce collapses each burst into one simulation.
	// Default: 500ms
	DebounceInterval time.Duration `yaml:"debounce_interval"`

	// Command is the analysis command applied to watched files. An empty
	// value uses engine.default_command.
	// Default: ""
	Command string `yaml:"command"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and exposed.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Namespace is the prefix applied to every metric name.
	// Default: "galvani"
	Namespace string `yaml:"namespace"`

	// Path is the HTTP path the metrics endpoint is served on.
	// Default: "/metrics"
	Path string `yaml:"path"`
}
