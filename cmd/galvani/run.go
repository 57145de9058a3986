package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"volthaus/galvani/pkg/batch"
	"volthaus/galvani/pkg/cli"
	"volthaus/galvani/pkg/config"
	"volthaus/galvani/pkg/results/retention"
	"volthaus/galvani/pkg/results/storage"
	"volthaus/galvani/pkg/server"
	"volthaus/galvani/pkg/spice"
	"volthaus/galvani/pkg/telemetry/metrics"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Galvani simulation server",
	Long: `Start the Galvani simulation server with the specified configuration.

The server exposes the simulation API, records runs in the configured
store, and (when enabled) watches a directory for netlist files.

Examples:
  # Start with default config
  galvani run

  # Start with custom config
  galvani run --config /etc/galvani/config.yaml

  # Override listen address
  galvani run --listen 0.0.0.0:8866

  # Validate config without starting the server
  galvani run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}

	setupLogging(&cfg.Telemetry.Logging)

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	fmt.Printf("Galvani v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")

	if cfg.Engine.LibraryPath != "" {
		spice.SetLibraryPath(cfg.Engine.LibraryPath)
	}

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	spice.SetWaitObserver(collector.ObserveEngineWait)

	// Open run storage
	store, err := openStorage(&cfg.Storage)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	if store != nil {
		defer store.Close()
		fmt.Println("✓ Run storage initialized")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start retention scheduler if enabled
	if cfg.Retention.Enabled && store != nil {
		pruner := retention.NewPruner(store, &retention.Config{
			RetentionDays: cfg.Retention.Days,
			PruneSchedule: cfg.Retention.Schedule,
			MaxRecords:    cfg.Retention.MaxRecords,
		})
		scheduler := retention.NewScheduler(pruner)
		if err := scheduler.Start(ctx); err != nil {
			slog.Warn("failed to start retention scheduler", "error", err)
		} else {
			defer scheduler.Stop()
			fmt.Printf("✓ Retention scheduler started (%s)\n", cfg.Retention.Schedule)
		}
	}

	simulator := spice.Shared()

	// Start batch watcher if enabled
	if cfg.Watch.Enabled {
		watcher, err := batch.NewWatcher(&cfg.Watch, cfg.Engine.DefaultCommand, simulator, store, collector)
		if err != nil {
			return cli.NewCommandError("run", fmt.Errorf("failed to create batch watcher: %w", err))
		}
		go func() {
			if err := watcher.Watch(ctx); err != nil {
				slog.Error("batch watcher stopped", "error", err)
			}
		}()
		defer watcher.Stop()
		fmt.Printf("✓ Watching %s for netlist files\n", cfg.Watch.Directory)
	}

	srv := server.NewServer(cfg, simulator, store, collector)

	fmt.Printf("✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Health endpoint: http://%s/health\n", cfg.Server.ListenAddress)
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Printf("✓ Metrics endpoint: http://%s%s\n", cfg.Server.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Start blocks until a shutdown signal, context cancellation, or a
	// server error.
	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}
	fmt.Println("✓ Server stopped")
	return nil
}

// loadConfig loads the configured file, falling back to defaults when the
// default config path does not exist.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigOrDefault(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError(cfgFile, err)
	}
	return cfg, nil
}

// setupLogging installs the process-wide slog handler per configuration.
// The --verbose flag forces debug level regardless of config.
func setupLogging(cfg *config.LoggingConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// openStorage opens the configured run store. A memory backend needs no
// setup; sqlite gets the full pool and pragma configuration.
func openStorage(cfg *config.StorageConfig) (storage.Storage, error) {
	switch cfg.Backend {
	case "memory":
		return storage.NewMemoryStorage(), nil
	case "sqlite":
		store, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{
			Path:         cfg.Path,
			Driver:       cfg.Driver,
			MaxOpenConns: cfg.MaxOpenConns,
			MaxIdleConns: cfg.MaxIdleConns,
			WALMode:      cfg.WALMode,
			BusyTimeout:  cfg.BusyTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite storage: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
}
