package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"volthaus/galvani/pkg/config"
	"volthaus/galvani/pkg/results"
	"volthaus/galvani/pkg/results/storage"
	"volthaus/galvani/pkg/spice"
	"volthaus/galvani/pkg/telemetry/metrics"
)

// Watcher watches a directory for netlist files and simulates each file
// when it is created or modified. Results are stored like API-submitted
// runs, so batch jobs show up in the same run history.
type Watcher struct {
	watcher   *fsnotify.Watcher
	logger    *slog.Logger
	config    *config.WatchConfig
	command   string
	simulator spice.Simulator
	storage   storage.Storage
	metrics   *metrics.Collector
	debounce  *Debouncer

	mu      sync.RWMutex
	running bool
	stopped bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewWatcher creates a new directory watcher. command is the analysis
// command applied to every file; cfg.Command overrides it when set.
func NewWatcher(cfg *config.WatchConfig, command string, sim spice.Simulator, store storage.Storage, collector *metrics.Collector) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	if cfg.Command != "" {
		command = cfg.Command
	}

	return &Watcher{
		watcher:   fsw,
		logger:    slog.Default().With("component", "batch.watcher"),
		config:    cfg,
		command:   command,
		simulator: sim,
		storage:   store,
		metrics:   collector,
		debounce:  NewDebouncer(cfg.DebounceInterval),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}, nil
}

// Watch starts watching the configured directory. This is a blocking
// operation that runs until the context is cancelled or Stop is called.
func (w *Watcher) Watch(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		close(w.doneCh)
	}()

	if err := w.watcher.Add(w.config.Directory); err != nil {
		return fmt.Errorf("failed to watch directory %q: %w", w.config.Directory, err)
	}

	w.logger.Info("batch watcher started",
		"directory", w.config.Directory,
		"extensions", strings.Join(w.config.Extensions, ","),
		"command", w.command,
		"debounce_ms", w.config.DebounceInterval.Milliseconds(),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("batch watcher stopped (context cancelled)")
			return nil

		case <-w.stopCh:
			w.logger.Info("batch watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !w.shouldProcessEvent(event) {
				continue
			}

			w.logger.Debug("netlist file event",
				"path", event.Name,
				"op", event.Op.String(),
			)

			path := event.Name
			w.debounce.Trigger(path, func() {
				w.processFile(ctx, path)
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("batch watcher error", "error", err)
		}
	}
}

// Stop stops the watcher and cancels pending debounced simulations. It
// releases the fsnotify watcher even when Watch already exited through
// context cancellation. Only the first call does any work.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	running := w.running
	w.mu.Unlock()

	if running {
		close(w.stopCh)
		<-w.doneCh
	}

	w.debounce.Stop()

	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

// shouldProcessEvent filters events down to writes of visible netlist files.
func (w *Watcher) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return false
	}
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(event.Name))
	for _, validExt := range w.config.Extensions {
		if ext == strings.ToLower(validExt) {
			return true
		}
	}
	return false
}

// processFile simulates one netlist file and stores the outcome.
func (w *Watcher) processFile(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		w.logger.Error("failed to read netlist file", "path", path, "error", err)
		w.metrics.RecordWatchFile("read_error")
		return
	}

	circuit := string(data)
	record := results.New(circuit, w.command)
	start := time.Now()
	sim, err := w.simulator.Simulate(ctx, circuit, w.command)
	record.Finish(sim, err, time.Since(start))

	w.metrics.RecordSimulation(record.Status, time.Since(start), len(record.Vectors))

	if err != nil {
		w.logger.Warn("netlist simulation failed",
			"path", path,
			"run_id", record.ID,
			"status", record.Status,
			"error", err,
		)
		w.metrics.RecordWatchFile("error")
	} else {
		w.logger.Info("netlist simulated",
			"path", path,
			"run_id", record.ID,
			"vectors", len(record.Vectors),
			"duration_ms", record.DurationMS,
		)
		w.metrics.RecordWatchFile("ok")
	}

	if w.storage != nil {
		if err := w.storage.Store(ctx, record); err != nil {
			w.logger.Error("failed to store batch run", "run_id", record.ID, "error", err)
			return
		}
		w.metrics.RecordRunStored()
	}
}
