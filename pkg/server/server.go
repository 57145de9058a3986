// Package server provides the HTTP API server for Galvani.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"volthaus/galvani/pkg/config"
	"volthaus/galvani/pkg/results/storage"
	"volthaus/galvani/pkg/server/handlers"
	"volthaus/galvani/pkg/server/middleware"
	"volthaus/galvani/pkg/spice"
	"volthaus/galvani/pkg/telemetry/metrics"
)

// Server is the HTTP API server for circuit simulation.
type Server struct {
	config       *config.Config
	simulator    spice.Simulator
	storage      storage.Storage
	metrics      *metrics.Collector
	httpServer   *http.Server
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer creates a new API server. storage may be nil when persistence
// is disabled; the runs endpoints then report not found.
func NewServer(cfg *config.Config, sim spice.Simulator, store storage.Storage, collector *metrics.Collector) *Server {
	return &Server{
		config:       cfg,
		simulator:    sim,
		storage:      store,
		metrics:      collector,
		shutdownChan: make(chan struct{}),
	}
}

// Start starts the HTTP server and blocks until shutdown, either by signal
// (SIGINT/SIGTERM), context cancellation, or a Shutdown call.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	handler := s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:           s.config.Server.ListenAddress,
		Handler:        handler,
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		IdleTimeout:    s.config.Server.IdleTimeout,
		MaxHeaderBytes: s.config.Server.MaxHeaderBytes,
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("starting API server", "address", s.config.Server.ListenAddress)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		slog.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	case <-s.shutdownChan:
		slog.Info("shutdown requested")
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the server. A simulation in flight keeps
// its request handler running until it completes or the shutdown timeout
// expires.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		slog.Info("initiating graceful shutdown", "timeout", s.config.Server.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		slog.Info("API server stopped")
	})

	return shutdownErr
}

// setupRoutes configures HTTP routes and the middleware chain.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	simulateHandler := handlers.NewSimulateHandler(
		s.simulator, s.storage, s.metrics, s.config.Engine.DefaultCommand,
	)
	runsHandler := handlers.NewRunsHandler(s.storage)

	mux.Handle("/v1/simulate", simulateHandler)
	mux.Handle("/v1/runs", runsHandler)
	mux.Handle("/v1/runs/", runsHandler)
	mux.Handle("/health", handlers.NewHealthHandler())
	mux.Handle("/ready", handlers.NewReadyHandler(s.readyProbe))

	if s.config.Telemetry.Metrics.Enabled && s.metrics != nil {
		mux.Handle(s.config.Telemetry.Metrics.Path, s.metrics.Handler())
	}

	// Request ID is assigned before logging runs so request logs carry it.
	var handler http.Handler = mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.RequestIDMiddleware(handler)
	handler = middleware.RecoveryMiddleware(handler)

	return handler
}

// readyProbe reports whether the server can usefully serve requests.
// Storage must answer a count query; a nil storage is always ready.
func (s *Server) readyProbe() error {
	if s.storage == nil {
		return nil
	}
	if _, err := s.storage.Count(context.Background()); err != nil {
		return fmt.Errorf("storage unavailable: %w", err)
	}
	return nil
}

// IsRunning reports whether the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the configured HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}
