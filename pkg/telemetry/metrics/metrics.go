package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"volthaus/galvani/pkg/config"
)

// Collector manages all Prometheus metrics for Galvani. Every recording
// method is a no-op when metrics are disabled, so callers never need to
// guard their calls.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	// Simulation metrics
	simulationsTotal   *prometheus.CounterVec
	simulationDuration prometheus.Histogram
	engineWait         prometheus.Histogram
	vectorsExtracted   prometheus.Histogram

	// Storage metrics
	runsStoredTotal prometheus.Counter

	// Batch watcher metrics
	watchFilesTotal *prometheus.CounterVec
}

// NewCollector creates a new metrics collector with the specified
// configuration and Prometheus registry. If registry is nil, a fresh
// registry is created.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "galvani"
	}

	c := &Collector{
		config:   cfg,
		registry: registry,

		simulationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "simulations_total",
				Help:      "Total number of simulation runs by outcome status",
			},
			[]string{"status"},
		),

		simulationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "simulation_duration_seconds",
				Help:      "Wall-clock duration of simulation runs in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 120},
			},
		),

		engineWait: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "engine_wait_seconds",
				Help:      "Time simulations spent waiting for the engine lock",
				Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10, 30, 60},
			},
		),

		vectorsExtracted: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "vectors_extracted",
				Help:      "Number of result vectors per successful simulation",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 10), // 1 to 512
			},
		),

		runsStoredTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "runs_stored_total",
				Help:      "Total number of simulation records written to storage",
			},
		),

		watchFilesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "watch_files_processed_total",
				Help:      "Total number of watched netlist files processed by result",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(
		c.simulationsTotal,
		c.simulationDuration,
		c.engineWait,
		c.vectorsExtracted,
		c.runsStoredTotal,
		c.watchFilesTotal,
	)

	return c
}

// RecordSimulation records one completed simulation run.
func (c *Collector) RecordSimulation(status string, duration time.Duration, vectorCount int) {
	if !c.config.Enabled {
		return
	}
	c.simulationsTotal.WithLabelValues(status).Inc()
	c.simulationDuration.Observe(duration.Seconds())
	if vectorCount > 0 {
		c.vectorsExtracted.Observe(float64(vectorCount))
	}
}

// ObserveEngineWait records how long a run waited for the engine lock.
// The signature matches spice.SetWaitObserver.
func (c *Collector) ObserveEngineWait(wait time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.engineWait.Observe(wait.Seconds())
}

// RecordRunStored records one record written to storage.
func (c *Collector) RecordRunStored() {
	if !c.config.Enabled {
		return
	}
	c.runsStoredTotal.Inc()
}

// RecordWatchFile records one watched netlist file processed.
// result is "ok", "error", or "read_error".
func (c *Collector) RecordWatchFile(result string) {
	if !c.config.Enabled {
		return
	}
	c.watchFilesTotal.WithLabelValues(result).Inc()
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
