// Package metrics provides Prometheus instrumentation for Galvani.
//
// A Collector owns its own registry and exposes counters and histograms
// for simulation outcomes, engine lock contention, storage writes, and the
// batch watcher. Recording methods become no-ops when metrics are disabled
// in configuration.
package metrics
