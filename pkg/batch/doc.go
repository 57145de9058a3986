// Package batch watches a directory for netlist files and simulates them
// automatically. Dropping a .cir file into the watched directory runs the
// configured analysis command against it and stores the result alongside
// API-submitted runs.
//
// File events are debounced per path so that editors and copies, which
// typically emit several write events for one save, trigger a single
// simulation.
package batch
