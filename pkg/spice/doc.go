// Package spice provides a thread-safe interface to the ngspice circuit
// simulator.
//
// ngspice is a native shared library with process-global state: it can be
// initialized exactly once, must never be called concurrently, and reports
// output by pushing callbacks rather than returning values. This package
// hides all of that behind one operation:
//
//	sim, err := spice.Simulate(circuit, command)
//
// Simulate may be called from any goroutine. Calls are serialized on an
// exclusive lock around the single engine instance; a call blocks until
// every earlier call has finished. There is no cancellation: the underlying
// engine run is an uninterruptible blocking operation.
//
// Inputs are validated before the engine lock is taken, so malformed input
// is rejected at zero engine cost. If the engine itself reports an
// unrecoverable internal error, the process panics; the engine defines no
// way to continue after its fatal-exit callback fires.
package spice
