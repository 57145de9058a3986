// Package ffi binds the libngspice shared library through purego.
//
// The package is the only place in the module that interprets raw engine
// memory or crosses the foreign-call boundary. Everything it hands out is
// either a copy (strings, payload slices) or a read-only view that is valid
// while the engine lock is held (Vector).
//
// # Callback contract
//
// libngspice pushes diagnostic output synchronously through the SendChar
// callback registered by Init. The opaque context pointer given to
// ngSpice_Init is a runtime/cgo.Handle wrapping the registered Sink; the
// trampolines recover the Sink from that token and nothing else. The handle
// is never deleted: the engine keeps the raw context pointer for the life of
// the process and may invoke the callback at any point during a later
// circuit load or command run.
//
// # ABI assumptions
//
// The vecInfo mirror matches ngspice's struct vector_info as shipped since
// ngspice-27. Complex payloads assume ngcomplex_t is exactly two adjacent
// doubles (real then imaginary), which makes it layout-compatible with Go's
// complex128. Both assumptions are covered by tests in this package and must
// be re-verified when integrating a new engine release.
package ffi
