package spice

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"volthaus/galvani/internal/ffi"
)

// foreign is the engine surface the orchestrator runs against. The real
// implementation wraps the libngspice shared library; tests substitute a
// recording fake.
type foreign interface {
	Init(sink ffi.Sink) error
	Circuit(lines []string) int
	Command(cmd string) int
	CurrentPlot() string
	VectorNames(plot string) []string
	VectorInfo(name string) (foreignVector, bool)
}

// foreignVector is one engine vector record as seen by the extractor.
type foreignVector interface {
	Name() string
	Type() int
	Length() int
	HasReal() bool
	HasComplex() bool
	Real() []float64
	Complex() []complex128
}

// dynamicLibrary adapts *ffi.Library to the foreign interface.
type dynamicLibrary struct {
	lib *ffi.Library
}

func (d dynamicLibrary) Init(sink ffi.Sink) error        { return d.lib.Init(sink) }
func (d dynamicLibrary) Circuit(lines []string) int      { return d.lib.Circuit(lines) }
func (d dynamicLibrary) Command(cmd string) int          { return d.lib.Command(cmd) }
func (d dynamicLibrary) CurrentPlot() string             { return d.lib.CurrentPlot() }
func (d dynamicLibrary) VectorNames(plot string) []string { return d.lib.VectorNames(plot) }

func (d dynamicLibrary) VectorInfo(name string) (foreignVector, bool) {
	v, ok := d.lib.VectorInfo(name)
	if !ok {
		return nil, false
	}
	return v, true
}

// engine owns the process-wide simulator instance. The engine registers the
// address of this struct (via a cgo.Handle) with the native library at
// initialization, and every later callback routes through it, so the
// package-level reference below must never be replaced once set.
type engine struct {
	mu  sync.Mutex
	lib foreign

	// Diagnostic buffers. Written re-entrantly by ConsumeLine while an
	// engine call is in flight, always under mu via the calling thread.
	stdout bytes.Buffer
	stderr bytes.Buffer

	// aborted latches when the engine fires its fatal-exit callback.
	// There is no recovery path; later runs refuse to start.
	aborted atomic.Bool
}

var (
	sharedOnce   sync.Once
	sharedEngine *engine
	sharedErr    error

	// libraryPath overrides the dlopen target. Must be set before the
	// first simulation; later writes have no effect.
	libraryPath atomic.Pointer[string]

	// openLibrary is replaced in tests to initialize the singleton
	// against a fake engine.
	openLibrary = func() (foreign, error) {
		var path string
		if p := libraryPath.Load(); p != nil {
			path = *p
		}
		lib, err := ffi.Open(path)
		if err != nil {
			return nil, err
		}
		return dynamicLibrary{lib: lib}, nil
	}

	// observeWait, when set, receives the time each run spent waiting
	// for the engine lock. Set once at startup, before serving.
	observeWait func(time.Duration)
)

// SetLibraryPath overrides where the ngspice shared library is loaded
// from. It only has effect before the first call to Simulate; the library
// can be loaded just once per process.
func SetLibraryPath(path string) {
	libraryPath.Store(&path)
}

// SetWaitObserver installs a hook that receives the lock-wait duration of
// every simulation. Intended for metrics; install once at startup.
func SetWaitObserver(fn func(time.Duration)) {
	observeWait = fn
}

// shared returns the singleton engine, initializing it on first use. The
// sync.Once guarantees exactly one initialization even under concurrent
// first callers; a failed initialization is permanent and every later call
// reports the same error.
func shared() (*engine, error) {
	sharedOnce.Do(func() {
		lib, err := openLibrary()
		if err != nil {
			sharedErr = err
			return
		}
		e := &engine{lib: lib}
		if err := lib.Init(e); err != nil {
			sharedErr = err
			return
		}
		sharedEngine = e
	})
	return sharedEngine, sharedErr
}

// ConsumeLine implements ffi.Sink. Lines the engine tags "stderr " go to
// the error buffer, lines tagged "stdout " and untagged lines go to the
// standard buffer, tags stripped and a newline appended.
func (e *engine) ConsumeLine(line string) {
	if rest, ok := strings.CutPrefix(line, "stderr "); ok {
		e.stderr.WriteString(rest)
		e.stderr.WriteByte('\n')
		return
	}
	if rest, ok := strings.CutPrefix(line, "stdout "); ok {
		e.stdout.WriteString(rest)
		e.stdout.WriteByte('\n')
		return
	}
	e.stdout.WriteString(line)
	e.stdout.WriteByte('\n')
}

// EngineExit implements ffi.Sink. The trampoline panics right after this
// returns; latching the flag here keeps any goroutine that survives the
// unwind (or a recover installed above us) from touching the engine again.
func (e *engine) EngineExit(status int) {
	e.aborted.Store(true)
}

// run executes one load-command-extract cycle under the exclusive lock.
// Inputs must already be validated.
func (e *engine) run(circuit, command string) (*Simulation, error) {
	waitStart := time.Now()
	e.mu.Lock()
	defer e.mu.Unlock()
	if observeWait != nil {
		observeWait(time.Since(waitStart))
	}

	if e.aborted.Load() {
		panic("spice: engine is unusable after a fatal engine error")
	}

	// Each run starts from empty buffers; leftovers would attribute a
	// previous run's diagnostics to this one.
	e.stdout.Reset()
	e.stderr.Reset()

	if status := e.lib.Circuit(splitLines(circuit)); status != 0 {
		return nil, &InvalidCircuitError{Log: e.stderr.String()}
	}
	if status := e.lib.Command(command); status != 0 {
		return nil, &UnknownError{Log: e.stderr.String()}
	}

	sim := &Simulation{Vectors: e.extract()}

	// Hand the accumulated buffers to the caller and leave empty ones
	// behind for the next run.
	sim.Stdout = e.stdout.String()
	sim.Stderr = e.stderr.String()
	e.stdout.Reset()
	e.stderr.Reset()

	return sim, nil
}

// extract copies every vector of the engine's current result set into
// owned, typed data. Malformed records are engine/ABI contract violations
// and panic rather than degrade into partial results.
func (e *engine) extract() map[string]VectorInfo {
	vectors := make(map[string]VectorInfo)
	for _, name := range e.lib.VectorNames(e.lib.CurrentPlot()) {
		v, ok := e.lib.VectorInfo(name)
		if !ok {
			panic(fmt.Sprintf("spice: engine enumerated vector %q but returned no info for it", name))
		}
		vname := v.Name()
		if !utf8.ValidString(vname) {
			panic(fmt.Sprintf("spice: engine returned non-UTF-8 vector name %q", vname))
		}

		if v.HasReal() && v.HasComplex() {
			panic(fmt.Sprintf("spice: vector %q has both real and complex data", vname))
		}

		info := VectorInfo{DataType: dataTypeFromTag(v.Type())}
		switch {
		case v.HasReal():
			info.Values.Real = v.Real()
		case v.HasComplex():
			info.Values.Complex = v.Complex()
		default:
			panic(fmt.Sprintf("spice: vector %q has neither real nor complex data", vname))
		}
		vectors[vname] = info
	}
	return vectors
}
