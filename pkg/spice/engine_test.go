package spice

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"volthaus/galvani/internal/ffi"
)

type fakeVector struct {
	name string
	tag  int
	real []float64
	comp []complex128
}

func (f fakeVector) Name() string { return f.name }
func (f fakeVector) Type() int    { return f.tag }

func (f fakeVector) Length() int {
	if f.comp != nil {
		return len(f.comp)
	}
	return len(f.real)
}

func (f fakeVector) HasReal() bool    { return f.real != nil }
func (f fakeVector) HasComplex() bool { return f.comp != nil }

func (f fakeVector) Real() []float64 {
	out := make([]float64, len(f.real))
	copy(out, f.real)
	return out
}

func (f fakeVector) Complex() []complex128 {
	out := make([]complex128, len(f.comp))
	copy(out, f.comp)
	return out
}

// fakeLib stands in for the shared library. It pushes diagnostic lines the
// way the real engine does (tagged, re-entrantly from inside calls) and
// detects overlapping calls, which the exclusive lock must prevent.
type fakeLib struct {
	t *testing.T

	sink       ffi.Sink
	circStatus int
	cmdStatus  int
	vectors    []fakeVector

	depth        atomic.Int32
	circuitCalls atomic.Int32
	commandCalls atomic.Int32
}

func (f *fakeLib) enter() {
	if f.depth.Add(1) != 1 {
		f.t.Error("overlapping engine calls detected")
	}
}

func (f *fakeLib) leave() { f.depth.Add(-1) }

func (f *fakeLib) Init(sink ffi.Sink) error {
	f.sink = sink
	return nil
}

func (f *fakeLib) Circuit(lines []string) int {
	f.enter()
	defer f.leave()
	f.circuitCalls.Add(1)
	if len(lines) > 0 {
		f.sink.ConsumeLine("stdout loaded " + lines[0])
	}
	if f.circStatus != 0 {
		f.sink.ConsumeLine("stderr cannot parse circuit")
	}
	return f.circStatus
}

func (f *fakeLib) Command(cmd string) int {
	f.enter()
	defer f.leave()
	f.commandCalls.Add(1)
	f.sink.ConsumeLine("stdout ran " + cmd)
	f.sink.ConsumeLine("stderr warning for " + cmd)
	if f.cmdStatus != 0 {
		f.sink.ConsumeLine("stderr analysis failed")
	}
	return f.cmdStatus
}

func (f *fakeLib) CurrentPlot() string {
	f.enter()
	defer f.leave()
	return "op1"
}

func (f *fakeLib) VectorNames(plot string) []string {
	f.enter()
	defer f.leave()
	names := make([]string, len(f.vectors))
	for i, v := range f.vectors {
		names[i] = v.name
	}
	return names
}

func (f *fakeLib) VectorInfo(name string) (foreignVector, bool) {
	f.enter()
	defer f.leave()
	for _, v := range f.vectors {
		if v.name == name {
			return v, true
		}
	}
	return nil, false
}

func newTestEngine(t *testing.T, lib *fakeLib) *engine {
	t.Helper()
	lib.t = t
	e := &engine{lib: lib}
	if err := lib.Init(e); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	return e
}

func TestConsumeLineRouting(t *testing.T) {
	tests := []struct {
		line       string
		wantStdout string
		wantStderr string
	}{
		{"stdout hello", "hello\n", ""},
		{"stderr boom", "", "boom\n"},
		{"untagged line", "untagged line\n", ""},
		{"stderr", "stderr\n", ""}, // tag without trailing space is not a tag
	}

	for _, tt := range tests {
		e := &engine{}
		e.ConsumeLine(tt.line)
		if got := e.stdout.String(); got != tt.wantStdout {
			t.Errorf("ConsumeLine(%q) stdout = %q, want %q", tt.line, got, tt.wantStdout)
		}
		if got := e.stderr.String(); got != tt.wantStderr {
			t.Errorf("ConsumeLine(%q) stderr = %q, want %q", tt.line, got, tt.wantStderr)
		}
	}
}

func TestRunCollectsOutputAndVectors(t *testing.T) {
	lib := &fakeLib{
		vectors: []fakeVector{
			{name: "out", tag: 3, real: []float64{2.5}},
			{name: "in", tag: 3, real: []float64{5.0}},
			{name: "v(ac)", tag: 2, comp: []complex128{complex(1, -1)}},
		},
	}
	e := newTestEngine(t, lib)

	sim, err := e.run(validCircuit, "op")
	if err != nil {
		t.Fatalf("run() failed: %v", err)
	}

	if !strings.Contains(sim.Stdout, "ran op") {
		t.Errorf("Stdout = %q, want it to contain %q", sim.Stdout, "ran op")
	}
	if !strings.Contains(sim.Stderr, "warning for op") {
		t.Errorf("Stderr = %q, want it to contain %q", sim.Stderr, "warning for op")
	}

	if len(sim.Vectors) != 3 {
		t.Fatalf("got %d vectors, want 3", len(sim.Vectors))
	}

	out := sim.Vectors["out"]
	if out.DataType != DataTypeVoltage {
		t.Errorf("out datatype = %v, want voltage", out.DataType)
	}
	if out.Values.IsComplex() || len(out.Values.Real) != 1 || out.Values.Real[0] != 2.5 {
		t.Errorf("out values = %+v, want Real [2.5]", out.Values)
	}

	ac := sim.Vectors["v(ac)"]
	if ac.DataType != DataTypeFrequency {
		t.Errorf("v(ac) datatype = %v, want frequency", ac.DataType)
	}
	if !ac.Values.IsComplex() || ac.Values.Complex[0] != complex(1, -1) {
		t.Errorf("v(ac) values = %+v, want Complex [(1-1i)]", ac.Values)
	}
}

func TestRunIsolatesBuffersBetweenCalls(t *testing.T) {
	lib := &fakeLib{vectors: []fakeVector{{name: "x", tag: 1, real: []float64{0}}}}
	e := newTestEngine(t, lib)

	first, err := e.run(validCircuit, "first-cmd")
	if err != nil {
		t.Fatalf("first run() failed: %v", err)
	}
	second, err := e.run(validCircuit, "second-cmd")
	if err != nil {
		t.Fatalf("second run() failed: %v", err)
	}

	if !strings.Contains(first.Stdout, "first-cmd") {
		t.Errorf("first Stdout = %q, missing own marker", first.Stdout)
	}
	if strings.Contains(second.Stdout, "first-cmd") || strings.Contains(second.Stderr, "first-cmd") {
		t.Errorf("second run leaked first run's output: stdout=%q stderr=%q", second.Stdout, second.Stderr)
	}
}

func TestRunCircuitRejected(t *testing.T) {
	lib := &fakeLib{circStatus: 1}
	e := newTestEngine(t, lib)

	_, err := e.run(validCircuit, "op")
	var ice *InvalidCircuitError
	if !errors.As(err, &ice) {
		t.Fatalf("run() error = %v, want *InvalidCircuitError", err)
	}
	if !strings.Contains(ice.Log, "cannot parse circuit") {
		t.Errorf("InvalidCircuitError.Log = %q, want engine diagnostic", ice.Log)
	}
	if n := lib.commandCalls.Load(); n != 0 {
		t.Errorf("command was executed %d times after a rejected circuit", n)
	}
}

func TestRunCommandRejected(t *testing.T) {
	lib := &fakeLib{cmdStatus: 1}
	e := newTestEngine(t, lib)

	_, err := e.run(validCircuit, "noanalysis")
	var ue *UnknownError
	if !errors.As(err, &ue) {
		t.Fatalf("run() error = %v, want *UnknownError", err)
	}
	if !strings.Contains(ue.Log, "analysis failed") {
		t.Errorf("UnknownError.Log = %q, want engine diagnostic", ue.Log)
	}
}

func TestExtractPanicsOnVectorWithoutData(t *testing.T) {
	lib := &fakeLib{vectors: []fakeVector{{name: "ghost", tag: 3}}}
	e := newTestEngine(t, lib)

	defer func() {
		if recover() == nil {
			t.Error("run() did not panic on a vector with no payload")
		}
	}()
	e.run(validCircuit, "op")
}

func TestExtractPanicsOnVectorWithBothPayloads(t *testing.T) {
	lib := &fakeLib{vectors: []fakeVector{{
		name: "twin", tag: 3, real: []float64{1}, comp: []complex128{1},
	}}}
	e := newTestEngine(t, lib)

	defer func() {
		if recover() == nil {
			t.Error("run() did not panic on a vector with both payloads")
		}
	}()
	e.run(validCircuit, "op")
}

func TestRunPanicsAfterEngineAbort(t *testing.T) {
	lib := &fakeLib{}
	e := newTestEngine(t, lib)
	e.EngineExit(1)

	defer func() {
		if recover() == nil {
			t.Error("run() did not panic on an aborted engine")
		}
	}()
	e.run(validCircuit, "op")
}

// TestSimulateValidatesBeforeEngineInit proves invalid input is rejected
// without initializing (or calling) the engine at all.
func TestSimulateValidatesBeforeEngineInit(t *testing.T) {
	var opened atomic.Int32
	orig := openLibrary
	openLibrary = func() (foreign, error) {
		opened.Add(1)
		return nil, errors.New("must not be reached")
	}
	defer func() { openLibrary = orig }()

	if _, err := Simulate("R1 a b 1k\x00\n.end", "op"); !errors.Is(err, ErrInvalidStringEncoding) {
		t.Errorf("Simulate() error = %v, want ErrInvalidStringEncoding", err)
	}
	if _, err := Simulate(validCircuit, "quit"); err == nil {
		t.Error("Simulate() accepted a forbidden command")
	}
	if n := opened.Load(); n != 0 {
		t.Errorf("engine was initialized %d times for invalid input", n)
	}
}

func TestConcurrentRunsDoNotInterleave(t *testing.T) {
	lib := &fakeLib{vectors: []fakeVector{{name: "n1", tag: 3, real: []float64{1}}}}
	e := newTestEngine(t, lib)

	const workers = 8
	const runsPerWorker = 25

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < runsPerWorker; i++ {
				marker := fmt.Sprintf("cmd-%d-%d", w, i)
				sim, err := e.run(validCircuit, marker)
				if err != nil {
					t.Errorf("run() failed: %v", err)
					return
				}
				// Each record carries exactly its own run's output.
				if !strings.Contains(sim.Stdout, "ran "+marker) {
					t.Errorf("Stdout = %q, missing marker %q", sim.Stdout, marker)
				}
				if strings.Count(sim.Stdout, "ran cmd-") != 1 {
					t.Errorf("Stdout interleaved output from another run: %q", sim.Stdout)
				}
			}
		}(w)
	}
	wg.Wait()

	want := int32(workers * runsPerWorker)
	if got := lib.circuitCalls.Load(); got != want {
		t.Errorf("circuit calls = %d, want %d", got, want)
	}
}
