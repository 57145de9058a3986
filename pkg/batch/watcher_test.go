package batch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"volthaus/galvani/pkg/config"
	"volthaus/galvani/pkg/results"
	"volthaus/galvani/pkg/results/storage"
	"volthaus/galvani/pkg/spice"
	"volthaus/galvani/pkg/telemetry/metrics"
)

type fakeSimulator struct {
	mu       sync.Mutex
	circuits []string
	commands []string
	err      error
}

func (f *fakeSimulator) Simulate(ctx context.Context, circuit, command string) (*spice.Simulation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.circuits = append(f.circuits, circuit)
	f.commands = append(f.commands, command)
	if f.err != nil {
		return nil, f.err
	}
	return &spice.Simulation{
		Stdout: "simulated",
		Vectors: map[string]spice.VectorInfo{
			"v(1)": {DataType: spice.DataTypeVoltage, Values: spice.VectorValues{Real: []float64{1.5}}},
		},
	}, nil
}

func (f *fakeSimulator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.circuits)
}

func testWatchConfig(dir string) *config.WatchConfig {
	return &config.WatchConfig{
		Enabled:          true,
		Directory:        dir,
		Extensions:       []string{".cir", ".sp"},
		DebounceInterval: 20 * time.Millisecond,
	}
}

func newTestWatcher(t *testing.T, dir string, sim spice.Simulator, store storage.Storage) *Watcher {
	t.Helper()
	collector := metrics.NewCollector(&config.MetricsConfig{Enabled: false, Namespace: "galvani"}, nil)
	w, err := NewWatcher(testWatchConfig(dir), "op", sim, store, collector)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	return w
}

// waitFor polls the condition until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestWatcherSimulatesNewNetlist(t *testing.T) {
	dir := t.TempDir()
	sim := &fakeSimulator{}
	store := storage.NewMemoryStorage()
	w := newTestWatcher(t, dir, sim, store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	// Let the watcher register the directory before writing.
	time.Sleep(50 * time.Millisecond)

	circuit := "test rc\nR1 1 0 1k\n.end\n"
	if err := os.WriteFile(filepath.Join(dir, "rc.cir"), []byte(circuit), 0o644); err != nil {
		t.Fatal(err)
	}

	if !waitFor(t, 2*time.Second, func() bool { return sim.calls() == 1 }) {
		t.Fatalf("simulator calls = %d, want 1", sim.calls())
	}
	sim.mu.Lock()
	if sim.circuits[0] != circuit {
		t.Errorf("simulated circuit = %q, want %q", sim.circuits[0], circuit)
	}
	if sim.commands[0] != "op" {
		t.Errorf("simulated command = %q, want %q", sim.commands[0], "op")
	}
	sim.mu.Unlock()

	stored := false
	waitFor(t, 2*time.Second, func() bool {
		n, err := store.Count(context.Background())
		stored = err == nil && n == 1
		return stored
	})
	if !stored {
		t.Error("expected one stored run")
	}
	records, err := store.List(context.Background(), &storage.Query{})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Status != results.StatusOK {
		t.Errorf("stored records = %+v, want one ok run", records)
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	sim := &fakeSimulator{}
	w := newTestWatcher(t, dir, sim, storage.NewMemoryStorage())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	time.Sleep(50 * time.Millisecond)

	for _, name := range []string{"notes.txt", ".hidden.cir", "plot.png"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("data"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	time.Sleep(200 * time.Millisecond)
	if calls := sim.calls(); calls != 0 {
		t.Errorf("simulator calls = %d, want 0", calls)
	}
}

func TestWatcherDebouncesRapidWrites(t *testing.T) {
	dir := t.TempDir()
	sim := &fakeSimulator{}
	w := newTestWatcher(t, dir, sim, storage.NewMemoryStorage())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	time.Sleep(50 * time.Millisecond)

	path := filepath.Join(dir, "burst.cir")
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte("test\n.end\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	if !waitFor(t, 2*time.Second, func() bool { return sim.calls() >= 1 }) {
		t.Fatal("simulator was never called")
	}
	// Wait out any stragglers before counting.
	time.Sleep(200 * time.Millisecond)
	if calls := sim.calls(); calls != 1 {
		t.Errorf("simulator calls = %d, want 1 after debounce", calls)
	}
}

func TestWatcherConfigCommandOverride(t *testing.T) {
	dir := t.TempDir()
	cfg := testWatchConfig(dir)
	cfg.Command = "tran 1u 1m"
	collector := metrics.NewCollector(&config.MetricsConfig{Enabled: false, Namespace: "galvani"}, nil)
	sim := &fakeSimulator{}
	w, err := NewWatcher(cfg, "op", sim, storage.NewMemoryStorage(), collector)
	if err != nil {
		t.Fatal(err)
	}
	if w.command != "tran 1u 1m" {
		t.Errorf("command = %q, want config override", w.command)
	}
}

func TestWatcherStop(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t, dir, &fakeSimulator{}, storage.NewMemoryStorage())

	done := make(chan error, 1)
	go func() { done <- w.Watch(context.Background()) }()

	time.Sleep(50 * time.Millisecond)
	if err := w.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Watch() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after Stop")
	}

	// Stopping twice is a no-op.
	if err := w.Stop(); err != nil {
		t.Fatalf("second Stop() error = %v", err)
	}
}

func TestWatcherStopAfterContextCancel(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t, dir, &fakeSimulator{}, storage.NewMemoryStorage())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Watch() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after context cancellation")
	}

	// Stop must still release the fsnotify watcher and the debouncer.
	if err := w.Stop(); err != nil {
		t.Fatalf("Stop() after cancel error = %v", err)
	}
	select {
	case _, ok := <-w.watcher.Events:
		if ok {
			t.Error("unexpected event on stopped watcher")
		}
	case <-time.After(2 * time.Second):
		t.Error("fsnotify events channel not closed after Stop")
	}

	w.debounce.mu.Lock()
	stopped := w.debounce.stopped
	w.debounce.mu.Unlock()
	if !stopped {
		t.Error("debouncer not stopped after Stop")
	}
}

func TestWatcherConcurrentStop(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t, dir, &fakeSimulator{}, storage.NewMemoryStorage())

	done := make(chan error, 1)
	go func() { done <- w.Watch(context.Background()) }()
	time.Sleep(50 * time.Millisecond)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := w.Stop(); err != nil {
				t.Errorf("Stop() error = %v", err)
			}
		}()
	}
	wg.Wait()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Watch() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after Stop")
	}
}

func TestDebouncerCoalesces(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Stop()

	var mu sync.Mutex
	counts := map[string]int{}
	bump := func(key string) func() {
		return func() {
			mu.Lock()
			counts[key]++
			mu.Unlock()
		}
	}

	for i := 0; i < 10; i++ {
		d.Trigger("a", bump("a"))
	}
	d.Trigger("b", bump("b"))

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if counts["a"] != 1 {
		t.Errorf("key a fired %d times, want 1", counts["a"])
	}
	if counts["b"] != 1 {
		t.Errorf("key b fired %d times, want 1", counts["b"])
	}
}

func TestDebouncerStopCancelsPending(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	fired := make(chan struct{}, 1)
	d.Trigger("a", func() { fired <- struct{}{} })
	d.Stop()

	select {
	case <-fired:
		t.Error("callback fired after Stop")
	case <-time.After(150 * time.Millisecond):
	}
}
