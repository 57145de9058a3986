package ffi

import (
	"fmt"
	"runtime"
	"runtime/cgo"
	"unsafe"

	"github.com/ebitengine/purego"
)

// Library wraps one loaded libngspice shared object.
//
// libngspice holds process-global state: it can be initialized once, and it
// supports no concurrent access of any kind. Library itself performs no
// locking; callers must serialize every method call after Init.
type Library struct {
	handle uintptr

	ngInit    func(sendChar, sendStat, controlledExit, sendData, sendInitData, bgThreadRunning, ctx uintptr) int32
	ngCirc    func(lines uintptr) int32
	ngCommand func(cmd uintptr) int32
	ngCurPlot func() uintptr
	ngAllVecs func(plot uintptr) uintptr
	ngVecInfo func(name uintptr) uintptr
}

// defaultLibraryName is the platform-specific name dlopen resolves when no
// explicit path is configured.
func defaultLibraryName() string {
	switch runtime.GOOS {
	case "darwin":
		return "libngspice.dylib"
	default:
		return "libngspice.so"
	}
}

// Open loads the ngspice shared library and resolves the entry points this
// module uses. An empty path loads the platform default library name from
// the system search path.
func Open(path string) (*Library, error) {
	if path == "" {
		path = defaultLibraryName()
	}

	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("ffi: loading %s: %w", path, err)
	}

	lib := &Library{handle: handle}
	purego.RegisterLibFunc(&lib.ngInit, handle, "ngSpice_Init")
	purego.RegisterLibFunc(&lib.ngCirc, handle, "ngSpice_Circ")
	purego.RegisterLibFunc(&lib.ngCommand, handle, "ngSpice_Command")
	purego.RegisterLibFunc(&lib.ngCurPlot, handle, "ngSpice_CurPlot")
	purego.RegisterLibFunc(&lib.ngAllVecs, handle, "ngSpice_AllVecs")
	purego.RegisterLibFunc(&lib.ngVecInfo, handle, "ngGet_Vec_Info")

	return lib, nil
}

// Init registers the diagnostic and fatal-exit callbacks with the engine.
// The sink is pinned behind a cgo.Handle that lives for the rest of the
// process; the engine keeps the raw token and uses it on every callback.
//
// Init must be called exactly once per process.
func (l *Library) Init(sink Sink) error {
	h := cgo.NewHandle(sink)
	sendCharCB, exitCB := trampolines()

	if status := l.ngInit(sendCharCB, 0, exitCB, 0, 0, 0, uintptr(h)); status != 0 {
		return fmt.Errorf("ffi: ngSpice_Init returned status %d", status)
	}
	return nil
}

// Circuit submits a circuit as the engine expects it: a null-terminated
// array of pointers to null-terminated lines. Returns the engine status
// code (zero means the circuit parsed).
func (l *Library) Circuit(lines []string) int {
	bufs := make([][]byte, len(lines))
	ptrs := make([]uintptr, len(lines)+1)
	for i, line := range lines {
		bufs[i] = cstring(line)
		ptrs[i] = uintptr(unsafe.Pointer(&bufs[i][0]))
	}
	// Sentinel null pointer terminates the array.
	ptrs[len(lines)] = 0

	status := l.ngCirc(uintptr(unsafe.Pointer(&ptrs[0])))
	runtime.KeepAlive(bufs)
	runtime.KeepAlive(ptrs)
	return int(status)
}

// Command submits one analysis command. Returns the engine status code.
func (l *Library) Command(cmd string) int {
	buf := cstring(cmd)
	status := l.ngCommand(uintptr(unsafe.Pointer(&buf[0])))
	runtime.KeepAlive(buf)
	return int(status)
}

// CurrentPlot returns the name of the engine's current result set.
func (l *Library) CurrentPlot() string {
	return goString(l.ngCurPlot())
}

// VectorNames enumerates the vector names of the given result set. The
// engine terminates the enumeration with a null pointer.
func (l *Library) VectorNames(plot string) []string {
	buf := cstring(plot)
	arr := l.ngAllVecs(uintptr(unsafe.Pointer(&buf[0])))
	runtime.KeepAlive(buf)
	if arr == 0 {
		return nil
	}

	var names []string
	for i := 0; ; i++ {
		p := *(*uintptr)(unsafe.Pointer(arr + uintptr(i)*unsafe.Sizeof(uintptr(0))))
		if p == 0 {
			break
		}
		names = append(names, goString(p))
	}
	return names
}

// VectorInfo fetches the engine's info record for a named vector of the
// current result set. The returned Vector is a view into engine-owned
// memory and is only valid until the next engine call.
func (l *Library) VectorInfo(name string) (Vector, bool) {
	buf := cstring(name)
	p := l.ngVecInfo(uintptr(unsafe.Pointer(&buf[0])))
	runtime.KeepAlive(buf)
	if p == 0 {
		return Vector{}, false
	}
	return Vector{raw: (*vecInfo)(unsafe.Pointer(p))}, true
}

// cstring returns s as a null-terminated byte buffer.
func cstring(s string) []byte {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return b
}

// goString copies a null-terminated C string into a Go string.
func goString(p uintptr) string {
	if p == 0 {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Pointer(p + uintptr(n))) != 0 {
		n++
	}
	if n == 0 {
		return ""
	}
	return string(unsafe.Slice((*byte)(unsafe.Pointer(p)), n))
}
