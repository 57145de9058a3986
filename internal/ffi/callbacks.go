package ffi

import (
	"fmt"
	"runtime/cgo"
	"sync"
	"unicode/utf8"

	"github.com/ebitengine/purego"
)

// Sink receives push-style notifications from the engine. Implementations
// are invoked synchronously, re-entrantly from inside engine calls, on
// whatever thread the engine happens to run the callback.
type Sink interface {
	// ConsumeLine receives one line of diagnostic output, without a
	// trailing newline.
	ConsumeLine(line string)

	// EngineExit is called when the engine reports an unrecoverable
	// internal condition. The engine is unusable afterwards; the
	// trampoline panics as soon as EngineExit returns.
	EngineExit(status int)
}

var (
	trampolineOnce sync.Once
	sendCharCB     uintptr
	exitCB         uintptr
)

// trampolines returns the C-callable entry points registered with
// ngSpice_Init. purego.NewCallback allocations are permanent, so they are
// created once and reused.
func trampolines() (sendChar, controlledExit uintptr) {
	trampolineOnce.Do(func() {
		sendCharCB = purego.NewCallback(sendCharTrampoline)
		exitCB = purego.NewCallback(controlledExitTrampoline)
	})
	return sendCharCB, exitCB
}

// sendCharTrampoline matches ngspice's SendChar signature
// int(char *, int, void *). ctx is the cgo.Handle token passed to
// ngSpice_Init; recovering the Sink from it is the only interpretation of
// the token anywhere in the module.
func sendCharTrampoline(msg, _, ctx uintptr) uintptr {
	line := goString(msg)
	if !utf8.ValidString(line) {
		// Garbage from the engine means the ABI contract is broken;
		// nothing downstream can be trusted.
		panic(fmt.Sprintf("ffi: non-UTF-8 output from ngspice: %q", line))
	}
	cgo.Handle(ctx).Value().(Sink).ConsumeLine(line)
	return 0
}

// controlledExitTrampoline matches ngspice's ControlledExit signature
// int(int, NG_BOOL, NG_BOOL, int, void *). The engine calls it when it hits
// a condition it cannot recover from; there is no defined way to keep using
// the engine afterwards.
func controlledExitTrampoline(status, _, _, _, ctx uintptr) uintptr {
	cgo.Handle(ctx).Value().(Sink).EngineExit(int(int32(status)))
	panic(fmt.Sprintf("ffi: ngspice requested exit with status %d", int(int32(status))))
}
