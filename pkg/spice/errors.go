package spice

import (
	"errors"
	"fmt"
)

// ErrInvalidStringEncoding reports input text containing an embedded NUL
// byte. The engine consumes null-terminated strings, so such input cannot
// be submitted faithfully. Detected before any engine interaction.
var ErrInvalidStringEncoding = errors.New("spice: string contains an embedded NUL byte")

// InvalidCircuitError reports a circuit the engine rejected, or one that
// failed pre-submission checks. Log carries whatever diagnostic text is
// available: the engine's error stream for engine rejections, a reason
// string for pre-submission rejections.
type InvalidCircuitError struct {
	Log string
}

func (e *InvalidCircuitError) Error() string {
	if e.Log == "" {
		return "spice: error parsing circuit"
	}
	return fmt.Sprintf("spice: error parsing circuit; log follows:\n%s", e.Log)
}

// InvalidCommandError reports a command rejected before submission because
// it would corrupt the shared engine state (quit, shell escapes, background
// runs) or is empty.
type InvalidCommandError struct {
	Reason string
}

func (e *InvalidCommandError) Error() string {
	return fmt.Sprintf("spice: invalid command: %s", e.Reason)
}

// UnknownError reports an engine failure with no more specific
// classification, typically a rejected analysis command. Log carries the
// engine's error stream at the time of failure.
type UnknownError struct {
	Log string
}

func (e *UnknownError) Error() string {
	if e.Log == "" {
		return "spice: unknown engine error"
	}
	return fmt.Sprintf("spice: unknown engine error; log follows:\n%s", e.Log)
}
