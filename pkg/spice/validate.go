package spice

import (
	"fmt"
	"strings"
)

// Directives that must never reach the shared engine. quit tears the
// engine down mid-process, shell escapes to a subprocess, and source pulls
// in files outside the submitted netlist; any of them leaves the singleton
// in a state later calls cannot reason about.
var forbiddenDirectives = map[string]bool{
	"quit":   true,
	"shell":  true,
	"source": true,
}

// CheckCircuit validates a circuit description without touching the
// engine. It rejects text with embedded NUL bytes
// (ErrInvalidStringEncoding), circuits missing a .end terminator, and
// circuits containing control directives that would corrupt the shared
// engine state (*InvalidCircuitError). The check is side-effect-free and
// requires no lock.
func CheckCircuit(circuit string) error {
	if strings.ContainsRune(circuit, 0) {
		return ErrInvalidStringEncoding
	}

	hasEnd := false
	for _, line := range splitLines(circuit) {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "*") {
			continue
		}
		lower := strings.ToLower(trimmed)
		if lower == ".end" {
			hasEnd = true
			continue
		}
		if strings.HasPrefix(lower, ".control") {
			return &InvalidCircuitError{Log: "circuit contains a .control block; submit analysis via the command argument instead"}
		}
		if token, _, _ := strings.Cut(lower, " "); forbiddenDirectives[token] {
			return &InvalidCircuitError{Log: fmt.Sprintf("circuit contains forbidden directive %q", token)}
		}
	}
	if !hasEnd {
		return &InvalidCircuitError{Log: "circuit is missing the .end terminator"}
	}
	return nil
}

// CheckCommand validates an analysis command without touching the engine.
// It rejects text with embedded NUL bytes (ErrInvalidStringEncoding),
// empty commands, and commands that would corrupt the shared engine state
// (*InvalidCommandError). The check is side-effect-free and requires no
// lock.
func CheckCommand(command string) error {
	if strings.ContainsRune(command, 0) {
		return ErrInvalidStringEncoding
	}

	fields := strings.Fields(strings.ToLower(command))
	if len(fields) == 0 {
		return &InvalidCommandError{Reason: "empty command"}
	}
	head := fields[0]
	if forbiddenDirectives[head] {
		return &InvalidCommandError{Reason: fmt.Sprintf("%q is not permitted", head)}
	}
	// bg_run and friends hand the engine to a background thread, which
	// breaks the exclusive-lock discipline around the singleton.
	if strings.HasPrefix(head, "bg_") {
		return &InvalidCommandError{Reason: fmt.Sprintf("background command %q is not permitted", head)}
	}
	return nil
}

// splitLines splits on newlines, tolerating CRLF endings. The final line
// needs no terminator.
func splitLines(s string) []string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}
