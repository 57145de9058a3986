package config

import (
	"errors"
	"strings"
	"testing"
)

func validConfig() *Config {
	return NewDefaultConfig()
}

func fieldErrors(t *testing.T, err error) []FieldError {
	t.Helper()
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	return verr.Errors
}

func hasFieldError(errs []FieldError, field string) bool {
	for _, e := range errs {
		if e.Field == field {
			return true
		}
	}
	return false
}

func TestValidateDefaultsAreValid(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Errorf("Validate(defaults) failed: %v", err)
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Server.ListenAddress = ""
	cfg.Storage.Backend = "postgres"
	cfg.Telemetry.Logging.Level = "loud"

	errs := fieldErrors(t, Validate(cfg))
	if len(errs) != 3 {
		t.Fatalf("got %d errors, want 3: %v", len(errs), errs)
	}
	for _, field := range []string{"server.listen_address", "storage.backend", "telemetry.logging.level"} {
		if !hasFieldError(errs, field) {
			t.Errorf("missing error for %s", field)
		}
	}
}

func TestValidateFields(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{
			name:      "empty default command",
			mutate:    func(c *Config) { c.Engine.DefaultCommand = "   " },
			wantField: "engine.default_command",
		},
		{
			name:      "negative read timeout",
			mutate:    func(c *Config) { c.Server.ReadTimeout = -1 },
			wantField: "server.read_timeout",
		},
		{
			name:      "oversized header limit",
			mutate:    func(c *Config) { c.Server.MaxHeaderBytes = 64 * 1024 * 1024 },
			wantField: "server.max_header_bytes",
		},
		{
			name:      "unknown sqlite driver",
			mutate:    func(c *Config) { c.Storage.Driver = "mysql" },
			wantField: "storage.driver",
		},
		{
			name:      "sqlite without path",
			mutate:    func(c *Config) { c.Storage.Path = "" },
			wantField: "storage.path",
		},
		{
			name:      "negative retention days",
			mutate:    func(c *Config) { c.Retention.Days = -1 },
			wantField: "retention.days",
		},
		{
			name:      "retention without schedule",
			mutate:    func(c *Config) { c.Retention.Schedule = "" },
			wantField: "retention.schedule",
		},
		{
			name: "watch enabled without directory",
			mutate: func(c *Config) {
				c.Watch.Enabled = true
				c.Watch.Directory = ""
			},
			wantField: "watch.directory",
		},
		{
			name:      "extension without dot",
			mutate:    func(c *Config) { c.Watch.Extensions = []string{"cir"} },
			wantField: "watch.extensions",
		},
		{
			name:      "bad logging format",
			mutate:    func(c *Config) { c.Telemetry.Logging.Format = "xml" },
			wantField: "telemetry.logging.format",
		},
		{
			name:      "metrics path without slash",
			mutate:    func(c *Config) { c.Telemetry.Metrics.Path = "metrics" },
			wantField: "telemetry.metrics.path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			errs := fieldErrors(t, Validate(cfg))
			if !hasFieldError(errs, tt.wantField) {
				t.Errorf("Validate() errors = %v, want one for %s", errs, tt.wantField)
			}
		})
	}
}

func TestValidateMemoryBackendIgnoresSQLiteFields(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Backend = "memory"
	cfg.Storage.Driver = ""
	cfg.Storage.Path = ""
	if err := Validate(cfg); err != nil {
		t.Errorf("Validate() failed for memory backend: %v", err)
	}
}

func TestValidationErrorFormatting(t *testing.T) {
	err := ValidationError{Errors: []FieldError{
		{Field: "server.listen_address", Message: "listen address is required"},
		{Field: "storage.backend", Message: "unknown backend"},
	}}
	msg := err.Error()
	if !strings.Contains(msg, "2 errors") {
		t.Errorf("Error() = %q, want error count", msg)
	}
	if !strings.Contains(msg, "server.listen_address: listen address is required") {
		t.Errorf("Error() = %q, want field detail", msg)
	}

	single := ValidationError{Errors: err.Errors[:1]}
	if strings.Contains(single.Error(), "\n") {
		t.Errorf("single-error message should be one line: %q", single.Error())
	}
}
