// Package config provides configuration management for Galvani.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides. It provides a type-safe
// configuration system with validation and sensible defaults.
//
// # Configuration Loading
//
// Configuration can be loaded in three ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("config.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
//  3. Tolerating a missing file (defaults + environment only):
//     cfg, err := config.LoadConfigOrDefault("config.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention GALVANI_SECTION_FIELD.
// For example:
//
//   - GALVANI_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - GALVANI_ENGINE_LIBRARY_PATH overrides engine.library_path
//   - GALVANI_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Environment variables always take precedence over file-based configuration.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Validation
//
// All configuration is validated automatically during loading. Validation
// errors include field paths and helpful messages:
//
//	configuration validation failed with 2 errors:
//	  - server.listen_address: listen address is required
//	  - storage.backend: unknown backend "postgres" (must be "memory" or "sqlite")
//
// # Example Configuration
//
// Here is a minimal configuration file:
//
//	engine:
//	  library_path: "/usr/local/lib/libngspice.so"
//	  default_command: "op"
//
//	server:
//	  listen_address: "127.0.0.1:8866"
//
//	storage:
//	  backend: "sqlite"
//	  path: "data/runs.db"
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
package config
