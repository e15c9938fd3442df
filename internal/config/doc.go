// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package config loads the sessiond configuration. Values resolve with precedence
// ENV > YAML file > defaults and are validated once, after all sources are applied.
// The configuration is immutable for the lifetime of the process.
package config
