// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import "time"

// AppConfig is the fully resolved daemon configuration.
type AppConfig struct {
	Version string

	AppID   string
	DataDir string

	LogLevel   string
	LogService string

	Session   SessionConfig
	Lifecycle LifecycleConfig
	API       APIConfig
	Telemetry TelemetryConfig
}

// SessionConfig controls session start decisions.
type SessionConfig struct {
	// Timeout is the background duration after which foregrounding starts a new session.
	Timeout time.Duration
	// Dispatch is "sync" or "async".
	Dispatch string
	// ReportTimeout bounds one coordinator run.
	ReportTimeout time.Duration
}

// LifecycleConfig selects the host lifecycle adapters.
type LifecycleConfig struct {
	// Signals maps SIGTSTP/SIGCONT to background/foreground.
	Signals bool
	// Suspend re-raises SIGSTOP after SIGTSTP so Ctrl-Z still suspends the process.
	Suspend bool
}

// APIConfig controls the HTTP surface.
type APIConfig struct {
	Listen string
	// RateLimit is the number of lifecycle requests allowed per minute per client IP.
	RateLimit int
}

// TelemetryConfig mirrors telemetry.Config.
type TelemetryConfig struct {
	Enabled      bool
	Exporter     string
	Endpoint     string
	Environment  string
	SamplingRate float64
}

// FileConfig is the YAML representation. Pointer fields distinguish "unset" from zero.
type FileConfig struct {
	AppID   string `yaml:"app_id,omitempty"`
	DataDir string `yaml:"data_dir,omitempty"`

	Log struct {
		Level   string `yaml:"level,omitempty"`
		Service string `yaml:"service,omitempty"`
	} `yaml:"log,omitempty"`

	Session struct {
		Timeout       *time.Duration `yaml:"timeout,omitempty"`
		Dispatch      string         `yaml:"dispatch,omitempty"`
		ReportTimeout *time.Duration `yaml:"report_timeout,omitempty"`
	} `yaml:"session,omitempty"`

	Lifecycle struct {
		Signals *bool `yaml:"signals,omitempty"`
		Suspend *bool `yaml:"suspend,omitempty"`
	} `yaml:"lifecycle,omitempty"`

	API struct {
		Listen    string `yaml:"listen,omitempty"`
		RateLimit *int   `yaml:"rate_limit,omitempty"`
	} `yaml:"api,omitempty"`

	Telemetry struct {
		Enabled      *bool    `yaml:"enabled,omitempty"`
		Exporter     string   `yaml:"exporter,omitempty"`
		Endpoint     string   `yaml:"endpoint,omitempty"`
		Environment  string   `yaml:"environment,omitempty"`
		SamplingRate *float64 `yaml:"sampling_rate,omitempty"`
	} `yaml:"telemetry,omitempty"`
}
