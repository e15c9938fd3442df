// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ManuGH/sessiond/internal/validate"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvAppID, "com.example.app")

	cfg, err := NewLoader("", "v1.2.3").Load()
	require.NoError(t, err)

	require.Equal(t, "v1.2.3", cfg.Version)
	require.Equal(t, "com.example.app", cfg.AppID)
	require.Equal(t, DefaultDataDir, cfg.DataDir)
	require.Equal(t, 1800*time.Second, cfg.Session.Timeout)
	require.Equal(t, "sync", cfg.Session.Dispatch)
	require.Equal(t, 10*time.Second, cfg.Session.ReportTimeout)
	require.True(t, cfg.Lifecycle.Signals)
	require.False(t, cfg.Lifecycle.Suspend)
	require.Equal(t, ":8088", cfg.API.Listen)
	require.Equal(t, 120, cfg.API.RateLimit)
	require.False(t, cfg.Telemetry.Enabled)
	require.Equal(t, "grpc", cfg.Telemetry.Exporter)
	require.Equal(t, 1.0, cfg.Telemetry.SamplingRate)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dataDir := t.TempDir()
	path := writeConfig(t, `
app_id: com.example.file
data_dir: `+dataDir+`
log:
  level: debug
session:
  timeout: 5m
  dispatch: async
lifecycle:
  signals: false
api:
  rate_limit: 10
telemetry:
  enabled: true
  exporter: http
  endpoint: collector:4318
  sampling_rate: 0.25
`)

	cfg, err := NewLoader(path, "").Load()
	require.NoError(t, err)

	require.Equal(t, "com.example.file", cfg.AppID)
	require.Equal(t, dataDir, cfg.DataDir)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, 5*time.Minute, cfg.Session.Timeout)
	require.Equal(t, "async", cfg.Session.Dispatch)
	require.False(t, cfg.Lifecycle.Signals)
	require.Equal(t, 10, cfg.API.RateLimit)
	require.True(t, cfg.Telemetry.Enabled)
	require.Equal(t, "http", cfg.Telemetry.Exporter)
	require.Equal(t, "collector:4318", cfg.Telemetry.Endpoint)
	require.Equal(t, 0.25, cfg.Telemetry.SamplingRate)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
app_id: com.example.file
session:
  timeout: 5m
  dispatch: async
`)
	t.Setenv(EnvAppID, "com.example.env")
	t.Setenv(EnvSessionTimeout, "90s")
	t.Setenv(EnvLifecycleSignals, "no")

	l := NewLoader(path, "")
	cfg, err := l.Load()
	require.NoError(t, err)

	require.Equal(t, "com.example.env", cfg.AppID)
	require.Equal(t, 90*time.Second, cfg.Session.Timeout)
	require.Equal(t, "async", cfg.Session.Dispatch)
	require.False(t, cfg.Lifecycle.Signals)
	require.Contains(t, l.ConsumedEnvKeys, EnvSessionTimeout)
	require.Contains(t, l.ConsumedEnvKeys, EnvTelemetrySampling)
}

func TestLoad_InvalidEnvFallsBack(t *testing.T) {
	t.Setenv(EnvAppID, "com.example.app")
	t.Setenv(EnvSessionTimeout, "half an hour")
	t.Setenv(EnvAPIRateLimit, "many")

	cfg, err := NewLoader("", "").Load()
	require.NoError(t, err)
	require.Equal(t, DefaultTimeout, cfg.Session.Timeout)
	require.Equal(t, DefaultRateLimit, cfg.API.RateLimit)
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, `
app_id: com.example.app
unknownField: should_fail
`)

	_, err := NewLoader(path, "").Load()
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUnknownConfigField), "got %v", err)
	require.Contains(t, err.Error(), "unknownField")
}

func TestLoad_RejectsMultipleDocuments(t *testing.T) {
	path := writeConfig(t, "app_id: a\n---\napp_id: b\n")

	_, err := NewLoader(path, "").Load()
	require.ErrorContains(t, err, "multiple documents")
}

func TestLoad_EmptyFile(t *testing.T) {
	path := writeConfig(t, "")
	t.Setenv(EnvAppID, "com.example.app")

	cfg, err := NewLoader(path, "").Load()
	require.NoError(t, err)
	require.Equal(t, DefaultTimeout, cfg.Session.Timeout)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := NewLoader(filepath.Join(t.TempDir(), "missing.yaml"), "").Load()
	require.ErrorContains(t, err, "read file")
}

func TestLoad_ValidationFailure(t *testing.T) {
	t.Setenv(EnvAppID, "")
	t.Setenv(EnvSessionTimeout, "-5s")

	_, err := NewLoader("", "").Load()
	require.ErrorIs(t, err, ErrInvalidConfig)
	require.ErrorIs(t, err, validate.ErrInvalid)
	require.ErrorContains(t, err, "AppID")
	require.ErrorContains(t, err, "Session.Timeout")
}

func TestLoad_ExplicitZeroDurationsAreValidated(t *testing.T) {
	t.Setenv(EnvAppID, "com.example.app")
	path := writeConfig(t, "session:\n  timeout: 0s\n  report_timeout: 0s\n")

	_, err := NewLoader(path, "").Load()
	require.ErrorIs(t, err, ErrInvalidConfig)
	require.ErrorContains(t, err, "Session.Timeout")
	require.ErrorContains(t, err, "Session.ReportTimeout")
}

func TestValidate(t *testing.T) {
	valid := Defaults()
	valid.AppID = "com.example.app"
	require.NoError(t, Validate(valid))

	tests := []struct {
		name   string
		mutate func(*AppConfig)
		field  string
	}{
		{"zero timeout", func(c *AppConfig) { c.Session.Timeout = 0 }, "Session.Timeout"},
		{"unknown dispatch", func(c *AppConfig) { c.Session.Dispatch = "later" }, "Session.Dispatch"},
		{"zero report timeout", func(c *AppConfig) { c.Session.ReportTimeout = 0 }, "Session.ReportTimeout"},
		{"bad log level", func(c *AppConfig) { c.LogLevel = "loud" }, "LogLevel"},
		{"empty listen", func(c *AppConfig) { c.API.Listen = "" }, "API.Listen"},
		{"zero rate limit", func(c *AppConfig) { c.API.RateLimit = 0 }, "API.RateLimit"},
		{"sampling above one", func(c *AppConfig) { c.Telemetry.SamplingRate = 1.5 }, "Telemetry.SamplingRate"},
		{"unknown exporter", func(c *AppConfig) {
			c.Telemetry.Enabled = true
			c.Telemetry.Exporter = "zipkin"
		}, "Telemetry.Exporter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := Validate(cfg)
			require.Error(t, err)

			var verr validate.ValidationError
			require.True(t, errors.As(err, &verr))
			require.Len(t, verr.Errors(), 1)
			require.Equal(t, tt.field, verr.Errors()[0].Field)
		})
	}
}

func TestParseBool(t *testing.T) {
	for in, want := range map[string]bool{"true": true, "1": true, "YES": true, "false": false, "0": false, "no": false} {
		t.Setenv("SESSIOND_TEST_BOOL", in)
		require.Equal(t, want, ParseBool("SESSIOND_TEST_BOOL", !want), in)
	}
	t.Setenv("SESSIOND_TEST_BOOL", "maybe")
	require.True(t, ParseBool("SESSIOND_TEST_BOOL", true))
}
