// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ManuGH/sessiond/internal/log"
	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultDataDir       = "/tmp/sessiond"
	DefaultLogLevel      = "info"
	DefaultLogService    = "sessiond"
	DefaultTimeout       = 1800 * time.Second
	DefaultDispatch      = "sync"
	DefaultReportTimeout = 10 * time.Second
	DefaultListen        = ":8088"
	DefaultRateLimit     = 120
	DefaultExporter      = "grpc"
	DefaultEndpoint      = "localhost:4317"
)

// Environment keys.
const (
	EnvAppID             = "SESSIOND_APP_ID"
	EnvDataDir           = "SESSIOND_DATA"
	EnvLogLevel          = "SESSIOND_LOG_LEVEL"
	EnvLogService        = "SESSIOND_LOG_SERVICE"
	EnvSessionTimeout    = "SESSIOND_SESSION_TIMEOUT"
	EnvSessionDispatch   = "SESSIOND_SESSION_DISPATCH"
	EnvReportTimeout     = "SESSIOND_REPORT_TIMEOUT"
	EnvLifecycleSignals  = "SESSIOND_LIFECYCLE_SIGNALS"
	EnvLifecycleSuspend  = "SESSIOND_LIFECYCLE_SUSPEND"
	EnvAPIListen         = "SESSIOND_API_LISTEN"
	EnvAPIRateLimit      = "SESSIOND_API_RATE_LIMIT"
	EnvTelemetryEnabled  = "SESSIOND_TELEMETRY_ENABLED"
	EnvTelemetryExporter = "SESSIOND_TELEMETRY_EXPORTER"
	EnvTelemetryEndpoint = "SESSIOND_TELEMETRY_ENDPOINT"
	EnvTelemetryEnv      = "SESSIOND_TELEMETRY_ENVIRONMENT"
	EnvTelemetrySampling = "SESSIOND_TELEMETRY_SAMPLING"
)

// Loader handles configuration loading with precedence
type Loader struct {
	configPath      string
	version         string
	ConsumedEnvKeys map[string]struct{} // keys read during the last Load
}

// NewLoader creates a new configuration loader. An empty configPath skips the file layer.
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

func (l *Loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, defaultVal)
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, defaultVal)
}

// Load loads configuration with precedence: ENV > File > Defaults.
// Order: defaults -> strict file parse -> env overrides -> validate.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()
	cfg.Version = l.version

	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file %s: %w", l.configPath, err)
		}
		mergeFile(&cfg, fileCfg)
	}

	l.mergeEnv(&cfg)

	if cfg.DataDir != "" {
		abs, err := filepath.Abs(cfg.DataDir)
		if err != nil {
			return cfg, fmt.Errorf("resolve data dir: %w", err)
		}
		cfg.DataDir = abs
	}

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	logger := log.WithComponent("config")
	logger.Info().
		Str(log.FieldEvent, "config.loaded").
		Str(log.FieldAppID, cfg.AppID).
		Str(log.FieldPath, l.configPath).
		Int("env_keys", len(l.ConsumedEnvKeys)).
		Msg("configuration loaded")
	return cfg, nil
}

// Defaults returns the configuration used when neither file nor environment set a value.
func Defaults() AppConfig {
	return AppConfig{
		DataDir:    DefaultDataDir,
		LogLevel:   DefaultLogLevel,
		LogService: DefaultLogService,
		Session: SessionConfig{
			Timeout:       DefaultTimeout,
			Dispatch:      DefaultDispatch,
			ReportTimeout: DefaultReportTimeout,
		},
		Lifecycle: LifecycleConfig{Signals: true},
		API: APIConfig{
			Listen:    DefaultListen,
			RateLimit: DefaultRateLimit,
		},
		Telemetry: TelemetryConfig{
			Exporter:     DefaultExporter,
			Endpoint:     DefaultEndpoint,
			SamplingRate: 1.0,
		},
	}
}

func (l *Loader) loadFile(path string) (*FileConfig, error) {
	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&fileCfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &FileConfig{}, nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("strict config parse error: %w: %w", ErrUnknownConfigField, err)
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return &fileCfg, nil
}

func mergeFile(dst *AppConfig, src *FileConfig) {
	if src.AppID != "" {
		dst.AppID = src.AppID
	}
	if src.DataDir != "" {
		dst.DataDir = src.DataDir
	}
	if src.Log.Level != "" {
		dst.LogLevel = src.Log.Level
	}
	if src.Log.Service != "" {
		dst.LogService = src.Log.Service
	}

	if src.Session.Timeout != nil {
		dst.Session.Timeout = *src.Session.Timeout
	}
	if src.Session.Dispatch != "" {
		dst.Session.Dispatch = src.Session.Dispatch
	}
	if src.Session.ReportTimeout != nil {
		dst.Session.ReportTimeout = *src.Session.ReportTimeout
	}

	if src.Lifecycle.Signals != nil {
		dst.Lifecycle.Signals = *src.Lifecycle.Signals
	}
	if src.Lifecycle.Suspend != nil {
		dst.Lifecycle.Suspend = *src.Lifecycle.Suspend
	}

	if src.API.Listen != "" {
		dst.API.Listen = src.API.Listen
	}
	if src.API.RateLimit != nil {
		dst.API.RateLimit = *src.API.RateLimit
	}

	if src.Telemetry.Enabled != nil {
		dst.Telemetry.Enabled = *src.Telemetry.Enabled
	}
	if src.Telemetry.Exporter != "" {
		dst.Telemetry.Exporter = src.Telemetry.Exporter
	}
	if src.Telemetry.Endpoint != "" {
		dst.Telemetry.Endpoint = src.Telemetry.Endpoint
	}
	if src.Telemetry.Environment != "" {
		dst.Telemetry.Environment = src.Telemetry.Environment
	}
	if src.Telemetry.SamplingRate != nil {
		dst.Telemetry.SamplingRate = *src.Telemetry.SamplingRate
	}
}

func (l *Loader) mergeEnv(cfg *AppConfig) {
	cfg.AppID = l.envString(EnvAppID, cfg.AppID)
	cfg.DataDir = l.envString(EnvDataDir, cfg.DataDir)
	cfg.LogLevel = l.envString(EnvLogLevel, cfg.LogLevel)
	cfg.LogService = l.envString(EnvLogService, cfg.LogService)

	cfg.Session.Timeout = l.envDuration(EnvSessionTimeout, cfg.Session.Timeout)
	cfg.Session.Dispatch = l.envString(EnvSessionDispatch, cfg.Session.Dispatch)
	cfg.Session.ReportTimeout = l.envDuration(EnvReportTimeout, cfg.Session.ReportTimeout)

	cfg.Lifecycle.Signals = l.envBool(EnvLifecycleSignals, cfg.Lifecycle.Signals)
	cfg.Lifecycle.Suspend = l.envBool(EnvLifecycleSuspend, cfg.Lifecycle.Suspend)

	cfg.API.Listen = l.envString(EnvAPIListen, cfg.API.Listen)
	cfg.API.RateLimit = l.envInt(EnvAPIRateLimit, cfg.API.RateLimit)

	cfg.Telemetry.Enabled = l.envBool(EnvTelemetryEnabled, cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = l.envString(EnvTelemetryExporter, cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = l.envString(EnvTelemetryEndpoint, cfg.Telemetry.Endpoint)
	cfg.Telemetry.Environment = l.envString(EnvTelemetryEnv, cfg.Telemetry.Environment)
	cfg.Telemetry.SamplingRate = l.envFloat(EnvTelemetrySampling, cfg.Telemetry.SamplingRate)
}
