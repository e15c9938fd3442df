// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"github.com/ManuGH/sessiond/internal/validate"
)

// Validate validates an AppConfig using the centralized validation package.
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.NotEmpty("AppID", cfg.AppID)
	v.NotEmpty("DataDir", cfg.DataDir)
	v.Custom("LogLevel", cfg.LogLevel, func(val interface{}) error {
		_, err := validate.ParseLogLevel(val.(string))
		return err
	})

	v.PositiveDuration("Session.Timeout", cfg.Session.Timeout)
	v.OneOf("Session.Dispatch", cfg.Session.Dispatch, []string{"sync", "async"})
	v.PositiveDuration("Session.ReportTimeout", cfg.Session.ReportTimeout)

	v.NotEmpty("API.Listen", cfg.API.Listen)
	v.Positive("API.RateLimit", cfg.API.RateLimit)

	if cfg.Telemetry.Enabled {
		v.OneOf("Telemetry.Exporter", cfg.Telemetry.Exporter, []string{"grpc", "http"})
		v.NotEmpty("Telemetry.Endpoint", cfg.Telemetry.Endpoint)
	}
	v.FloatRange("Telemetry.SamplingRate", cfg.Telemetry.SamplingRate, 0, 1)

	return v.Err()
}
