// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	AppIDKey             = "app.id"
	SessionIDKey         = "session.id"
	SessionPreviousIDKey = "session.previous_id"
	SessionIndexKey      = "session.index"
	InstallationIDKey    = "installation.id"
	LifecycleKindKey     = "lifecycle.kind"
	LifecycleSourceKey   = "lifecycle.source"
	BusTopicKey          = "bus.topic"

	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// SessionAttributes creates session-related span attributes.
func SessionAttributes(appID, sessionID, previousID string, index int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AppIDKey, appID),
		attribute.String(SessionIDKey, sessionID),
		attribute.Int(SessionIndexKey, index),
	}
	if previousID != "" {
		attrs = append(attrs, attribute.String(SessionPreviousIDKey, previousID))
	}
	return attrs
}

// LifecycleAttributes creates lifecycle event span attributes.
func LifecycleAttributes(kind, source string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(LifecycleKindKey, kind),
		attribute.String(LifecycleSourceKey, source),
	}
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(err error, errorType string) []attribute.KeyValue {
	if err == nil {
		return nil
	}
	return []attribute.KeyValue{
		attribute.String(ErrorKey, err.Error()),
		attribute.String(ErrorTypeKey, errorType),
	}
}
