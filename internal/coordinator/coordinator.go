// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package coordinator assembles a SessionStartEvent for every new session and hands it to
// the event bus for whoever consumes session starts.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ManuGH/sessiond/internal/bus"
	"github.com/ManuGH/sessiond/internal/clock"
	"github.com/ManuGH/sessiond/internal/identifiers"
	"github.com/ManuGH/sessiond/internal/log"
	"github.com/ManuGH/sessiond/internal/metrics"
	"github.com/ManuGH/sessiond/internal/telemetry"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrNoSession is returned by RunMain when given a session without an ID.
var ErrNoSession = errors.New("no current session")

// Report results, used as metric labels.
const (
	resultPublished = "published"
	resultFailed    = "failed"
)

// SessionStartEvent is published on bus.TopicSessionStart.
type SessionStartEvent struct {
	AppID             string    `json:"app_id"`
	SessionID         string    `json:"session_id"`
	PreviousSessionID string    `json:"previous_session_id,omitempty"`
	FirstSessionID    string    `json:"first_session_id"`
	SessionIndex      int       `json:"session_index"`
	InstallationID    string    `json:"installation_id"`
	Timestamp         time.Time `json:"timestamp"`
}

// Sessions resolves the installation ID attached to every report.
type Sessions interface {
	InstallationID(ctx context.Context) (string, error)
}

// Coordinator reports session starts.
type Coordinator struct {
	appID    string
	sessions Sessions
	bus      bus.Bus
	topic    string
	clock    clock.Clock
	tracer   trace.Tracer
	logger   zerolog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

func WithClock(c clock.Clock) Option {
	return func(co *Coordinator) { co.clock = c }
}

func WithTracer(t trace.Tracer) Option {
	return func(co *Coordinator) { co.tracer = t }
}

func WithTopic(topic string) Option {
	return func(co *Coordinator) { co.topic = topic }
}

func New(appID string, sessions Sessions, b bus.Bus, opts ...Option) *Coordinator {
	c := &Coordinator{
		appID:    appID,
		sessions: sessions,
		bus:      b,
		topic:    bus.TopicSessionStart,
		clock:    clock.Real{},
		tracer:   telemetry.Tracer(telemetry.TracerCoordinator),
		logger:   log.WithComponent("coordinator"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunMain builds the start event for info and publishes it. The session is passed in rather
// than read back from Sessions so overlapping async starts each report their own ID.
func (c *Coordinator) RunMain(ctx context.Context, info identifiers.SessionInfo) error {
	ctx, span := c.tracer.Start(ctx, "coordinator.run_main")
	defer span.End()

	err := c.runMain(ctx, span, info)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(telemetry.ErrorAttributes(err, "report")...)
		metrics.RecordReport(resultFailed)
		logger := log.WithContext(ctx, c.logger)
		logger.Error().
			Err(err).
			Str(log.FieldEvent, "session.report_failed").
			Msg("failed to report session start")
		return err
	}
	metrics.RecordReport(resultPublished)
	return nil
}

func (c *Coordinator) runMain(ctx context.Context, span trace.Span, info identifiers.SessionInfo) error {
	if info.SessionID == "" {
		return ErrNoSession
	}
	span.SetAttributes(telemetry.SessionAttributes(c.appID, info.SessionID, info.PreviousSessionID, info.SessionIndex)...)

	installationID, err := c.sessions.InstallationID(ctx)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.String(telemetry.InstallationIDKey, installationID))

	ev := SessionStartEvent{
		AppID:             c.appID,
		SessionID:         info.SessionID,
		PreviousSessionID: info.PreviousSessionID,
		FirstSessionID:    info.FirstSessionID,
		SessionIndex:      info.SessionIndex,
		InstallationID:    installationID,
		Timestamp:         c.clock.Now(),
	}
	if err := c.bus.Publish(ctx, c.topic, ev); err != nil {
		return fmt.Errorf("publish session start: %w", err)
	}

	c.logger.Info().
		Str(log.FieldEvent, "session.reported").
		Str(log.FieldAppID, c.appID).
		Str(log.FieldSessionID, ev.SessionID).
		Str(log.FieldPreviousSessionID, ev.PreviousSessionID).
		Int(log.FieldSessionIndex, ev.SessionIndex).
		Str(log.FieldTopic, c.topic).
		Msg("session start published")
	return nil
}
