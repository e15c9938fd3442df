// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package sessions wires the initiator to its collaborators: every session start rotates
// the session identifier and asks the coordinator to report it.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ManuGH/sessiond/internal/identifiers"
	"github.com/ManuGH/sessiond/internal/initiator"
	"github.com/ManuGH/sessiond/internal/log"
	"github.com/rs/zerolog"
)

// DefaultReportTimeout bounds a single coordinator run.
const DefaultReportTimeout = 10 * time.Second

// IDGenerator rotates the session identifier.
type IDGenerator interface {
	GenerateNewSessionID() identifiers.SessionInfo
}

// Reporter reports a freshly started session.
type Reporter interface {
	RunMain(ctx context.Context, info identifiers.SessionInfo) error
}

// Initiator decides when sessions start.
type Initiator interface {
	Begin(cb initiator.Callback) error
	Close() error
}

// Sessions owns the running initiator for one application.
type Sessions struct {
	appID         string
	ids           IDGenerator
	reporter      Reporter
	initiator     Initiator
	reportTimeout time.Duration
	logger        zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// Option configures Sessions.
type Option func(*Sessions)

// WithReportTimeout bounds each coordinator run; non-positive values keep the default.
func WithReportTimeout(d time.Duration) Option {
	return func(s *Sessions) {
		if d > 0 {
			s.reportTimeout = d
		}
	}
}

// New wires the collaborators and begins listening. The cold-start session is reported
// before New returns when the initiator dispatches synchronously.
func New(ctx context.Context, appID string, ids IDGenerator, reporter Reporter, starter Initiator, opts ...Option) (*Sessions, error) {
	if appID == "" {
		return nil, errors.New("app id is required")
	}
	if ids == nil || reporter == nil || starter == nil {
		return nil, errors.New("identifiers, reporter and initiator are required")
	}

	s := &Sessions{
		appID:         appID,
		ids:           ids,
		reporter:      reporter,
		initiator:     starter,
		reportTimeout: DefaultReportTimeout,
		logger:        log.WithComponent("sessions").With().Str(log.FieldAppID, appID).Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ctx, s.cancel = context.WithCancel(ctx)

	if err := starter.Begin(s.onSessionStart); err != nil {
		s.cancel()
		return nil, fmt.Errorf("begin session initiator: %w", err)
	}
	return s, nil
}

func (s *Sessions) onSessionStart() {
	info := s.ids.GenerateNewSessionID()

	s.logger.Info().
		Str(log.FieldEvent, "session.started").
		Str(log.FieldSessionID, info.SessionID).
		Str(log.FieldPreviousSessionID, info.PreviousSessionID).
		Int(log.FieldSessionIndex, info.SessionIndex).
		Msg("new session")

	ctx := log.ContextWithSessionID(s.ctx, info.SessionID)
	ctx, cancel := context.WithTimeout(ctx, s.reportTimeout)
	defer cancel()

	// Report failures are owned and logged by the reporter.
	_ = s.reporter.RunMain(ctx, info)
}

// Close stops listening for lifecycle events and cancels in-flight reports.
func (s *Sessions) Close() error {
	s.cancel()
	return s.initiator.Close()
}
