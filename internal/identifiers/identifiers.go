// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package identifiers owns the session and installation identifiers that accompany every
// session start.
package identifiers

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ManuGH/sessiond/internal/clock"
	"github.com/google/uuid"
)

// InstallationIDProvider returns a stable identifier for this installation.
type InstallationIDProvider interface {
	InstallationID(ctx context.Context) (string, error)
}

// SessionInfo describes the current session.
type SessionInfo struct {
	SessionID         string    `json:"session_id"`
	PreviousSessionID string    `json:"previous_session_id,omitempty"`
	FirstSessionID    string    `json:"first_session_id"`
	SessionIndex      int       `json:"session_index"`
	StartedAt         time.Time `json:"started_at"`
}

// Identifiers generates session identifiers. It is safe for concurrent use.
type Identifiers struct {
	installations InstallationIDProvider
	clock         clock.Clock
	newID         func() string

	mu      sync.RWMutex
	current SessionInfo
	started bool
}

// Option configures Identifiers.
type Option func(*Identifiers)

// WithClock sets the clock used for SessionInfo.StartedAt.
func WithClock(c clock.Clock) Option {
	return func(i *Identifiers) { i.clock = c }
}

// WithIDGenerator replaces the random session ID source.
func WithIDGenerator(gen func() string) Option {
	return func(i *Identifiers) { i.newID = gen }
}

func New(installations InstallationIDProvider, opts ...Option) *Identifiers {
	i := &Identifiers{
		installations: installations,
		clock:         clock.Real{},
		newID:         NewSessionID,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// NewSessionID returns a random 32 character lowercase hex identifier.
func NewSessionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// GenerateNewSessionID rotates the current session. The first generated ID is kept as
// FirstSessionID for the lifetime of the process; SessionIndex counts from zero.
func (i *Identifiers) GenerateNewSessionID() SessionInfo {
	id := i.newID()
	now := i.clock.Now()

	i.mu.Lock()
	defer i.mu.Unlock()
	next := SessionInfo{
		SessionID: id,
		StartedAt: now,
	}
	if i.started {
		next.PreviousSessionID = i.current.SessionID
		next.FirstSessionID = i.current.FirstSessionID
		next.SessionIndex = i.current.SessionIndex + 1
	} else {
		next.FirstSessionID = id
	}
	i.current = next
	i.started = true
	return next
}

// Current returns the current session, or false before the first GenerateNewSessionID.
func (i *Identifiers) Current() (SessionInfo, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.current, i.started
}

// InstallationID resolves the installation identifier through the provider.
func (i *Identifiers) InstallationID(ctx context.Context) (string, error) {
	if i.installations == nil {
		return "", fmt.Errorf("no installation id provider configured")
	}
	id, err := i.installations.InstallationID(ctx)
	if err != nil {
		return "", fmt.Errorf("installation id: %w", err)
	}
	return id, nil
}
