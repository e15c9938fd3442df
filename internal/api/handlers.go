// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"errors"
	"net/http"

	"github.com/ManuGH/sessiond/internal/identifiers"
	"github.com/ManuGH/sessiond/internal/initiator"
	"github.com/ManuGH/sessiond/internal/lifecycle"
	"github.com/ManuGH/sessiond/internal/log"
	"github.com/go-chi/chi/v5"
)

// SourceHTTP is the Event.Source of events ingested over HTTP.
const SourceHTTP = "http"

// SessionResponse is the body of GET /api/v1/session.
type SessionResponse struct {
	Session   identifiers.SessionInfo `json:"session"`
	Initiator initiator.Status        `json:"initiator"`
}

// LifecycleResponse is the body of an accepted POST /api/v1/lifecycle/{event}.
type LifecycleResponse struct {
	Accepted lifecycle.Kind `json:"accepted"`
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	info, ok := s.sessions.Current()
	if !ok {
		writeError(w, r, http.StatusNotFound, "no_session", "no session has started yet")
		return
	}
	writeJSON(w, r, http.StatusOK, SessionResponse{
		Session:   info,
		Initiator: s.status.Status(),
	})
}

func (s *Server) handlePostLifecycle(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "event")
	kind, err := lifecycle.ParseKind(name)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "unknown_event", err.Error())
		return
	}

	ev := lifecycle.Event{Kind: kind, Source: SourceHTTP}
	if err := s.publisher.Publish(r.Context(), ev); err != nil {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().
			Err(err).
			Str(log.FieldEvent, "api.lifecycle_publish_failed").
			Str(log.FieldLifecycle, string(kind)).
			Msg("failed to publish lifecycle event")
		status := http.StatusServiceUnavailable
		if errors.Is(err, lifecycle.ErrUnknownKind) {
			status = http.StatusBadRequest
		}
		writeError(w, r, status, "publish_failed", err.Error())
		return
	}

	logger := log.WithComponentFromContext(r.Context(), "api")

	logger.Debug().
		Str(log.FieldEvent, "api.lifecycle_accepted").
		Str(log.FieldLifecycle, string(kind)).
		Str("name", name).
		Msg("lifecycle event accepted")
	writeJSON(w, r, http.StatusAccepted, LifecycleResponse{Accepted: kind})
}
