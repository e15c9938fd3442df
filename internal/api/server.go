// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package api exposes the daemon over HTTP: probes, Prometheus metrics, the current
// session and lifecycle event ingestion.
package api

import (
	"context"
	"net/http"

	"github.com/ManuGH/sessiond/internal/api/middleware"
	"github.com/ManuGH/sessiond/internal/health"
	"github.com/ManuGH/sessiond/internal/identifiers"
	"github.com/ManuGH/sessiond/internal/initiator"
	"github.com/ManuGH/sessiond/internal/lifecycle"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SessionReader returns the current session, if one has started.
type SessionReader interface {
	Current() (identifiers.SessionInfo, bool)
}

// StatusReader reports the session initiator state.
type StatusReader interface {
	Status() initiator.Status
}

// EventPublisher forwards lifecycle events to the initiator's source.
type EventPublisher interface {
	Publish(ctx context.Context, ev lifecycle.Event) error
}

// Config controls the router.
type Config struct {
	// ServiceName enables otelhttp spans when non-empty.
	ServiceName string
	// RateLimit is the lifecycle ingestion limit per client IP and minute. Zero disables it.
	RateLimit int
}

// Server holds the HTTP handlers.
type Server struct {
	cfg       Config
	sessions  SessionReader
	status    StatusReader
	publisher EventPublisher
	health    *health.Manager
}

// New creates a Server. hm may be nil, in which case the probes report no checks.
func New(cfg Config, sessions SessionReader, status StatusReader, publisher EventPublisher, hm *health.Manager) *Server {
	if hm == nil {
		hm = health.NewManager("")
	}
	return &Server{
		cfg:       cfg,
		sessions:  sessions,
		status:    status,
		publisher: publisher,
		health:    hm,
	}
}

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := middleware.NewRouter(middleware.StackConfig{
		EnableMetrics:  true,
		TracingService: s.cfg.ServiceName,
	})

	r.Get("/healthz", s.health.ServeHealth)
	r.Get("/readyz", s.health.ServeReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/session", s.handleGetSession)
		r.Group(func(r chi.Router) {
			if s.cfg.RateLimit > 0 {
				r.Use(middleware.LifecycleRateLimit(s.cfg.RateLimit))
			}
			r.Post("/lifecycle/{event}", s.handlePostLifecycle)
		})
	})
	return r
}
