// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ManuGH/sessiond/internal/api"
	"github.com/ManuGH/sessiond/internal/bus"
	"github.com/ManuGH/sessiond/internal/config"
	"github.com/ManuGH/sessiond/internal/coordinator"
	"github.com/ManuGH/sessiond/internal/health"
	"github.com/ManuGH/sessiond/internal/identifiers"
	"github.com/ManuGH/sessiond/internal/initiator"
	"github.com/ManuGH/sessiond/internal/lifecycle"
	"github.com/ManuGH/sessiond/internal/log"
	"github.com/ManuGH/sessiond/internal/sessions"
	"github.com/ManuGH/sessiond/internal/telemetry"
)

// app holds the wired components of one daemon instance.
type app struct {
	bus       *bus.MemoryBus
	ids       *identifiers.Identifiers
	initiator *initiator.Initiator
	sessions  *sessions.Sessions
	server    *api.Server

	starts     bus.Subscriber
	startsDone chan struct{}
}

func newApp(ctx context.Context, cfg config.AppConfig, tp *telemetry.Provider) (*app, error) {
	dispatch, err := initiator.ParseDispatch(cfg.Session.Dispatch)
	if err != nil {
		return nil, err
	}

	b := bus.NewMemoryBus()
	busSource := lifecycle.NewBusSource(b, bus.TopicLifecycle,
		lifecycle.WithTracer(tp.Tracer(telemetry.TracerLifecycle)),
	)
	sources := []lifecycle.Source{busSource}
	if cfg.Lifecycle.Signals {
		sources = append(sources, lifecycle.NewSignals(cfg.Lifecycle.Suspend))
	}

	ids := identifiers.New(identifiers.NewFileInstallations(cfg.DataDir))

	ini, err := initiator.New(lifecycle.Merge(sources...),
		initiator.WithTimeout(cfg.Session.Timeout),
		initiator.WithDispatch(dispatch),
	)
	if err != nil {
		return nil, fmt.Errorf("session initiator: %w", err)
	}

	coord := coordinator.New(cfg.AppID, ids, b,
		coordinator.WithTracer(tp.Tracer(telemetry.TracerCoordinator)),
	)

	// Subscribe before the cold start so the first session start is observed.
	starts, err := b.Subscribe(ctx, bus.TopicSessionStart)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", bus.TopicSessionStart, err)
	}
	a := &app{
		bus:        b,
		ids:        ids,
		initiator:  ini,
		starts:     starts,
		startsDone: make(chan struct{}),
	}
	go a.logSessionStarts()

	sess, err := sessions.New(ctx, cfg.AppID, ids, coord, ini,
		sessions.WithReportTimeout(cfg.Session.ReportTimeout),
	)
	if err != nil {
		_ = starts.Close()
		<-a.startsDone
		return nil, err
	}
	a.sessions = sess

	hm := health.NewManager(cfg.Version)
	hm.RegisterChecker(health.CheckerFunc{CheckName: "initiator", Fn: func(context.Context) health.CheckResult {
		st := ini.Status()
		if st.Phase != initiator.PhaseRunning {
			return health.CheckResult{Status: health.StatusUnhealthy, Message: string(st.Phase)}
		}
		return health.CheckResult{Status: health.StatusHealthy, Message: string(st.Visibility)}
	}})
	hm.RegisterChecker(health.CheckerFunc{CheckName: "installation", Fn: func(ctx context.Context) health.CheckResult {
		if _, err := ids.InstallationID(ctx); err != nil {
			return health.CheckResult{Status: health.StatusDegraded, Error: err.Error()}
		}
		return health.CheckResult{Status: health.StatusHealthy}
	}})

	serviceName := ""
	if cfg.Telemetry.Enabled {
		serviceName = cfg.LogService
	}
	a.server = api.New(api.Config{
		ServiceName: serviceName,
		RateLimit:   cfg.API.RateLimit,
	}, ids, ini, busSource, hm)
	return a, nil
}

// Handler returns the HTTP API.
func (a *app) Handler() http.Handler {
	return a.server.Handler()
}

// logSessionStarts drains the session start topic until the subscription closes.
func (a *app) logSessionStarts() {
	defer close(a.startsDone)
	logger := log.WithComponent("daemon")
	for msg := range a.starts.C() {
		ev, ok := msg.(coordinator.SessionStartEvent)
		if !ok {
			continue
		}
		logger.Info().
			Str(log.FieldEvent, "session.start_published").
			Str(log.FieldAppID, ev.AppID).
			Str(log.FieldSessionID, ev.SessionID).
			Str(log.FieldInstallationID, ev.InstallationID).
			Int(log.FieldSessionIndex, ev.SessionIndex).
			Time("timestamp", ev.Timestamp).
			Msg("session start")
	}
}

// Close stops the initiator, then the session start consumer.
func (a *app) Close() {
	if err := a.sessions.Close(); err != nil {
		logger := log.WithComponent("daemon")
		logger.Warn().Err(err).Str(log.FieldEvent, "sessions.close_failed").Msg("closing sessions")
	}
	_ = a.starts.Close()
	<-a.startsDone
}
