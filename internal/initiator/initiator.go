// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package initiator decides when a new session begins. A session starts once at Begin
// (cold start) and again whenever the host returns to foreground after spending longer
// than the timeout in background.
package initiator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ManuGH/sessiond/internal/clock"
	"github.com/ManuGH/sessiond/internal/fsm"
	"github.com/ManuGH/sessiond/internal/lifecycle"
	"github.com/ManuGH/sessiond/internal/log"
	"github.com/ManuGH/sessiond/internal/metrics"
	"github.com/rs/zerolog"
)

// Callback is invoked every time a new session starts.
type Callback func()

// Option configures an Initiator.
type Option func(*Initiator)

// WithClock replaces the wall clock.
func WithClock(c clock.Clock) Option {
	return func(i *Initiator) {
		if c != nil {
			i.clock = c
		}
	}
}

// WithTimeout sets the background timeout. Non-positive values make New fail.
func WithTimeout(d time.Duration) Option {
	return func(i *Initiator) { i.timeout = d }
}

// WithDispatch sets the callback dispatch policy.
func WithDispatch(d Dispatch) Option {
	return func(i *Initiator) { i.dispatch = d }
}

// Initiator tracks foreground/background transitions of one host application.
type Initiator struct {
	source   lifecycle.Source
	clock    clock.Clock
	timeout  time.Duration
	dispatch Dispatch
	logger   zerolog.Logger

	phase    *fsm.Machine[Phase, phaseEvent]
	inflight sync.WaitGroup

	// mu guards everything below and serializes lifecycle event handling.
	mu             sync.Mutex
	visibility     *fsm.Machine[Visibility, lifecycle.Kind]
	backgroundedAt time.Time
	callback       Callback
	cancel         func()
	closed         bool
}

// Status is a point-in-time view of an Initiator.
type Status struct {
	Phase      Phase         `json:"phase"`
	Visibility Visibility    `json:"visibility"`
	Timeout    time.Duration `json:"timeout"`
	Dispatch   Dispatch      `json:"dispatch"`
	// BackgroundedAt is nil until the first background event.
	BackgroundedAt *time.Time `json:"backgrounded_at,omitempty"`
}

// New creates an Initiator listening on source once Begin is called.
func New(source lifecycle.Source, opts ...Option) (*Initiator, error) {
	if source == nil {
		return nil, fmt.Errorf("lifecycle source is nil")
	}
	i := &Initiator{
		source:         source,
		clock:          clock.Real{},
		timeout:        DefaultTimeout,
		dispatch:       DispatchSync,
		logger:         log.WithComponent("initiator"),
		phase:          fsm.MustNew(PhaseIdle, phaseTable),
		visibility:     fsm.MustNew(Foreground, visibilityTable),
		backgroundedAt: DistantFuture,
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.timeout <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTimeout, i.timeout)
	}
	if _, err := ParseDispatch(string(i.dispatch)); err != nil {
		return nil, err
	}
	return i, nil
}

// Begin registers cb, invokes it once for the cold start, then subscribes to the
// lifecycle source. It may be called at most once; a second call is a precondition
// violation (panic under the debug build tag, ErrAlreadyStarted otherwise).
func (i *Initiator) Begin(cb Callback) error {
	if cb == nil {
		return ErrNilCallback
	}
	if _, err := i.phase.Fire(context.Background(), evBegin); err != nil {
		cause := ErrAlreadyStarted
		if i.phase.State() == PhaseStopped {
			cause = ErrClosed
		}
		return preconditionViolation(i.logger, violationDoubleBegin, fmt.Errorf("%w: %v", cause, err))
	}

	i.mu.Lock()
	i.callback = cb
	i.mu.Unlock()

	i.logger.Info().
		Str(log.FieldEvent, "initiator.begin").
		Dur(log.FieldTimeout, i.timeout).
		Str(log.FieldDispatch, string(i.dispatch)).
		Msg("session initiator started")

	i.fire(metrics.TriggerColdStart)

	cancel, err := i.source.Subscribe(i.Handle)
	if err != nil {
		// Without a source nothing can drive the machine; leave it stopped.
		_ = i.Close()
		return fmt.Errorf("subscribe lifecycle source: %w", err)
	}

	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		cancel()
		return nil
	}
	i.cancel = cancel
	i.mu.Unlock()
	return nil
}

// Handle applies a lifecycle event. It is the Handler registered with the source and may
// also be called directly by host adapters. Events before Begin are a precondition
// violation; events after Close are ignored.
func (i *Initiator) Handle(ev lifecycle.Event) {
	switch i.phase.State() {
	case PhaseIdle:
		_ = preconditionViolation(i.logger, violationEarlyEvent, fmt.Errorf("%w: %s event", ErrNotStarted, ev.Kind))
		return
	case PhaseStopped:
		i.logger.Debug().
			Str(log.FieldEvent, "initiator.event_after_close").
			Str(log.FieldLifecycle, string(ev.Kind)).
			Msg("dropping lifecycle event")
		return
	}

	switch ev.Kind {
	case lifecycle.KindBackground:
		i.onBackground(ev)
	case lifecycle.KindForeground:
		i.onForeground(ev)
	default:
		i.logger.Warn().
			Str(log.FieldEvent, "initiator.unknown_event").
			Str(log.FieldLifecycle, string(ev.Kind)).
			Str(log.FieldSource, ev.Source).
			Msg("ignoring unknown lifecycle event")
		return
	}
	metrics.RecordLifecycleEvent(string(ev.Kind))
}

func (i *Initiator) onBackground(ev lifecycle.Event) {
	i.mu.Lock()
	now := i.clock.Now()
	i.backgroundedAt = now
	from := i.visibility.State()
	to, _ := i.visibility.Fire(context.Background(), ev.Kind)
	i.mu.Unlock()

	i.logger.Debug().
		Str(log.FieldEvent, "initiator.backgrounded").
		Str(log.FieldSource, ev.Source).
		Str(log.FieldOldState, string(from)).
		Str(log.FieldNewState, string(to)).
		Time(log.FieldBackgroundedAt, now).
		Msg("application entered background")
}

func (i *Initiator) onForeground(ev lifecycle.Event) {
	i.mu.Lock()
	now := i.clock.Now()
	backgroundedAt := i.backgroundedAt
	start := ShouldStartNewSession(now, backgroundedAt, i.timeout)
	from := i.visibility.State()
	to, _ := i.visibility.Fire(context.Background(), ev.Kind)
	i.mu.Unlock()

	elapsed := now.Sub(backgroundedAt)
	if from == Background {
		metrics.ObserveBackgroundDuration(elapsed)
	}

	evt := i.logger.Debug().
		Str(log.FieldEvent, "initiator.foregrounded").
		Str(log.FieldSource, ev.Source).
		Str(log.FieldOldState, string(from)).
		Str(log.FieldNewState, string(to)).
		Bool("new_session", start)
	if !backgroundedAt.Equal(DistantFuture) {
		evt = evt.Dur(log.FieldElapsed, elapsed)
	}
	evt.Msg("application entered foreground")

	if start {
		i.fire(metrics.TriggerTimeout)
	}
}

// fire invokes the callback according to the dispatch policy. It never holds mu while
// the callback runs.
func (i *Initiator) fire(trigger string) {
	i.mu.Lock()
	cb := i.callback
	if cb == nil || i.closed {
		i.mu.Unlock()
		return
	}
	async := i.dispatch == DispatchAsync
	if async {
		i.inflight.Add(1)
	}
	i.mu.Unlock()

	metrics.RecordSessionStarted(trigger)
	i.logger.Info().
		Str(log.FieldEvent, "session.start_triggered").
		Str(log.FieldTrigger, trigger).
		Msg("starting new session")

	if async {
		go func() {
			defer i.inflight.Done()
			cb()
		}()
		return
	}
	cb()
}

// Close unsubscribes from the lifecycle source and waits for asynchronously dispatched
// callbacks to return. It is safe to call more than once.
func (i *Initiator) Close() error {
	if _, err := i.phase.Fire(context.Background(), evClose); err != nil {
		return nil
	}

	i.mu.Lock()
	i.closed = true
	cancel := i.cancel
	i.cancel = nil
	i.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	i.inflight.Wait()

	i.logger.Info().
		Str(log.FieldEvent, "initiator.closed").
		Msg("session initiator stopped")
	return nil
}

// Status returns the current phase, visibility and background timestamp.
func (i *Initiator) Status() Status {
	i.mu.Lock()
	defer i.mu.Unlock()
	st := Status{
		Phase:      i.phase.State(),
		Visibility: i.visibility.State(),
		Timeout:    i.timeout,
		Dispatch:   i.dispatch,
	}
	if !i.backgroundedAt.Equal(DistantFuture) {
		at := i.backgroundedAt
		st.BackgroundedAt = &at
	}
	return st
}
