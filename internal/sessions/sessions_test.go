// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package sessions

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ManuGH/sessiond/internal/bus"
	"github.com/ManuGH/sessiond/internal/clock"
	"github.com/ManuGH/sessiond/internal/coordinator"
	"github.com/ManuGH/sessiond/internal/identifiers"
	"github.com/ManuGH/sessiond/internal/initiator"
	"github.com/ManuGH/sessiond/internal/lifecycle"
	"github.com/ManuGH/sessiond/internal/log"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type collector struct {
	mu     sync.Mutex
	events []coordinator.SessionStartEvent
	sub    bus.Subscriber
	done   chan struct{}
}

func collect(t *testing.T, b bus.Bus) *collector {
	t.Helper()
	sub, err := b.Subscribe(context.Background(), bus.TopicSessionStart)
	require.NoError(t, err)
	c := &collector{sub: sub, done: make(chan struct{})}
	go func() {
		defer close(c.done)
		for msg := range sub.C() {
			c.mu.Lock()
			c.events = append(c.events, msg.(coordinator.SessionStartEvent))
			c.mu.Unlock()
		}
	}()
	return c
}

func (c *collector) stop() {
	_ = c.sub.Close()
	<-c.done
}

func (c *collector) waitFor(t *testing.T, n int) []coordinator.SessionStartEvent {
	t.Helper()
	require.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return len(c.events) >= n
	}, time.Second, 5*time.Millisecond)
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]coordinator.SessionStartEvent(nil), c.events...)
}

func TestSessionsEndToEnd(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	t0 := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	clk := clock.NewMock(t0)
	b := bus.NewMemoryBus()
	events := collect(t, b)
	defer events.stop()

	ids := identifiers.New(identifiers.NewFileInstallations(t.TempDir()), identifiers.WithClock(clk))
	coord := coordinator.New("app-1", ids, b, coordinator.WithClock(clk))
	src := lifecycle.NewManual("test")
	init, err := initiator.New(src, initiator.WithClock(clk), initiator.WithTimeout(1800*time.Second))
	require.NoError(t, err)

	s, err := New(context.Background(), "app-1", ids, coord, init, WithReportTimeout(time.Second))
	require.NoError(t, err)

	got := events.waitFor(t, 1)
	require.Len(t, got, 1)
	first := got[0]
	require.Equal(t, "app-1", first.AppID)
	require.Equal(t, 0, first.SessionIndex)
	require.Empty(t, first.PreviousSessionID)
	require.NotEmpty(t, first.InstallationID)

	// Short background: same session.
	clk.Set(t0.Add(100 * time.Second))
	src.Background()
	clk.Set(t0.Add(200 * time.Second))
	src.Foreground()

	// Long background: new session linked to the first one.
	clk.Set(t0.Add(300 * time.Second))
	src.Background()
	clk.Set(t0.Add(2300 * time.Second))
	src.Foreground()

	got = events.waitFor(t, 2)
	require.Len(t, got, 2)
	second := got[1]
	require.Equal(t, 1, second.SessionIndex)
	require.Equal(t, first.SessionID, second.PreviousSessionID)
	require.Equal(t, first.SessionID, second.FirstSessionID)
	require.Equal(t, first.InstallationID, second.InstallationID)
	require.Equal(t, t0.Add(2300*time.Second), second.Timestamp)

	require.NoError(t, s.Close())
	require.Equal(t, 0, src.Subscribers())
}

type stubReporter struct {
	mu    sync.Mutex
	ctxs  []context.Context
	infos []identifiers.SessionInfo
}

func (r *stubReporter) RunMain(ctx context.Context, info identifiers.SessionInfo) error {
	r.mu.Lock()
	r.ctxs = append(r.ctxs, ctx)
	r.infos = append(r.infos, info)
	r.mu.Unlock()
	return errors.New("upload failed")
}

type stubInitiator struct {
	cb     initiator.Callback
	err    error
	closed bool
}

func (s *stubInitiator) Begin(cb initiator.Callback) error {
	if s.err != nil {
		return s.err
	}
	s.cb = cb
	cb()
	return nil
}

func (s *stubInitiator) Close() error {
	s.closed = true
	return nil
}

func TestSessionsReporterFailureIsNotFatal(t *testing.T) {
	rep := &stubReporter{}
	init := &stubInitiator{}
	ids := identifiers.New(nil)

	s, err := New(context.Background(), "app", ids, rep, init, WithReportTimeout(time.Minute))
	require.NoError(t, err)
	require.Len(t, rep.ctxs, 1)

	// The callback keeps working after a failed report.
	init.cb()
	require.Len(t, rep.ctxs, 2)
	cur, _ := ids.Current()
	require.Equal(t, 1, cur.SessionIndex)

	deadline, ok := rep.ctxs[0].Deadline()
	require.True(t, ok)
	require.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)

	require.NoError(t, s.Close())
	require.True(t, init.closed)
	require.Equal(t, cur.SessionID, log.SessionIDFromContext(rep.ctxs[1]))
	require.Equal(t, cur, rep.infos[1])
	require.Equal(t, 0, rep.infos[0].SessionIndex)
}

func TestSessionsValidation(t *testing.T) {
	ids := identifiers.New(nil)
	_, err := New(context.Background(), "", ids, &stubReporter{}, &stubInitiator{})
	require.Error(t, err)

	_, err = New(context.Background(), "app", nil, &stubReporter{}, &stubInitiator{})
	require.Error(t, err)

	boom := errors.New("already listening")
	_, err = New(context.Background(), "app", ids, &stubReporter{}, &stubInitiator{err: boom})
	require.ErrorIs(t, err, boom)
}

// gatedInstallations holds every report until release is closed.
type gatedInstallations struct {
	release chan struct{}
}

func (g gatedInstallations) InstallationID(ctx context.Context) (string, error) {
	select {
	case <-g.release:
		return "inst", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestSessionsAsyncOverlappingStartsReportOwnSession(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	t0 := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	clk := clock.NewMock(t0)
	b := bus.NewMemoryBus()
	events := collect(t, b)
	defer events.stop()

	ids := identifiers.New(nil, identifiers.WithClock(clk))
	gate := gatedInstallations{release: make(chan struct{})}
	coord := coordinator.New("app", gate, b, coordinator.WithClock(clk))
	src := lifecycle.NewManual("test")
	ini, err := initiator.New(src,
		initiator.WithClock(clk),
		initiator.WithTimeout(time.Second),
		initiator.WithDispatch(initiator.DispatchAsync),
	)
	require.NoError(t, err)

	s, err := New(context.Background(), "app", ids, coord, ini, WithReportTimeout(time.Minute))
	require.NoError(t, err)

	src.Background()
	clk.Set(t0.Add(10 * time.Second))
	src.Foreground()

	// Both starts have generated their IDs before either report runs.
	require.Eventually(t, func() bool {
		cur, ok := ids.Current()
		return ok && cur.SessionIndex == 1
	}, time.Second, 5*time.Millisecond)
	close(gate.release)

	got := events.waitFor(t, 2)
	require.Len(t, got, 2)
	indexes := map[int]string{}
	for _, ev := range got {
		indexes[ev.SessionIndex] = ev.SessionID
	}
	require.Len(t, indexes, 2)
	require.NotEqual(t, indexes[0], indexes[1])
	cur, _ := ids.Current()
	require.Equal(t, cur.SessionID, indexes[1])
	require.Equal(t, cur.PreviousSessionID, indexes[0])

	require.NoError(t, s.Close())
}
