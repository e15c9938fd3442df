// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package fsm

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

type state string
type event string

const (
	idle    state = "idle"
	running state = "running"
	stopped state = "stopped"

	begin event = "begin"
	stop  event = "stop"
)

func table() []Transition[state, event] {
	return []Transition[state, event]{
		{From: idle, Event: begin, To: running},
		{From: idle, Event: stop, To: stopped},
		{From: running, Event: stop, To: stopped},
	}
}

func TestMachine_HappyPath(t *testing.T) {
	m, err := New(idle, table())
	require.NoError(t, err)
	require.Equal(t, idle, m.State())

	to, err := m.Fire(context.Background(), begin)
	require.NoError(t, err)
	require.Equal(t, running, to)

	to, err = m.Fire(context.Background(), stop)
	require.NoError(t, err)
	require.Equal(t, stopped, to)
}

func TestMachine_InvalidTransition(t *testing.T) {
	m := MustNew(running, table())
	cur, err := m.Fire(context.Background(), begin)
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.Equal(t, running, cur)
	require.Equal(t, running, m.State())
}

func TestMachine_DuplicateTransitionRejected(t *testing.T) {
	_, err := New(idle, []Transition[state, event]{
		{From: idle, Event: begin, To: running},
		{From: idle, Event: begin, To: stopped},
	})
	require.Error(t, err)
	require.Panics(t, func() {
		MustNew(idle, []Transition[state, event]{
			{From: idle, Event: begin, To: running},
			{From: idle, Event: begin, To: running},
		})
	})
}

func TestMachine_GuardRejects(t *testing.T) {
	denied := errors.New("denied")
	m := MustNew(idle, []Transition[state, event]{
		{From: idle, Event: begin, To: running, Guard: func(context.Context, state, event) error { return denied }},
	})
	cur, err := m.Fire(context.Background(), begin)
	require.ErrorIs(t, err, denied)
	require.Equal(t, idle, cur)
	require.Equal(t, idle, m.State())
}

func TestMachine_ActionRuns(t *testing.T) {
	var calls atomic.Int32
	m := MustNew(idle, []Transition[state, event]{
		{From: idle, Event: begin, To: running, Action: func(_ context.Context, from, to state, _ event) error {
			require.Equal(t, idle, from)
			require.Equal(t, running, to)
			calls.Add(1)
			return nil
		}},
	})
	_, err := m.Fire(context.Background(), begin)
	require.NoError(t, err)
	require.Equal(t, int32(1), calls.Load())
}

func TestMachine_ConcurrentFireSingleWinner(t *testing.T) {
	m := MustNew(idle, table())

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Fire(context.Background(), begin); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), wins.Load())
	require.Equal(t, running, m.State())
}
