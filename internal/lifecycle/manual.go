// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

import "sync"

// ActivationCallback is the shape of native activation observers:
// active=true when the app becomes active (foreground), false when it resigns active.
type ActivationCallback func(active bool)

// Manual is a Source driven directly by the host. Emit delivers synchronously on the
// caller's goroutine, in subscription order.
type Manual struct {
	name string

	mu       sync.RWMutex
	nextID   int
	handlers map[int]Handler
	order    []int
}

// NewManual creates a manual source; name is reported as Event.Source.
func NewManual(name string) *Manual {
	if name == "" {
		name = "manual"
	}
	return &Manual{name: name, handlers: make(map[int]Handler)}
}

func (m *Manual) Subscribe(h Handler) (func(), error) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.handlers[id] = h
	m.order = append(m.order, id)
	m.mu.Unlock()

	return onceFunc(func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.handlers, id)
		for i, v := range m.order {
			if v == id {
				m.order = append(m.order[:i], m.order[i+1:]...)
				break
			}
		}
	}), nil
}

// Emit delivers an event of the given kind to every current subscriber.
func (m *Manual) Emit(kind Kind) {
	m.mu.RLock()
	hs := make([]Handler, 0, len(m.order))
	for _, id := range m.order {
		hs = append(hs, m.handlers[id])
	}
	m.mu.RUnlock()

	ev := Event{Kind: kind, Source: m.name}
	for _, h := range hs {
		h(ev)
	}
}

func (m *Manual) Background() { m.Emit(KindBackground) }
func (m *Manual) Foreground() { m.Emit(KindForeground) }

// ActivationCallback adapts the source to a native activation observer.
func (m *Manual) ActivationCallback() ActivationCallback {
	return func(active bool) {
		if active {
			m.Foreground()
			return
		}
		m.Background()
	}
}

// Subscribers reports the number of active subscriptions.
func (m *Manual) Subscribers() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.handlers)
}
