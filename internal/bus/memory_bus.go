// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package bus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ManuGH/sessiond/internal/log"
	"github.com/ManuGH/sessiond/internal/metrics"
)

// MemoryBus is an in-process pub/sub. It is not durable; Publish blocks per subscriber
// until the message is buffered, the subscription is closed, or the publish context is done.
// Sends happen outside the bus lock, so a blocked publisher never stalls Subscribe or Close.
type MemoryBus struct {
	mu     sync.RWMutex
	subs   map[string][]*memSub
	buffer int
}

const (
	defaultBuffer = 64
	dropLogEvery  = 100
)

var dropCount atomic.Uint64

// ErrSubscriberClosed is returned by Close on an already closed subscription.
var ErrSubscriberClosed = errors.New("subscriber already closed")

func NewMemoryBus() *MemoryBus {
	return NewMemoryBusWithBuffer(defaultBuffer)
}

// NewMemoryBusWithBuffer sets the per-subscriber channel capacity.
func NewMemoryBusWithBuffer(buffer int) *MemoryBus {
	if buffer < 0 {
		buffer = 0
	}
	return &MemoryBus{subs: make(map[string][]*memSub), buffer: buffer}
}

func publishDropReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "context_done"
	}
}

func (b *MemoryBus) Publish(ctx context.Context, topic string, msg Message) error {
	if ctx == nil {
		return fmt.Errorf("publish context is nil")
	}
	b.mu.RLock()
	subs := append([]*memSub(nil), b.subs[topic]...)
	b.mu.RUnlock()

	for _, s := range subs {
		if err := s.send(ctx, msg); err != nil {
			reason := publishDropReason(err)
			metrics.IncBusDropReason(topic, reason)
			count := dropCount.Add(1)
			if count%dropLogEvery == 1 {
				log.L().Warn().
					Str(log.FieldComponent, "bus").
					Str(log.FieldTopic, topic).
					Str("reason", reason).
					Uint64("dropped", count).
					Msg("memory bus failed to publish due to context cancellation")
			}
			return fmt.Errorf("publish topic %q: %w", topic, err)
		}
	}
	metrics.IncBusPublished(topic)
	return nil
}

func (b *MemoryBus) Subscribe(ctx context.Context, topic string) (Subscriber, error) {
	s := &memSub{
		b:     b,
		topic: topic,
		ch:    make(chan Message, b.buffer),
		done:  make(chan struct{}),
	}

	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], s)
	b.mu.Unlock()

	return s, nil
}

type memSub struct {
	b     *MemoryBus
	topic string
	ch    chan Message
	// done is closed first on Close and releases blocked senders.
	done chan struct{}

	// mu guards ch against close while a send is in flight.
	mu     sync.RWMutex
	closed bool

	removed bool // guarded by b.mu
}

func (s *memSub) C() <-chan Message {
	return s.ch
}

// send delivers msg unless the subscription closes first. Only ctx expiry is an error.
func (s *memSub) send(ctx context.Context, msg Message) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil
	}
	select {
	case s.ch <- msg:
		return nil
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *memSub) Close() error {
	s.b.mu.Lock()
	if s.removed {
		s.b.mu.Unlock()
		return ErrSubscriberClosed
	}
	s.removed = true

	lst := s.b.subs[s.topic]
	out := make([]*memSub, 0, len(lst))
	for _, other := range lst {
		if other != s {
			out = append(out, other)
		}
	}
	if len(out) == 0 {
		delete(s.b.subs, s.topic)
	} else {
		s.b.subs[s.topic] = out
	}
	s.b.mu.Unlock()

	close(s.done)

	s.mu.Lock()
	s.closed = true
	close(s.ch)
	s.mu.Unlock()
	return nil
}

var _ Bus = (*MemoryBus)(nil)
