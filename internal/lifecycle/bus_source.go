// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

import (
	"context"
	"fmt"

	"github.com/ManuGH/sessiond/internal/bus"
	"github.com/ManuGH/sessiond/internal/log"
	"github.com/ManuGH/sessiond/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// BusSource consumes Event messages from a bus topic. Each subscription owns one goroutine
// so events are handed over in publish order.
type BusSource struct {
	bus    bus.Bus
	topic  string
	tracer trace.Tracer
}

// BusSourceOption configures a BusSource.
type BusSourceOption func(*BusSource)

// WithTracer sets the tracer used for the span wrapping each delivered event.
func WithTracer(t trace.Tracer) BusSourceOption {
	return func(s *BusSource) {
		if t != nil {
			s.tracer = t
		}
	}
}

func NewBusSource(b bus.Bus, topic string, opts ...BusSourceOption) *BusSource {
	if topic == "" {
		topic = bus.TopicLifecycle
	}
	s := &BusSource{
		bus:    b,
		topic:  topic,
		tracer: telemetry.Tracer(telemetry.TracerLifecycle),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *BusSource) Subscribe(h Handler) (func(), error) {
	sub, err := s.bus.Subscribe(context.Background(), s.topic)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", s.topic, err)
	}

	logger := log.WithComponent("lifecycle.bus")
	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range sub.C() {
			ev, ok := eventFromMessage(msg)
			if !ok {
				logger.Warn().
					Str(log.FieldTopic, s.topic).
					Str(log.FieldEvent, "lifecycle.bad_message").
					Str("type", fmt.Sprintf("%T", msg)).
					Msg("ignoring non-lifecycle message")
				continue
			}
			s.deliver(h, ev)
		}
	}()

	return onceFunc(func() {
		_ = sub.Close()
		<-done
	}), nil
}

func (s *BusSource) deliver(h Handler, ev Event) {
	_, span := s.tracer.Start(context.Background(), "lifecycle.event",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(telemetry.LifecycleAttributes(string(ev.Kind), ev.Source)...),
		trace.WithAttributes(attribute.String(telemetry.BusTopicKey, s.topic)),
	)
	defer span.End()
	h(ev)
}

// Publish sends an event to the bus topic consumed by BusSource.
func (s *BusSource) Publish(ctx context.Context, ev Event) error {
	if !ev.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, ev.Kind)
	}
	return s.bus.Publish(ctx, s.topic, ev)
}

func eventFromMessage(msg bus.Message) (Event, bool) {
	switch v := msg.(type) {
	case Event:
		return v, v.Kind.Valid()
	case *Event:
		if v == nil {
			return Event{}, false
		}
		return *v, v.Kind.Valid()
	case Kind:
		return Event{Kind: v, Source: "bus"}, v.Valid()
	default:
		return Event{}, false
	}
}
