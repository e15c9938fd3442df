// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BusPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sessiond_bus_published_total",
		Help: "Total number of in-memory bus messages delivered by topic",
	}, []string{"topic"})

	BusDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sessiond_bus_dropped_total",
		Help: "Total number of in-memory bus message drops by topic and reason",
	}, []string{"topic", "reason"})
)

// IncBusPublished records a delivered bus message for the given topic.
func IncBusPublished(topic string) {
	BusPublishedTotal.WithLabelValues(normalizeTopic(topic)).Inc()
}

// IncBusDropReason records a dropped bus message with a concrete reason.
func IncBusDropReason(topic, reason string) {
	if reason == "" {
		reason = "unknown"
	}
	BusDroppedTotal.WithLabelValues(normalizeTopic(topic), reason).Inc()
}

func normalizeTopic(topic string) string {
	if topic == "" {
		return "unknown"
	}
	return topic
}
