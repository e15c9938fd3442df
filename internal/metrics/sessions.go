// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Session start triggers.
const (
	TriggerColdStart = "cold_start"
	TriggerTimeout   = "timeout"
)

var (
	SessionsStartedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sessiond_sessions_started_total",
		Help: "Total number of sessions started by trigger (cold_start, timeout)",
	}, []string{"trigger"})

	LifecycleEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sessiond_lifecycle_events_total",
		Help: "Total number of lifecycle events handled by kind",
	}, []string{"kind"})

	PreconditionViolationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sessiond_precondition_violations_total",
		Help: "Total number of initiator precondition violations (double begin, early events)",
	}, []string{"kind"})

	BackgroundDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sessiond_background_duration_seconds",
		Help:    "Time spent in background before returning to foreground",
		Buckets: []float64{1, 10, 60, 300, 900, 1800, 3600, 4 * 3600, 24 * 3600},
	})

	ReportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sessiond_reports_total",
		Help: "Total number of session start reports by result (published, failed)",
	}, []string{"result"})
)

// RecordSessionStarted counts a session start for the given trigger.
func RecordSessionStarted(trigger string) {
	switch trigger {
	case TriggerColdStart, TriggerTimeout:
	default:
		trigger = "unknown"
	}
	SessionsStartedTotal.WithLabelValues(trigger).Inc()
}

// RecordLifecycleEvent counts a handled lifecycle event.
func RecordLifecycleEvent(kind string) {
	LifecycleEventsTotal.WithLabelValues(kind).Inc()
}

// RecordPreconditionViolation counts a programmer error that was tolerated at runtime.
func RecordPreconditionViolation(kind string) {
	PreconditionViolationsTotal.WithLabelValues(kind).Inc()
}

// ObserveBackgroundDuration records how long the app stayed in background.
// Negative durations (clock adjustments) are ignored.
func ObserveBackgroundDuration(d time.Duration) {
	if d < 0 {
		return
	}
	BackgroundDuration.Observe(d.Seconds())
}

// RecordReport counts a session start report outcome.
func RecordReport(result string) {
	ReportsTotal.WithLabelValues(result).Inc()
}
