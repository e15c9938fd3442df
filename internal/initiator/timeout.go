// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package initiator

import "time"

// DefaultTimeout is the background duration after which a foreground transition starts
// a new session.
const DefaultTimeout = 1800 * time.Second

// DistantFuture is the "never backgrounded" sentinel for the background timestamp.
// Any real now minus DistantFuture is negative, so it can never exceed a positive timeout.
var DistantFuture = time.Date(4001, time.January, 1, 0, 0, 0, 0, time.UTC)

// ShouldStartNewSession reports whether the time spent in background, now-backgroundedAt,
// is strictly longer than threshold.
func ShouldStartNewSession(now, backgroundedAt time.Time, threshold time.Duration) bool {
	return now.Sub(backgroundedAt) > threshold
}
