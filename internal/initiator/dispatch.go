// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package initiator

import (
	"fmt"
	"strings"
)

// Dispatch selects where the session start callback runs.
type Dispatch string

const (
	// DispatchSync runs the callback on the goroutine that delivered the lifecycle event
	// (or the caller of Begin for the cold start).
	DispatchSync Dispatch = "sync"
	// DispatchAsync runs each invocation on its own goroutine. Close waits for them.
	DispatchAsync Dispatch = "async"
)

// ParseDispatch parses a policy name; empty means DispatchSync.
func ParseDispatch(s string) (Dispatch, error) {
	switch Dispatch(strings.ToLower(strings.TrimSpace(s))) {
	case "", DispatchSync:
		return DispatchSync, nil
	case DispatchAsync:
		return DispatchAsync, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDispatch, s)
	}
}
