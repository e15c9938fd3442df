// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package initiator

import "errors"

var (
	ErrAlreadyStarted  = errors.New("initiator already started")
	ErrNotStarted      = errors.New("initiator not started")
	ErrClosed          = errors.New("initiator closed")
	ErrNilCallback     = errors.New("session start callback is nil")
	ErrInvalidTimeout  = errors.New("session timeout must be positive")
	ErrUnknownDispatch = errors.New("unknown dispatch policy")
)

// Precondition violation kinds, used as metric labels.
const (
	violationDoubleBegin = "double_begin"
	violationEarlyEvent  = "event_before_begin"
)
