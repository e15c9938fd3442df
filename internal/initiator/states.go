// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package initiator

import (
	"github.com/ManuGH/sessiond/internal/fsm"
	"github.com/ManuGH/sessiond/internal/lifecycle"
)

// Phase is the registration state of an Initiator. Begin consumes the Idle token.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseRunning Phase = "running"
	PhaseStopped Phase = "stopped"
)

type phaseEvent string

const (
	evBegin phaseEvent = "begin"
	evClose phaseEvent = "close"
)

var phaseTable = []fsm.Transition[Phase, phaseEvent]{
	{From: PhaseIdle, Event: evBegin, To: PhaseRunning},
	{From: PhaseIdle, Event: evClose, To: PhaseStopped},
	{From: PhaseRunning, Event: evClose, To: PhaseStopped},
}

// Visibility is the host application's observed state.
type Visibility string

const (
	Foreground Visibility = "foreground"
	Background Visibility = "background"
)

// Both events are accepted from either state; a repeated notification is a self-loop.
var visibilityTable = []fsm.Transition[Visibility, lifecycle.Kind]{
	{From: Foreground, Event: lifecycle.KindBackground, To: Background},
	{From: Background, Event: lifecycle.KindBackground, To: Background},
	{From: Background, Event: lifecycle.KindForeground, To: Foreground},
	{From: Foreground, Event: lifecycle.KindForeground, To: Foreground},
}
