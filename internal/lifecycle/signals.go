// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

// Signals maps POSIX job control onto lifecycle events: SIGTSTP (Ctrl-Z) is reported as
// background, SIGCONT as foreground. On platforms without job control it never fires.
type Signals struct {
	// Suspend stops the process with SIGSTOP after reporting SIGTSTP, preserving the
	// shell's usual Ctrl-Z behaviour.
	Suspend bool
}

func NewSignals(suspend bool) *Signals {
	return &Signals{Suspend: suspend}
}

func (s *Signals) Subscribe(h Handler) (func(), error) {
	return subscribeSignals(s.Suspend, h)
}
