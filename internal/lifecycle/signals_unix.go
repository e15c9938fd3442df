// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

//go:build unix

package lifecycle

import (
	"os"
	"os/signal"

	"github.com/ManuGH/sessiond/internal/log"
	"golang.org/x/sys/unix"
)

func subscribeSignals(suspend bool, h Handler) (func(), error) {
	ch := make(chan os.Signal, 4)
	signal.Notify(ch, unix.SIGTSTP, unix.SIGCONT)

	logger := log.WithComponent("lifecycle.signals")
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			case sig := <-ch:
				switch sig {
				case unix.SIGTSTP:
					h(Event{Kind: KindBackground, Source: "signal"})
					if suspend {
						if err := unix.Kill(unix.Getpid(), unix.SIGSTOP); err != nil {
							logger.Warn().Err(err).Str(log.FieldEvent, "lifecycle.suspend_failed").Msg("failed to suspend process")
						}
					}
				case unix.SIGCONT:
					h(Event{Kind: KindForeground, Source: "signal"})
				}
			}
		}
	}()

	return onceFunc(func() {
		signal.Stop(ch)
		close(stop)
		<-done
	}), nil
}
