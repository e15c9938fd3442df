// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

import (
	"fmt"
	"sync"
)

// Handler receives lifecycle events. It may be called from any goroutine.
type Handler func(Event)

// Source delivers lifecycle events to subscribed handlers. The returned cancel function
// stops delivery and is safe to call more than once.
type Source interface {
	Subscribe(h Handler) (cancel func(), err error)
}

// Merge returns a Source that subscribes the handler to every given source.
func Merge(sources ...Source) Source {
	return merged(sources)
}

type merged []Source

func (m merged) Subscribe(h Handler) (func(), error) {
	cancels := make([]func(), 0, len(m))
	cancelAll := func() {
		for i := len(cancels) - 1; i >= 0; i-- {
			cancels[i]()
		}
	}
	for i, src := range m {
		cancel, err := src.Subscribe(h)
		if err != nil {
			cancelAll()
			return nil, fmt.Errorf("subscribe source %d: %w", i, err)
		}
		cancels = append(cancels, cancel)
	}
	return onceFunc(cancelAll), nil
}

func onceFunc(f func()) func() {
	var once sync.Once
	return func() { once.Do(f) }
}
