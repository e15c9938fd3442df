// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package lifecycle defines the host application's foreground/background notifications
// and the adapters that translate native notifications into them.
package lifecycle

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is a lifecycle transition reported by the host.
type Kind string

const (
	KindBackground Kind = "background"
	KindForeground Kind = "foreground"
)

// ErrUnknownKind is returned by ParseKind for names it does not recognise.
var ErrUnknownKind = errors.New("unknown lifecycle event")

func (k Kind) Valid() bool {
	return k == KindBackground || k == KindForeground
}

// Event is a single lifecycle notification.
type Event struct {
	Kind Kind
	// Source names the adapter that produced the event ("signal", "http", ...).
	Source string
}

// ParseKind maps host notification names onto a Kind. Matching is case-insensitive and
// accepts the usual platform spellings.
func ParseKind(name string) (Kind, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.NewReplacer("_", "-", " ", "-").Replace(n)
	switch n {
	case "background", "enter-background", "did-enter-background", "resign-active", "did-resign-active", "inactive", "hidden":
		return KindBackground, nil
	case "foreground", "enter-foreground", "become-active", "did-become-active", "active", "visible":
		return KindForeground, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, name)
	}
}
