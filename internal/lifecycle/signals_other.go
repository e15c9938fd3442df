// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

//go:build !unix

package lifecycle

// subscribeSignals is a no-op where POSIX job control does not exist.
func subscribeSignals(_ bool, _ Handler) (func(), error) {
	return func() {}, nil
}
