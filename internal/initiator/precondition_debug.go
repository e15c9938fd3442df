// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

//go:build debug

package initiator

import (
	"fmt"

	"github.com/rs/zerolog"
)

func preconditionViolation(_ zerolog.Logger, kind string, err error) error {
	panic(fmt.Sprintf("initiator precondition violated (%s): %v", kind, err))
}
