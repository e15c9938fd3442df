// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

//go:build !debug

package initiator

import (
	"github.com/ManuGH/sessiond/internal/log"
	"github.com/ManuGH/sessiond/internal/metrics"
	"github.com/rs/zerolog"
)

func preconditionViolation(logger zerolog.Logger, kind string, err error) error {
	metrics.RecordPreconditionViolation(kind)
	logger.Warn().
		Err(err).
		Str(log.FieldEvent, "initiator.precondition_violation").
		Str("kind", kind).
		Msg("initiator used out of order; ignoring")
	return err
}
