// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

//go:build !windows

package identifiers

import (
	"context"
	"fmt"

	"github.com/ManuGH/sessiond/internal/log"
	"github.com/google/renameio/v2"
)

// writeFileAtomic writes data with fsync before rename so a crash never leaves a torn file.
func writeFileAtomic(ctx context.Context, path string, data []byte) error {
	logger := log.FromContext(ctx)

	pendingFile, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o600))
	if err != nil {
		return fmt.Errorf("create pending installation file: %w", err)
	}
	defer func() {
		if err := pendingFile.Cleanup(); err != nil {
			logger.Debug().Err(err).Msg("cleanup pending installation file")
		}
	}()

	if _, err := pendingFile.Write(data); err != nil {
		return fmt.Errorf("write installation id: %w", err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace installation file: %w", err)
	}
	return nil
}
