// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

//go:build windows

package identifiers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// writeFileAtomic uses temp file + rename; Windows offers no fsync-before-rename guarantee.
func writeFileAtomic(_ context.Context, path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".installation-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp installation file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write installation id: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp installation file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename installation file: %w", err)
	}
	return nil
}
