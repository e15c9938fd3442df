// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package identifiers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/ManuGH/sessiond/internal/log"
	"github.com/google/uuid"
)

// InstallationFileName is the file under the data directory holding the installation ID.
const InstallationFileName = "installation_id"

// FileInstallations persists the installation ID in a file and caches it after the first
// successful read.
type FileInstallations struct {
	path string

	mu sync.Mutex
	id string
}

func NewFileInstallations(dataDir string) *FileInstallations {
	return &FileInstallations{path: filepath.Join(dataDir, InstallationFileName)}
}

// Path returns the backing file.
func (f *FileInstallations) Path() string {
	return f.path
}

// InstallationID returns the stored ID, creating and persisting a new one on first use or
// when the stored value is not a valid UUID.
func (f *FileInstallations) InstallationID(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.id != "" {
		return f.id, nil
	}

	logger := log.WithComponentFromContext(ctx, "identifiers")

	// #nosec G304 -- path is derived from the operator-configured data directory
	data, err := os.ReadFile(f.path)
	switch {
	case err == nil:
		raw := string(bytes.TrimSpace(data))
		if parsed, perr := uuid.Parse(raw); perr == nil {
			f.id = parsed.String()
			return f.id, nil
		}
		logger.Warn().
			Str(log.FieldEvent, "installation.invalid").
			Str(log.FieldPath, f.path).
			Msg("stored installation id is invalid; regenerating")
	case errors.Is(err, fs.ErrNotExist):
	default:
		return "", fmt.Errorf("read installation id: %w", err)
	}

	id := uuid.NewString()
	if err := os.MkdirAll(filepath.Dir(f.path), 0o750); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	if err := writeFileAtomic(ctx, f.path, []byte(id+"\n")); err != nil {
		return "", err
	}
	f.id = id

	logger.Info().
		Str(log.FieldEvent, "installation.created").
		Str(log.FieldInstallationID, id).
		Str(log.FieldPath, f.path).
		Msg("created installation id")
	return id, nil
}
