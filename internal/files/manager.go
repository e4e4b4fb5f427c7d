package files

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	apperrors "luminexcli/internal/errors"
)

// Manager provides the file writes shared by every output of the pipeline
type Manager struct {
	logger *slog.Logger
}

// NewManager creates a new file manager instance
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{logger: logger}
}

// WriteAtomic writes a file through write and renames it into place, so a
// failed write never leaves a truncated output behind. Parent directories
// are created as needed.
func (m *Manager) WriteAtomic(path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to create directory %s", dir), err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to create temp file for %s", path), err)
	}
	tmpName := tmp.Name()

	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return apperrors.NewStorageError(fmt.Sprintf("failed to close %s", tmpName), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return apperrors.NewStorageError(fmt.Sprintf("failed to move %s into place", path), err)
	}

	if info, err := os.Stat(path); err == nil {
		m.logger.Debug("Wrote file",
			slog.String("path", path),
			slog.Int64("size_bytes", info.Size()))
	}
	return nil
}

// ReadFile reads the entire content of a file. A missing file is NOT_FOUND.
func (m *Manager) ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewAppError(apperrors.ErrTypeNotFound, "file "+path+" not found", err).
				WithContext("path", path)
		}
		return nil, apperrors.NewStorageError("failed to read "+path, err)
	}
	return data, nil
}
