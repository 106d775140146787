package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	linksapp "github.com/linkdeck/linkdeck/internal/application/links"
	"go.uber.org/zap"
)

// Ensure FileSnapshotStorage implements SnapshotStorage
var _ linksapp.SnapshotStorage = (*FileSnapshotStorage)(nil)

// FileSnapshotStorage writes link snapshots to a local directory. It is the
// backup target for installs without an S3-compatible store.
type FileSnapshotStorage struct {
	dir    string
	logger *zap.Logger
}

// NewFileSnapshotStorage creates a FileSnapshotStorage rooted at dir
func NewFileSnapshotStorage(dir string, logger *zap.Logger) (*FileSnapshotStorage, error) {
	if dir == "" {
		return nil, errors.New("backup directory is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSnapshotStorage{dir: dir, logger: logger}, nil
}

// PutSnapshot writes data to a file named after the snapshot and returns its
// absolute path. The directory is created on first use.
func (s *FileSnapshotStorage) PutSnapshot(ctx context.Context, name string, data []byte) (string, error) {
	if name == "" {
		return "", errors.New("snapshot name is required")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	// filepath.Base strips any path components from the snapshot name
	target := filepath.Join(s.dir, filepath.Base(name))
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}

	abs, err := filepath.Abs(target)
	if err != nil {
		abs = target
	}

	s.logger.Debug("stored snapshot",
		zap.String("path", abs),
		zap.Int("bytes", len(data)))
	return abs, nil
}
