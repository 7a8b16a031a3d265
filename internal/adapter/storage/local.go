// Package storage persists rendered report artifacts.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// LocalStore writes artifacts into a directory. It implements render.Store.
type LocalStore struct {
	dir    string
	logger *slog.Logger
}

// NewLocalStore creates dir if needed and returns a store rooted there.
func NewLocalStore(dir string, logger *slog.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &LocalStore{dir: dir, logger: logger.With("component", "local_store")}, nil
}

// Put writes data to name atomically: a temp file is renamed into place.
func (s *LocalStore) Put(_ context.Context, name, _ string, data []byte) error {
	if name != filepath.Base(name) {
		return fmt.Errorf("invalid artifact name %q", name)
	}
	path := filepath.Join(s.dir, name)

	tmp, err := os.CreateTemp(s.dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", name, err)
	}

	s.logger.Info("artifact written", "path", path, "bytes", len(data))
	return nil
}
