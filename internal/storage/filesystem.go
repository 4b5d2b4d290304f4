package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/config"
	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/lifecycle"
)

// filesystem implements System using the local filesystem.
// Each key maps to a file under basePath. Blobs are written to a temp file
// and hard-linked into place so an existing version is never replaced.
type filesystem struct {
	basePath string
	logger   *slog.Logger
}

// New creates a new filesystem storage system.
// The base path is resolved to an absolute path during construction.
// Directory creation is deferred to Start() for lifecycle integration.
func New(cfg *config.StorageConfig, logger *slog.Logger) (System, error) {
	if cfg.BasePath == "" {
		return nil, fmt.Errorf("base_path required")
	}

	absPath, err := filepath.Abs(cfg.BasePath)
	if err != nil {
		return nil, fmt.Errorf("resolve base_path: %w", err)
	}

	return &filesystem{
		basePath: absPath,
		logger:   logger.With("system", "storage", "backend", "filesystem"),
	}, nil
}

func (f *filesystem) Start(lc *lifecycle.Coordinator) error {
	f.logger.Info("starting storage system", "base_path", f.basePath)

	lc.OnStartup(func() {
		if err := os.MkdirAll(f.basePath, 0755); err != nil {
			f.logger.Error("storage initialization failed", "error", err)
			return
		}
		f.logger.Info("storage directory initialized")
	})

	return nil
}

func (f *filesystem) Write(ctx context.Context, documentID, versionID string, data []byte) (string, error) {
	key, err := validKey(documentID, versionID)
	if err != nil {
		return "", err
	}
	path := filepath.Join(f.basePath, filepath.FromSlash(key))

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", mapFSError(err, "create directory")
	}

	tmp, err := os.CreateTemp(dir, versionID+".*.tmp")
	if err != nil {
		return "", mapFSError(err, "create temp file")
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Link(tmpPath, path); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", ErrExists
		}
		return "", mapFSError(err, "link version file")
	}

	return key, nil
}

func (f *filesystem) Read(ctx context.Context, documentID, versionID string) ([]byte, error) {
	key, err := validKey(documentID, versionID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(f.basePath, filepath.FromSlash(key)))
	if err != nil {
		return nil, mapFSError(err, "read file")
	}
	return data, nil
}

func (f *filesystem) DeleteAll(ctx context.Context, documentID string) error {
	if !validSegment(documentID) {
		return ErrInvalidKey
	}

	if err := os.RemoveAll(filepath.Join(f.basePath, documentID)); err != nil {
		return mapFSError(err, "remove document directory")
	}
	return nil
}

func mapFSError(err error, op string) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ErrNotFound
	case errors.Is(err, fs.ErrPermission):
		return ErrPermissionDenied
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
