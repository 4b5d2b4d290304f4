package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/config"
	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/lifecycle"
)

const recordExt = ".json"

// file implements System with one JSON document per record.
// Writes go to a temp file in the same directory and are renamed into place,
// so a reader sees either the old record or the new one.
type file struct {
	dir    string
	logger *slog.Logger
}

// NewFile creates a file-backed record store rooted at cfg.BasePath.
func NewFile(cfg *config.RecordsConfig, logger *slog.Logger) (System, error) {
	if cfg.BasePath == "" {
		return nil, fmt.Errorf("base_path required")
	}

	absPath, err := filepath.Abs(cfg.BasePath)
	if err != nil {
		return nil, fmt.Errorf("resolve base_path: %w", err)
	}

	return &file{
		dir:    absPath,
		logger: logger.With("system", "records", "backend", "file"),
	}, nil
}

func (f *file) Start(lc *lifecycle.Coordinator) error {
	f.logger.Info("starting record store", "dir", f.dir)

	lc.OnStartup(func() {
		if err := os.MkdirAll(f.dir, 0755); err != nil {
			f.logger.Error("record store initialization failed", "error", err)
			return
		}
		f.logger.Info("record directory initialized")
	})

	return nil
}

func (f *file) Put(ctx context.Context, rec *Record) error {
	path, err := f.path(rec.ID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(f.dir, rec.ID+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}

func (f *file) Get(ctx context.Context, id string) (*Record, error) {
	path, err := f.path(id)
	if err != nil {
		return nil, err
	}
	return f.read(path)
}

func (f *file) Delete(ctx context.Context, id string) error {
	path, err := f.path(id)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("remove record: %w", err)
	}
	return nil
}

func (f *file) List(ctx context.Context, filter Filter) ([]Record, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Record{}, nil
		}
		return nil, fmt.Errorf("read record directory: %w", err)
	}

	result := []Record{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), recordExt) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec, err := f.read(filepath.Join(f.dir, e.Name()))
		if err != nil {
			// removed between ReadDir and read
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}

		if filter.Matches(rec) {
			result = append(result, *rec)
		}
	}

	return result, nil
}

func (f *file) read(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", filepath.Base(path), err)
	}
	return &rec, nil
}

func (f *file) path(id string) (string, error) {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return "", ErrInvalidID
	}
	return filepath.Join(f.dir, id+recordExt), nil
}
