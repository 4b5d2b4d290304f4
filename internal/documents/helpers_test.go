package documents_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/config"
	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/documents"
	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/lifecycle"
	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/locks"
	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/pdfinfo"
	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/records"
	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/storage"
	"github.com/AdnanAhmad1994/pdf-editor-saas/pkg/logging"
)

func discardLogger() *slog.Logger {
	return logging.New(&logging.Config{}, io.Discard, "documents-test")
}

// stubExtractor accepts content produced by pdfContent and reports its page count.
type stubExtractor struct{}

func (stubExtractor) Extract(ctx context.Context, data []byte) (*pdfinfo.Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var pages int
	var tag string
	if _, err := fmt.Sscanf(string(data), "%%PDF-stub pages=%d %s", &pages, &tag); err != nil {
		return nil, fmt.Errorf("%w: %w", pdfinfo.ErrUnreadable, err)
	}
	return &pdfinfo.Info{PageCount: pages}, nil
}

// pdfContent returns distinct content that stubExtractor reads as n pages.
func pdfContent(pages int, tag string) []byte {
	return fmt.Appendf(nil, "%%PDF-stub pages=%d %s", pages, tag)
}

// flakyStorage fails DeleteAll while failDelete is set. Like the network
// backends it refuses to start a removal on a cancelled context.
type flakyStorage struct {
	storage.System
	failDelete atomic.Bool
}

func (f *flakyStorage) DeleteAll(ctx context.Context, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.failDelete.Load() {
		return fmt.Errorf("injected: %w", storage.ErrPermissionDenied)
	}
	return f.System.DeleteAll(ctx, documentID)
}

// flakyRecords fails Put or Delete while the matching flag is set.
// A failing Put first runs onPutFailure, if any.
type flakyRecords struct {
	records.System
	failPut      atomic.Bool
	failDelete   atomic.Bool
	onPutFailure func()
}

func (f *flakyRecords) Put(ctx context.Context, rec *records.Record) error {
	if f.failPut.Load() {
		if f.onPutFailure != nil {
			f.onPutFailure()
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		return errors.New("injected put failure")
	}
	return f.System.Put(ctx, rec)
}

func (f *flakyRecords) Delete(ctx context.Context, id string) error {
	if f.failDelete.Load() {
		return errors.New("injected delete failure")
	}
	return f.System.Delete(ctx, id)
}

type harness struct {
	sys     documents.System
	records *flakyRecords
	blobs   *flakyStorage
	blobDir string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	logger := discardLogger()

	recs, err := records.NewFile(&config.RecordsConfig{BasePath: filepath.Join(dir, "metadata")}, logger)
	if err != nil {
		t.Fatalf("records.NewFile() failed: %v", err)
	}

	blobDir := filepath.Join(dir, "documents")
	store, err := storage.New(&config.StorageConfig{BasePath: blobDir}, logger)
	if err != nil {
		t.Fatalf("storage.New() failed: %v", err)
	}

	lc := lifecycle.New()
	if err := recs.Start(lc); err != nil {
		t.Fatalf("records Start() failed: %v", err)
	}
	if err := store.Start(lc); err != nil {
		t.Fatalf("storage Start() failed: %v", err)
	}
	lc.WaitForStartup()

	flaky := &flakyRecords{System: recs}
	blobs := &flakyStorage{System: store}
	return &harness{
		sys:     documents.New(flaky, blobs, stubExtractor{}, locks.NewLocal(), logger),
		records: flaky,
		blobs:   blobs,
		blobDir: blobDir,
	}
}

func (h *harness) create(t *testing.T, name, owner string, folder *string, content []byte) *records.Record {
	t.Helper()
	doc, err := h.sys.Create(context.Background(), documents.CreateCommand{
		Name:     name,
		OwnerID:  owner,
		FolderID: folder,
		Content:  content,
	})
	if err != nil {
		t.Fatalf("Create(%s) failed: %v", name, err)
	}
	return doc
}

func ptr[T any](v T) *T { return &v }
