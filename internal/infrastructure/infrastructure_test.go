package infrastructure_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/config"
	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/infrastructure"
	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/records"
)

func localConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Config{
		Storage: config.StorageConfig{BasePath: filepath.Join(dir, "documents")},
		Records: config.RecordsConfig{BasePath: filepath.Join(dir, "metadata")},
	}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}
	return cfg
}

func TestNew_LocalBackends(t *testing.T) {
	infra, err := infrastructure.New(localConfig(t))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if infra.Lifecycle == nil || infra.Logger == nil {
		t.Fatal("lifecycle or logger not initialized")
	}
	if infra.Records == nil || infra.Storage == nil || infra.Locks == nil || infra.PDF == nil {
		t.Fatal("core systems not initialized")
	}

	if err := infra.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	infra.Lifecycle.WaitForStartup()

	ctx := context.Background()
	if _, err := infra.Storage.Write(ctx, "doc-1", "v1", []byte("%PDF")); err != nil {
		t.Errorf("storage write failed: %v", err)
	}

	rec := &records.Record{ID: "doc-1", OwnerID: "u1", State: records.StateActive}
	if err := infra.Records.Put(ctx, rec); err != nil {
		t.Errorf("record put failed: %v", err)
	}

	unlock, err := infra.Locks.Lock(ctx, "doc-1")
	if err != nil {
		t.Fatalf("Lock() failed: %v", err)
	}
	unlock()

	if err := infra.Lifecycle.Shutdown(5 * time.Second); err != nil {
		t.Errorf("Shutdown() failed: %v", err)
	}
}

func TestNew_UnreachableRedisFailsStart(t *testing.T) {
	cfg := localConfig(t)
	cfg.Locks.Backend = config.LocksRedis
	cfg.Locks.RedisAddr = "127.0.0.1:1"

	infra, err := infrastructure.New(cfg)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer infra.Lifecycle.Shutdown(time.Second)

	if err := infra.Start(); err == nil {
		t.Error("Start() succeeded with unreachable redis, want error")
	}
}
