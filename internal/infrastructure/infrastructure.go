// Package infrastructure assembles the stores, locks and extractor that the
// document manager requires, choosing each backend from configuration.
package infrastructure

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/config"
	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/lifecycle"
	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/locks"
	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/pdfinfo"
	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/records"
	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/storage"
	"github.com/AdnanAhmad1994/pdf-editor-saas/pkg/logging"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ServiceName tags every log record the service emits.
const ServiceName = "pdf-editor"

// Infrastructure holds the core systems required by the document manager.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Records   records.System
	Storage   storage.System
	Locks     locks.System
	PDF       pdfinfo.Extractor

	redis *redis.Client
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := logging.New(&cfg.Logging, os.Stdout, ServiceName)

	recs, err := newRecords(lc.Context(), &cfg.Records, logger)
	if err != nil {
		return nil, fmt.Errorf("records init failed: %w", err)
	}

	store, err := newStorage(lc.Context(), &cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	infra := &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Records:   recs,
		Storage:   store,
		PDF:       pdfinfo.New(),
	}

	switch cfg.Locks.Backend {
	case config.LocksRedis:
		infra.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Locks.RedisAddr,
			Password: cfg.Locks.RedisPassword,
			DB:       cfg.Locks.RedisDB,
		})
		infra.Locks = locks.NewRedis(infra.redis, cfg.Locks.TTLDuration(), cfg.Locks.RetryIntervalDuration(), logger)
	default:
		infra.Locks = locks.NewLocal()
	}

	return infra, nil
}

// Start initializes all infrastructure systems and registers them with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if err := i.Records.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("records start failed: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}

	if i.redis != nil {
		if err := i.redis.Ping(i.Lifecycle.Context()).Err(); err != nil {
			return fmt.Errorf("redis ping failed: %w", err)
		}
		i.Lifecycle.OnShutdown(func() {
			<-i.Lifecycle.Context().Done()
			if err := i.redis.Close(); err != nil {
				i.Logger.Error("redis close failed", "error", err)
			}
		})
	}

	return nil
}

func newRecords(ctx context.Context, cfg *config.RecordsConfig, logger *slog.Logger) (records.System, error) {
	switch cfg.Backend {
	case config.RecordsPostgres:
		db, err := openPostgres(ctx, &cfg.Postgres)
		if err != nil {
			return nil, err
		}
		return records.NewPostgres(db, cfg.Postgres.MigrationURL(), logger), nil

	case config.RecordsMongo:
		connectCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.ConnTimeoutDuration())
		defer cancel()

		client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		if err := client.Ping(connectCtx, nil); err != nil {
			return nil, fmt.Errorf("ping mongo: %w", err)
		}
		return records.NewMongo(client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection), logger), nil

	default:
		return records.NewFile(cfg, logger)
	}
}

func openPostgres(ctx context.Context, cfg *config.PostgresConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnTimeoutDuration())
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

func newStorage(ctx context.Context, cfg *config.StorageConfig, logger *slog.Logger) (storage.System, error) {
	switch cfg.Backend {
	case config.StorageMinio:
		return storage.NewMinio(cfg, logger)
	case config.StorageS3:
		return storage.NewS3(ctx, cfg, logger)
	default:
		return storage.New(cfg, logger)
	}
}
