package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/config"
	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/lifecycle"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const contentTypePDF = "application/pdf"

// minioStore implements System on a minio bucket.
type minioStore struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

// NewMinio creates a minio-backed storage system from cfg.
// The bucket is created during startup if it does not exist.
func NewMinio(cfg *config.StorageConfig, logger *slog.Logger) (System, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &minioStore{
		client: client,
		bucket: cfg.Bucket,
		logger: logger.With("system", "storage", "backend", "minio"),
	}, nil
}

func (m *minioStore) Start(lc *lifecycle.Coordinator) error {
	m.logger.Info("starting storage system", "endpoint", m.client.EndpointURL().Host, "bucket", m.bucket)

	lc.OnStartup(func() {
		ctx, cancel := context.WithTimeout(lc.Context(), 10*time.Second)
		defer cancel()

		exists, err := m.client.BucketExists(ctx, m.bucket)
		if err != nil {
			m.logger.Error("storage initialization failed", "error", err)
			return
		}
		if !exists {
			if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
				m.logger.Error("bucket creation failed", "error", err)
				return
			}
		}
		m.logger.Info("storage bucket initialized")
	})

	return nil
}

func (m *minioStore) Write(ctx context.Context, documentID, versionID string, data []byte) (string, error) {
	key, err := validKey(documentID, versionID)
	if err != nil {
		return "", err
	}

	// minio has no conditional put; the per-document lock held by callers
	// keeps the stat and put from racing another writer.
	if _, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{}); err == nil {
		return "", ErrExists
	} else if err := mapMinioError(err, "stat object"); err != ErrNotFound {
		return "", err
	}

	_, err = m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentTypePDF,
	})
	if err != nil {
		return "", mapMinioError(err, "put object")
	}

	return key, nil
}

func (m *minioStore) Read(ctx context.Context, documentID, versionID string) ([]byte, error) {
	key, err := validKey(documentID, versionID)
	if err != nil {
		return nil, err
	}

	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapMinioError(err, "get object")
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, mapMinioError(err, "read object")
	}
	return data, nil
}

func (m *minioStore) DeleteAll(ctx context.Context, documentID string) error {
	if !validSegment(documentID) {
		return ErrInvalidKey
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	objects := make(chan minio.ObjectInfo)
	var listErr error

	go func() {
		defer close(objects)
		for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
			Prefix:    Prefix(documentID),
			Recursive: true,
		}) {
			if obj.Err != nil {
				listErr = obj.Err
				return
			}
			select {
			case objects <- obj:
			case <-ctx.Done():
				return
			}
		}
	}()

	for rerr := range m.client.RemoveObjects(ctx, m.bucket, objects, minio.RemoveObjectsOptions{}) {
		if rerr.Err != nil {
			return mapMinioError(rerr.Err, "remove "+rerr.ObjectName)
		}
	}

	if listErr != nil {
		return mapMinioError(listErr, "list objects")
	}
	return nil
}

func mapMinioError(err error, op string) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return ErrNotFound
	case "AccessDenied":
		return ErrPermissionDenied
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
