package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/config"
	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/lifecycle"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3 DeleteObjects accepts at most this many keys per request.
const s3DeleteBatch = 1000

// s3Store implements System on an S3 bucket. Writes are conditional on the
// key being absent, so the store itself refuses to overwrite a version.
type s3Store struct {
	client *s3.Client
	bucket string
	logger *slog.Logger
}

// NewS3 creates an S3-backed storage system from cfg. A non-empty Endpoint
// targets an S3-compatible service using path-style addressing.
func NewS3(ctx context.Context, cfg *config.StorageConfig, logger *slog.Logger) (System, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &s3Store{
		client: client,
		bucket: cfg.Bucket,
		logger: logger.With("system", "storage", "backend", "s3"),
	}, nil
}

func (s *s3Store) Start(lc *lifecycle.Coordinator) error {
	s.logger.Info("starting storage system", "bucket", s.bucket)

	lc.OnStartup(func() {
		ctx, cancel := context.WithTimeout(lc.Context(), 10*time.Second)
		defer cancel()

		if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
			s.logger.Error("storage bucket unreachable", "error", err)
			return
		}
		s.logger.Info("storage bucket verified")
	})

	return nil
}

func (s *s3Store) Write(ctx context.Context, documentID, versionID string, data []byte) (string, error) {
	key, err := validKey(documentID, versionID)
	if err != nil {
		return "", err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentTypePDF),
		IfNoneMatch: aws.String("*"),
	})
	if err != nil {
		return "", mapS3Error(err, "put object")
	}

	return key, nil
}

func (s *s3Store) Read(ctx context.Context, documentID, versionID string) ([]byte, error) {
	key, err := validKey(documentID, versionID)
	if err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, mapS3Error(err, "get object")
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object: %w", err)
	}
	return data, nil
}

func (s *s3Store) DeleteAll(ctx context.Context, documentID string) error {
	if !validSegment(documentID) {
		return ErrInvalidKey
	}

	var ids []types.ObjectIdentifier
	pages := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(Prefix(documentID)),
	})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return mapS3Error(err, "list objects")
		}
		for _, obj := range page.Contents {
			ids = append(ids, types.ObjectIdentifier{Key: obj.Key})
		}
	}

	for start := 0; start < len(ids); start += s3DeleteBatch {
		end := min(start+s3DeleteBatch, len(ids))

		out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: ids[start:end], Quiet: aws.Bool(true)},
		})
		if err != nil {
			return mapS3Error(err, "delete objects")
		}
		if len(out.Errors) > 0 {
			e := out.Errors[0]
			return fmt.Errorf("delete %s: %s", aws.ToString(e.Key), aws.ToString(e.Message))
		}
	}

	return nil
}

func mapS3Error(err error, op string) error {
	var (
		noKey    *types.NoSuchKey
		notFound *types.NotFound
	)
	if errors.As(err, &noKey) || errors.As(err, &notFound) {
		return ErrNotFound
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "PreconditionFailed", "ConditionalRequestConflict":
			return ErrExists
		case "NoSuchKey", "NotFound":
			return ErrNotFound
		case "AccessDenied", "Forbidden":
			return ErrPermissionDenied
		}
	}

	return fmt.Errorf("%s: %w", op, err)
}
