package storage

import (
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/minio/minio-go/v7"
)

func TestMapS3Error(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"precondition", &smithy.GenericAPIError{Code: "PreconditionFailed"}, ErrExists},
		{"no such key", &types.NoSuchKey{}, ErrNotFound},
		{"head not found", &types.NotFound{}, ErrNotFound},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, ErrPermissionDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapS3Error(tt.err, "op"); !errors.Is(got, tt.want) {
				t.Errorf("mapS3Error() = %v, want %v", got, tt.want)
			}
		})
	}

	other := errors.New("throttled")
	if got := mapS3Error(other, "put object"); !errors.Is(got, other) {
		t.Errorf("mapS3Error() = %v, want wrapped original", got)
	}
}

func TestMapMinioError(t *testing.T) {
	tests := []struct {
		name string
		code string
		want error
	}{
		{"no such key", "NoSuchKey", ErrNotFound},
		{"no such bucket", "NoSuchBucket", ErrNotFound},
		{"access denied", "AccessDenied", ErrPermissionDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := minio.ErrorResponse{Code: tt.code}
			if got := mapMinioError(err, "op"); !errors.Is(got, tt.want) {
				t.Errorf("mapMinioError() = %v, want %v", got, tt.want)
			}
		})
	}

	if got := mapMinioError(minio.ErrorResponse{Code: "SlowDown"}, "put object"); errors.Is(got, ErrNotFound) {
		t.Errorf("mapMinioError(SlowDown) = %v, should not map to ErrNotFound", got)
	}
}
