// Package storage provides the version store: write-once PDF blobs addressed
// by document id and version id. A filesystem backend serves single-node
// deployments; minio and s3 backends serve shared object storage.
package storage

import "errors"

// Storage errors returned by System implementations.
var (
	// ErrNotFound indicates the requested version blob does not exist.
	ErrNotFound = errors.New("storage: key not found")

	// ErrExists indicates a blob is already stored under the key.
	// Version blobs are never overwritten.
	ErrExists = errors.New("storage: key already exists")

	// ErrPermissionDenied indicates insufficient permissions to access the key.
	ErrPermissionDenied = errors.New("storage: permission denied")

	// ErrInvalidKey indicates an id is empty or would escape its prefix.
	ErrInvalidKey = errors.New("storage: invalid key")
)
