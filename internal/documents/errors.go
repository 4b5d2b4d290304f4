package documents

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/permissions"
	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/records"
	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/storage"
)

// Domain errors for document operations.
var (
	ErrNotFound       = errors.New("document not found")
	ErrInvalidContent = errors.New("invalid pdf content")
	ErrInvalidInput   = errors.New("invalid document input")
	ErrInvalidPatch   = errors.New("invalid document patch")
	ErrPartialDelete  = errors.New("document partially deleted")
	ErrStorage        = errors.New("document storage failure")
	ErrFileTooLarge   = errors.New("file exceeds maximum upload size")
	ErrInvalidFile    = errors.New("invalid file")

	ErrInvalidAccessLevel = permissions.ErrInvalidAccessLevel
	ErrInvalidPermission  = permissions.ErrInvalidPermission
)

// MapHTTPStatus converts domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrInvalidContent),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrInvalidPatch),
		errors.Is(err, ErrInvalidFile),
		errors.Is(err, ErrInvalidAccessLevel),
		errors.Is(err, ErrInvalidPermission):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// storeError translates a metadata or version store failure into a domain error.
// Ids that no store can hold are reported as missing documents.
func storeError(op string, err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, records.ErrNotFound),
		errors.Is(err, records.ErrInvalidID),
		errors.Is(err, storage.ErrNotFound),
		errors.Is(err, storage.ErrInvalidKey):
		return ErrNotFound
	default:
		return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
	}
}
