package documents

import (
	"context"

	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/permissions"
	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/records"
)

// System defines the document lifecycle operations.
// Reads of a missing or deleting document fail with ErrNotFound.
type System interface {
	Handler(maxUploadSize int64) *Handler

	Create(ctx context.Context, cmd CreateCommand) (*records.Record, error)
	Get(ctx context.Context, id string) (*records.Record, error)
	Update(ctx context.Context, id string, patch Patch) (*records.Record, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter records.Filter) ([]records.Record, error)

	AddVersion(ctx context.Context, id string, cmd AddVersionCommand) (*records.Version, error)
	GetVersion(ctx context.Context, id, versionID string) ([]byte, error)
	GetLatestVersion(ctx context.Context, id string) ([]byte, error)
	ListVersions(ctx context.Context, id string) ([]records.Version, error)

	Permissions(ctx context.Context, id string) ([]permissions.Permission, error)
	UpdatePermissions(ctx context.Context, id string, grants []permissions.Permission) (*records.Record, error)
	CheckPermission(ctx context.Context, id, userID string, required permissions.AccessLevel) (bool, error)

	// Purge completes every interrupted delete and returns how many
	// documents it removed.
	Purge(ctx context.Context) (int, error)
}
