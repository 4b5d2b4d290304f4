// Package records provides the metadata store for documents.
// A Record is persisted and replaced as a whole; backends guarantee that a
// reader never observes a partially written record.
package records

import (
	"time"

	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/permissions"
)

// ContentTypePDF is the only media type the store models.
const ContentTypePDF = "application/pdf"

// State tracks a record through its lifecycle.
type State string

const (
	// StateActive is a live, readable document.
	StateActive State = "active"

	// StateDeleting marks a document whose blobs are being purged.
	// It is invisible to readers and is removed once the purge completes.
	StateDeleting State = "deleting"
)

// Record describes one document, excluding its binary content.
type Record struct {
	ID          string                   `json:"id" bson:"_id"`
	Name        string                   `json:"name" bson:"name"`
	OwnerID     string                   `json:"owner_id" bson:"owner_id"`
	FolderID    *string                  `json:"folder_id" bson:"folder_id"`
	Size        int64                    `json:"size" bson:"size"`
	ContentType string                   `json:"content_type" bson:"content_type"`
	StorageKey  string                   `json:"storage_key" bson:"storage_key"`
	Metadata    Metadata                 `json:"metadata" bson:"metadata"`
	Permissions []permissions.Permission `json:"permissions" bson:"permissions"`
	Versions    []Version                `json:"versions" bson:"versions"`
	State       State                    `json:"state,omitempty" bson:"state,omitempty"`
	CreatedAt   time.Time                `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at" bson:"updated_at"`
}

// Metadata holds the PDF-level properties of a document.
type Metadata struct {
	PageCount        int      `json:"page_count" bson:"page_count"`
	HasForm          bool     `json:"has_form" bson:"has_form"`
	IsEncrypted      bool     `json:"is_encrypted" bson:"is_encrypted"`
	Author           *string  `json:"author" bson:"author"`
	CreationDate     *string  `json:"creation_date" bson:"creation_date"`
	ModificationDate *string  `json:"modification_date" bson:"modification_date"`
	Keywords         []string `json:"keywords" bson:"keywords"`
}

// Version describes one immutable stored revision of a document.
type Version struct {
	VersionID  string    `json:"version_id" bson:"version_id"`
	StorageKey string    `json:"storage_key" bson:"storage_key"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
	CreatedBy  string    `json:"created_by" bson:"created_by"`
	Comment    string    `json:"comment" bson:"comment"`
}

// Latest returns the most recently appended version.
// The second result is false if the record has no versions.
func (r *Record) Latest() (Version, bool) {
	if len(r.Versions) == 0 {
		return Version{}, false
	}
	return r.Versions[len(r.Versions)-1], true
}

// FindVersion returns the version with the given id.
func (r *Record) FindVersion(versionID string) (Version, bool) {
	for _, v := range r.Versions {
		if v.VersionID == versionID {
			return v, true
		}
	}
	return Version{}, false
}

// Deleting reports whether the record is tombstoned.
func (r *Record) Deleting() bool {
	return r.State == StateDeleting
}
