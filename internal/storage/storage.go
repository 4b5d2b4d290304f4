package storage

import (
	"context"
	"strings"

	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/lifecycle"
)

// System defines the version store. Every blob is written exactly once;
// the only removal is DeleteAll, which drops every version of a document.
type System interface {
	// Write stores data as documentID's version versionID and returns its key.
	// Returns ErrExists if that version is already stored.
	Write(ctx context.Context, documentID, versionID string, data []byte) (string, error)

	// Read returns the bytes of a stored version.
	// Returns ErrNotFound if the version does not exist.
	Read(ctx context.Context, documentID, versionID string) ([]byte, error)

	// DeleteAll removes every version of documentID.
	// Removing a document with no stored versions is not an error.
	DeleteAll(ctx context.Context, documentID string) error

	// Start registers lifecycle hooks with the coordinator.
	Start(lc *lifecycle.Coordinator) error
}

// Key returns the storage key of a version: "{documentID}/versions/{versionID}.pdf".
func Key(documentID, versionID string) string {
	return documentID + "/versions/" + versionID + ".pdf"
}

// Prefix returns the key prefix shared by every version of documentID.
func Prefix(documentID string) string {
	return documentID + "/"
}

func validKey(documentID, versionID string) (string, error) {
	if !validSegment(documentID) || !validSegment(versionID) {
		return "", ErrInvalidKey
	}
	return Key(documentID, versionID), nil
}

func validSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}
