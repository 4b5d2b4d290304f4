// Package documents is the document manager. It is the only writer of
// metadata records and coordinates them with the version store, the PDF
// info extractor and per-document locks.
package documents

import (
	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/pdfinfo"
	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/records"
)

// Version comments applied when the caller supplies none.
const (
	InitialComment        = "Initial version"
	DefaultVersionComment = "New version"
)

// CreateCommand contains the data required to create a new document.
// FolderID nil places the document at the root.
type CreateCommand struct {
	Name     string
	OwnerID  string
	FolderID *string
	Content  []byte
}

// AddVersionCommand contains the data required to append a version.
type AddVersionCommand struct {
	UserID  string
	Comment string
	Content []byte
}

func metadataFrom(info *pdfinfo.Info) records.Metadata {
	keywords := info.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return records.Metadata{
		PageCount:        info.PageCount,
		HasForm:          info.HasForm,
		IsEncrypted:      info.IsEncrypted,
		Author:           info.Author,
		CreationDate:     info.CreationDate,
		ModificationDate: info.ModificationDate,
		Keywords:         keywords,
	}
}
