package documents

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/permissions"
	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/records"
)

// Patch is a field-level update to a record, keyed by JSON field name.
type Patch map[string]json.RawMessage

// Fields the store owns. A patch naming them is accepted and they are left as is.
var ignoredFields = map[string]bool{
	"id":           true,
	"owner_id":     true,
	"versions":     true,
	"created_at":   true,
	"updated_at":   true,
	"storage_key":  true,
	"content_type": true,
	"state":        true,
}

// Fields a patch must not set: they are derived from content.
var derivedFields = map[string]bool{
	"size": true,
}

// Fields returns the sorted keys the patch will change.
func (p Patch) Fields() []string {
	fields := make([]string, 0, len(p))
	for k := range p {
		if !ignoredFields[k] {
			fields = append(fields, k)
		}
	}
	slices.Sort(fields)
	return fields
}

// Apply writes the patch into rec. On error rec may be partially modified
// and must be discarded.
func (p Patch) Apply(rec *records.Record) error {
	for _, key := range p.Fields() {
		raw := p[key]

		var err error
		switch key {
		case "name":
			err = patchName(rec, raw)
		case "folder_id":
			err = patchFolder(rec, raw)
		case "metadata":
			err = patchMetadata(&rec.Metadata, raw)
		case "permissions":
			err = patchPermissions(rec, raw)
		default:
			if derivedFields[key] {
				err = fmt.Errorf("%w: %s is derived from content", ErrInvalidPatch, key)
			} else {
				err = fmt.Errorf("%w: unknown field %q", ErrInvalidPatch, key)
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func patchName(rec *records.Record, raw json.RawMessage) error {
	var name string
	if err := decodeField("name", raw, &name); err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidPatch)
	}
	rec.Name = name
	return nil
}

func patchFolder(rec *records.Record, raw json.RawMessage) error {
	if isNull(raw) {
		rec.FolderID = nil
		return nil
	}

	var folder string
	if err := decodeField("folder_id", raw, &folder); err != nil {
		return err
	}
	rec.FolderID = normalizeFolder(&folder)
	return nil
}

func patchPermissions(rec *records.Record, raw json.RawMessage) error {
	var grants []permissions.Permission
	if err := decodeField("permissions", raw, &grants); err != nil {
		return err
	}
	if err := permissions.Validate(grants); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPatch, err)
	}
	rec.Permissions = append([]permissions.Permission{}, grants...)
	return nil
}

// patchMetadata merges the given subfields into md, leaving others untouched.
func patchMetadata(md *records.Metadata, raw json.RawMessage) error {
	var fields map[string]json.RawMessage
	if err := decodeField("metadata", raw, &fields); err != nil {
		return err
	}

	for key, v := range fields {
		name := "metadata." + key

		var err error
		switch key {
		case "page_count":
			err = decodeField(name, v, &md.PageCount)
			if err == nil && md.PageCount < 0 {
				err = fmt.Errorf("%w: %s must not be negative", ErrInvalidPatch, name)
			}
		case "has_form":
			err = decodeField(name, v, &md.HasForm)
		case "is_encrypted":
			err = decodeField(name, v, &md.IsEncrypted)
		case "author":
			md.Author, err = decodeOptional(name, v)
		case "creation_date":
			md.CreationDate, err = decodeOptional(name, v)
		case "modification_date":
			md.ModificationDate, err = decodeOptional(name, v)
		case "keywords":
			md.Keywords = []string{}
			if !isNull(v) {
				err = decodeField(name, v, &md.Keywords)
			}
		default:
			err = fmt.Errorf("%w: unknown field %q", ErrInvalidPatch, name)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// decodeField decodes a non-null JSON value into dst.
func decodeField(name string, raw json.RawMessage, dst any) error {
	if isNull(raw) {
		return fmt.Errorf("%w: %s must not be null", ErrInvalidPatch, name)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidPatch, name, err)
	}
	return nil
}

func decodeOptional(name string, raw json.RawMessage) (*string, error) {
	if isNull(raw) {
		return nil, nil
	}
	var s string
	if err := decodeField(name, raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
