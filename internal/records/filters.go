package records

import "net/url"

// RootFolder is the folder filter value that matches records without a folder.
const RootFolder = "root"

// Filter selects records by owner and folder. Nil fields match everything.
type Filter struct {
	OwnerID  *string
	FolderID *string
}

// FilterFromQuery extracts owner_id and folder_id from URL query parameters.
func FilterFromQuery(values url.Values) Filter {
	var f Filter

	if o := values.Get("owner_id"); o != "" {
		f.OwnerID = &o
	}

	if fid := values.Get("folder_id"); fid != "" {
		f.FolderID = &fid
	}

	return f
}

// Matches reports whether rec satisfies both axes of the filter.
func (f Filter) Matches(rec *Record) bool {
	if f.OwnerID != nil && rec.OwnerID != *f.OwnerID {
		return false
	}

	if f.FolderID != nil {
		if *f.FolderID == RootFolder {
			return rec.FolderID == nil
		}
		return rec.FolderID != nil && *rec.FolderID == *f.FolderID
	}

	return true
}
