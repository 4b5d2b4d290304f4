package documents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/locks"
	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/pdfinfo"
	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/permissions"
	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/records"
	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/storage"
	"github.com/google/uuid"
)

type manager struct {
	records records.System
	blobs   storage.System
	pdf     pdfinfo.Extractor
	locks   locks.System
	logger  *slog.Logger
}

// New creates a document manager over the given stores.
// Every read-modify-write of a record runs under locks keyed by document id.
func New(recs records.System, blobs storage.System, pdf pdfinfo.Extractor, lk locks.System, logger *slog.Logger) System {
	return &manager{
		records: recs,
		blobs:   blobs,
		pdf:     pdf,
		locks:   lk,
		logger:  logger.With("system", "documents"),
	}
}

func (m *manager) Handler(maxUploadSize int64) *Handler {
	return NewHandler(m, m.logger, maxUploadSize)
}

func (m *manager) Create(ctx context.Context, cmd CreateCommand) (*records.Record, error) {
	if cmd.OwnerID == "" {
		return nil, fmt.Errorf("%w: owner_id required", ErrInvalidInput)
	}
	if cmd.Name == "" {
		return nil, fmt.Errorf("%w: name required", ErrInvalidInput)
	}

	info, err := m.extract(ctx, cmd.Content)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	versionID := uuid.NewString()

	key, err := m.blobs.Write(ctx, id, versionID, cmd.Content)
	if err != nil {
		return nil, storeError("write version", err)
	}

	now := time.Now().UTC()
	rec := &records.Record{
		ID:          id,
		Name:        cmd.Name,
		OwnerID:     cmd.OwnerID,
		FolderID:    normalizeFolder(cmd.FolderID),
		Size:        int64(len(cmd.Content)),
		ContentType: records.ContentTypePDF,
		StorageKey:  id,
		Metadata:    metadataFrom(info),
		Permissions: []permissions.Permission{{UserID: cmd.OwnerID, AccessLevel: permissions.Manage}},
		Versions: []records.Version{{
			VersionID:  versionID,
			StorageKey: key,
			CreatedAt:  now,
			CreatedBy:  cmd.OwnerID,
			Comment:    InitialComment,
		}},
		State:     records.StateActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := m.records.Put(ctx, rec); err != nil {
		// The version is unreachable without its record, so drop it even
		// when the caller has gone away.
		if delErr := m.blobs.DeleteAll(context.WithoutCancel(ctx), id); delErr != nil {
			m.logger.Error("cleanup failed after record error", "id", id, "error", delErr)
		}
		return nil, storeError("write record", err)
	}

	m.logger.Info("document created", "id", id, "name", rec.Name, "owner_id", rec.OwnerID, "size", rec.Size)
	return rec, nil
}

func (m *manager) Get(ctx context.Context, id string) (*records.Record, error) {
	return m.load(ctx, id)
}

func (m *manager) Update(ctx context.Context, id string, patch Patch) (*records.Record, error) {
	unlock, err := m.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	rec, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := patch.Apply(rec); err != nil {
		return nil, err
	}
	rec.UpdatedAt = time.Now().UTC()

	if err := m.records.Put(ctx, rec); err != nil {
		return nil, storeError("write record", err)
	}

	m.logger.Info("document updated", "id", id, "fields", patch.Fields())
	return rec, nil
}

// Delete tombstones the record, removes every version, then removes the
// record. A failure after the tombstone is written returns ErrPartialDelete;
// the document stays hidden and a later Delete or Purge finishes the job.
func (m *manager) Delete(ctx context.Context, id string) error {
	unlock, err := m.lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	rec, err := m.records.Get(ctx, id)
	if err != nil {
		return storeError("read record", err)
	}

	if !rec.Deleting() {
		rec.State = records.StateDeleting
		rec.UpdatedAt = time.Now().UTC()
		if err := m.records.Put(ctx, rec); err != nil {
			return storeError("mark deleting", err)
		}
	}

	return m.purge(ctx, rec)
}

func (m *manager) purge(ctx context.Context, rec *records.Record) error {
	if err := m.blobs.DeleteAll(ctx, rec.ID); err != nil {
		m.logger.Error("version removal failed", "id", rec.ID, "error", err)
		return fmt.Errorf("%w: remove versions of %s: %w", ErrPartialDelete, rec.ID, err)
	}

	if err := m.records.Delete(ctx, rec.ID); err != nil && !errors.Is(err, records.ErrNotFound) {
		m.logger.Error("record removal failed", "id", rec.ID, "error", err)
		return fmt.Errorf("%w: remove record %s: %w", ErrPartialDelete, rec.ID, err)
	}

	m.logger.Info("document deleted", "id", rec.ID, "versions", len(rec.Versions))
	return nil
}

func (m *manager) Purge(ctx context.Context) (int, error) {
	all, err := m.records.List(ctx, records.Filter{})
	if err != nil {
		return 0, storeError("list records", err)
	}

	var (
		purged int
		errs   []error
	)
	for _, rec := range all {
		if !rec.Deleting() {
			continue
		}
		if err := m.Delete(ctx, rec.ID); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			errs = append(errs, err)
			continue
		}
		purged++
	}

	if purged > 0 || len(errs) > 0 {
		m.logger.Info("purge complete", "purged", purged, "failed", len(errs))
	}
	return purged, errors.Join(errs...)
}

func (m *manager) List(ctx context.Context, filter records.Filter) ([]records.Record, error) {
	all, err := m.records.List(ctx, filter)
	if err != nil {
		return nil, storeError("list records", err)
	}

	return slices.DeleteFunc(all, func(r records.Record) bool {
		return r.Deleting()
	}), nil
}

func (m *manager) AddVersion(ctx context.Context, id string, cmd AddVersionCommand) (*records.Version, error) {
	if cmd.UserID == "" {
		return nil, fmt.Errorf("%w: user_id required", ErrInvalidInput)
	}

	info, err := m.extract(ctx, cmd.Content)
	if err != nil {
		return nil, err
	}

	unlock, err := m.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	rec, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}

	versionID := uuid.NewString()
	key, err := m.blobs.Write(ctx, id, versionID, cmd.Content)
	if err != nil {
		return nil, storeError("write version", err)
	}

	comment := cmd.Comment
	if comment == "" {
		comment = DefaultVersionComment
	}

	now := time.Now().UTC()
	version := records.Version{
		VersionID:  versionID,
		StorageKey: key,
		CreatedAt:  now,
		CreatedBy:  cmd.UserID,
		Comment:    comment,
	}

	rec.Size = int64(len(cmd.Content))
	rec.Metadata.PageCount = info.PageCount
	rec.Metadata.HasForm = info.HasForm
	rec.Metadata.IsEncrypted = info.IsEncrypted
	rec.Versions = append(rec.Versions, version)
	rec.UpdatedAt = now

	if err := m.records.Put(ctx, rec); err != nil {
		// the unreferenced blob is removed with the document's other versions
		m.logger.Warn("version blob orphaned", "id", id, "version_id", versionID)
		return nil, storeError("write record", err)
	}

	m.logger.Info("version added", "id", id, "version_id", versionID, "created_by", cmd.UserID, "size", rec.Size)
	return &version, nil
}

func (m *manager) GetVersion(ctx context.Context, id, versionID string) ([]byte, error) {
	rec, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}

	v, ok := rec.FindVersion(versionID)
	if !ok {
		return nil, fmt.Errorf("%w: version %s", ErrNotFound, versionID)
	}
	return m.read(ctx, id, v)
}

func (m *manager) GetLatestVersion(ctx context.Context, id string) ([]byte, error) {
	rec, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}

	v, ok := rec.Latest()
	if !ok {
		return nil, fmt.Errorf("%w: document %s has no versions", ErrNotFound, id)
	}
	return m.read(ctx, id, v)
}

func (m *manager) ListVersions(ctx context.Context, id string) ([]records.Version, error) {
	rec, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return slices.Clone(rec.Versions), nil
}

func (m *manager) Permissions(ctx context.Context, id string) ([]permissions.Permission, error) {
	rec, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if rec.Permissions == nil {
		return []permissions.Permission{}, nil
	}
	return slices.Clone(rec.Permissions), nil
}

func (m *manager) UpdatePermissions(ctx context.Context, id string, grants []permissions.Permission) (*records.Record, error) {
	if err := permissions.Validate(grants); err != nil {
		return nil, err
	}

	unlock, err := m.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	rec, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}

	rec.Permissions = append([]permissions.Permission{}, grants...)
	rec.UpdatedAt = time.Now().UTC()

	if err := m.records.Put(ctx, rec); err != nil {
		return nil, storeError("write record", err)
	}

	m.logger.Info("permissions updated", "id", id, "grants", len(grants))
	return rec, nil
}

func (m *manager) CheckPermission(ctx context.Context, id, userID string, required permissions.AccessLevel) (bool, error) {
	if err := required.Validate(); err != nil {
		return false, err
	}

	rec, err := m.load(ctx, id)
	if err != nil {
		return false, err
	}

	return permissions.HasAccess(rec.OwnerID, rec.Permissions, userID, required), nil
}

// load returns the live record for id. Tombstoned records are not found.
func (m *manager) load(ctx context.Context, id string) (*records.Record, error) {
	rec, err := m.records.Get(ctx, id)
	if err != nil {
		return nil, storeError("read record", err)
	}
	if rec.Deleting() {
		return nil, ErrNotFound
	}
	return rec, nil
}

func (m *manager) read(ctx context.Context, id string, v records.Version) ([]byte, error) {
	data, err := m.blobs.Read(ctx, id, v.VersionID)
	if err != nil {
		return nil, storeError("read version", err)
	}
	return data, nil
}

func (m *manager) lock(ctx context.Context, id string) (func(), error) {
	unlock, err := m.locks.Lock(ctx, id)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: lock %s: %w", ErrStorage, id, err)
	}
	return unlock, nil
}

func (m *manager) extract(ctx context.Context, content []byte) (*pdfinfo.Info, error) {
	info, err := m.pdf.Extract(ctx, content)
	if err != nil {
		if errors.Is(err, pdfinfo.ErrUnreadable) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidContent, err)
		}
		return nil, err
	}
	return info, nil
}

func normalizeFolder(folderID *string) *string {
	if folderID == nil || *folderID == "" || *folderID == records.RootFolder {
		return nil
	}
	f := *folderID
	return &f
}
