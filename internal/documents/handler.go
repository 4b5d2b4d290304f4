package documents

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/permissions"
	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/records"
	"github.com/AdnanAhmad1994/pdf-editor-saas/pkg/handlers"
	"github.com/AdnanAhmad1994/pdf-editor-saas/pkg/routes"
)

// multipart framing allowance on top of the file limit
const formOverhead = 1 << 20

// Handler provides HTTP endpoints for document operations.
type Handler struct {
	sys           System
	logger        *slog.Logger
	maxUploadSize int64
}

// NewHandler creates a document handler with the specified configuration.
func NewHandler(sys System, logger *slog.Logger, maxUploadSize int64) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "documents"),
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the document endpoint route group.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/documents",
		Description: "Versioned PDF documents and their permissions",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "POST", Pattern: "", Handler: h.Upload},
			{Method: "GET", Pattern: "/{id}", Handler: h.Get},
			{Method: "PUT", Pattern: "/{id}", Handler: h.Update},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete},
			{Method: "GET", Pattern: "/{id}/download", Handler: h.Download},
			{Method: "GET", Pattern: "/{id}/versions", Handler: h.ListVersions},
			{Method: "POST", Pattern: "/{id}/versions", Handler: h.AddVersion},
			{Method: "GET", Pattern: "/{id}/versions/{version_id}", Handler: h.GetVersion},
			{Method: "GET", Pattern: "/{id}/permissions", Handler: h.Permissions},
			{Method: "PUT", Pattern: "/{id}/permissions", Handler: h.UpdatePermissions},
			{Method: "GET", Pattern: "/{id}/access", Handler: h.CheckAccess},
		},
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.sys.List(r.Context(), records.FilterFromQuery(r.URL.Query()))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, docs)
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	data, header, err := h.readFile(w, r)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	name := r.FormValue("name")
	if name == "" {
		name = header.Filename
	}

	cmd := CreateCommand{
		Name:    name,
		OwnerID: r.FormValue("owner_id"),
		Content: data,
	}
	if folder := r.FormValue("folder_id"); folder != "" {
		cmd.FolderID = &folder
	}

	doc, err := h.sys.Create(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, doc)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.sys.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, doc)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var patch Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: %w", ErrInvalidPatch, err))
		return
	}

	doc, err := h.sys.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, doc)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.sys.Delete(r.Context(), r.PathValue("id")); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	doc, err := h.sys.Get(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	data, err := h.sys.GetLatestVersion(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondPDF(w, pdfFilename(doc.Name), data)
}

func (h *Handler) ListVersions(w http.ResponseWriter, r *http.Request) {
	versions, err := h.sys.ListVersions(r.Context(), r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, versions)
}

func (h *Handler) AddVersion(w http.ResponseWriter, r *http.Request) {
	data, _, err := h.readFile(w, r)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	version, err := h.sys.AddVersion(r.Context(), r.PathValue("id"), AddVersionCommand{
		UserID:  r.FormValue("user_id"),
		Comment: r.FormValue("comment"),
		Content: data,
	})
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, version)
}

func (h *Handler) GetVersion(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	versionID := r.PathValue("version_id")

	data, err := h.sys.GetVersion(r.Context(), id, versionID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondPDF(w, versionID+".pdf", data)
}

func (h *Handler) Permissions(w http.ResponseWriter, r *http.Request) {
	grants, err := h.sys.Permissions(r.Context(), r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, grants)
}

func (h *Handler) UpdatePermissions(w http.ResponseWriter, r *http.Request) {
	var grants []permissions.Permission
	if err := json.NewDecoder(r.Body).Decode(&grants); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: %w", ErrInvalidPermission, err))
		return
	}

	doc, err := h.sys.UpdatePermissions(r.Context(), r.PathValue("id"), grants)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, doc)
}

// AccessResult is the body returned by CheckAccess.
type AccessResult struct {
	UserID  string                  `json:"user_id"`
	Level   permissions.AccessLevel `json:"level"`
	Allowed bool                    `json:"allowed"`
}

func (h *Handler) CheckAccess(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	userID := q.Get("user_id")
	if userID == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: user_id required", ErrInvalidInput))
		return
	}

	level, err := permissions.ParseAccessLevel(q.Get("level"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	allowed, err := h.sys.CheckPermission(r.Context(), r.PathValue("id"), userID, level)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, AccessResult{UserID: userID, Level: level, Allowed: allowed})
}

// readFile reads the "file" part of a multipart upload, enforcing the size limit.
func (h *Handler) readFile(w http.ResponseWriter, r *http.Request) ([]byte, *multipart.FileHeader, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+formOverhead)

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, ErrFileTooLarge
		}
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	defer file.Close()

	if header.Size > h.maxUploadSize {
		return nil, nil, ErrFileTooLarge
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	return data, header, nil
}

func pdfFilename(name string) string {
	if strings.HasSuffix(strings.ToLower(name), ".pdf") {
		return name
	}
	return name + ".pdf"
}
