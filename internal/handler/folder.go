package handler

import (
	"log/slog"
	"net/http"

	models "folio/internal/domain/models/explorer"
	explorerSvc "folio/internal/domain/services/explorer"
	"folio/internal/httputil"
)

// FolderHandler handles folder HTTP requests
type FolderHandler struct {
	mutations explorerSvc.MutationCoordinator
	tree      explorerSvc.TreeResolver
	logger    *slog.Logger
}

// NewFolderHandler creates a new folder handler
func NewFolderHandler(mutations explorerSvc.MutationCoordinator, tree explorerSvc.TreeResolver, logger *slog.Logger) *FolderHandler {
	return &FolderHandler{
		mutations: mutations,
		tree:      tree,
		logger:    logger,
	}
}

// updateFolderRequest is a PATCH body. parent_id moves the folder;
// null moves it to the root.
type updateFolderRequest struct {
	Name        httputil.OptionalString `json:"name"`
	Description httputil.OptionalString `json:"description"`
	Icon        httputil.OptionalString `json:"icon"`
	ParentID    httputil.OptionalString `json:"parent_id"`
}

// CreateFolder creates a new folder
// POST /api/folders
// Returns 201 if created, 409 with existing folder if duplicate
func (h *FolderHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req explorerSvc.CreateFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	folder, err := h.mutations.CreateFolder(r.Context(), &req)
	if err != nil {
		HandleCreateConflict(w, err, func(id string) (*models.Folder, error) {
			return h.mutations.GetFolder(r.Context(), id)
		})
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, folder)
}

// GetFolder retrieves a folder by ID
// GET /api/folders/{id}
func (h *FolderHandler) GetFolder(w http.ResponseWriter, r *http.Request) {
	folder, err := h.mutations.GetFolder(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, folder)
}

// GetPath returns the root-first breadcrumb of a folder
// GET /api/folders/{id}/path
func (h *FolderHandler) GetPath(w http.ResponseWriter, r *http.Request) {
	path, err := h.tree.ResolvePath(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]any{"path": path})
}

// UpdateFolder renames, describes, re-icons or moves a folder
// PATCH /api/folders/{id}
func (h *FolderHandler) UpdateFolder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req updateFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	fields := &explorerSvc.EntryFields{
		Name:        req.Name.Text(),
		Description: req.Description.Text(),
		Icon:        req.Icon.Text(),
	}
	folder, err := h.mutations.UpdateFolder(r.Context(), id, fields, req.ParentID.Text())
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, folder)
}

// DeleteFolder deletes a folder with everything inside it
// DELETE /api/folders/{id}
func (h *FolderHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	if err := h.mutations.DeleteFolder(r.Context(), r.PathValue("id")); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
