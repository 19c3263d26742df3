package handler

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	models "folio/internal/domain/models/explorer"
	explorerSvc "folio/internal/domain/services/explorer"
	"folio/internal/httputil"
)

const (
	// maxFilesPerRequest caps one multipart batch
	maxFilesPerRequest = 20
	// multipartMemory is held in memory before parts spill to disk
	multipartMemory = 32 << 20
)

// FileHandler handles file HTTP requests
type FileHandler struct {
	mutations   explorerSvc.MutationCoordinator
	uploads     explorerSvc.UploadPipeline
	previews    explorerSvc.PreviewService
	maxFileSize int64
	logger      *slog.Logger
}

// NewFileHandler creates a new file handler. maxFileSize bounds each part
// of an upload request.
func NewFileHandler(
	mutations explorerSvc.MutationCoordinator,
	uploads explorerSvc.UploadPipeline,
	previews explorerSvc.PreviewService,
	maxFileSize int64,
	logger *slog.Logger,
) *FileHandler {
	return &FileHandler{
		mutations:   mutations,
		uploads:     uploads,
		previews:    previews,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

// updateFileRequest is a PATCH body. folder_id moves the file; null moves
// it to the root.
type updateFileRequest struct {
	Name        httputil.OptionalString `json:"name"`
	Description httputil.OptionalString `json:"description"`
	FolderID    httputil.OptionalString `json:"folder_id"`
}

// uploadItem is one entry of a batch upload response
type uploadItem struct {
	Name   string       `json:"name"`
	Status int          `json:"status"`
	File   *models.File `json:"file,omitempty"`
	Error  any          `json:"error,omitempty"`
}

// GetFile retrieves file metadata by ID
// GET /api/files/{id}
func (h *FileHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	file, err := h.mutations.GetFile(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, models.NewFileEntry(*file))
}

// UploadFiles stores every "files" part of a multipart form in folder_id
// POST /api/files
// Returns 201 when all succeed, 207 with per-file results when some fail
func (h *FileHandler) UploadFiles(w http.ResponseWriter, r *http.Request) {
	// Each part may reach the size limit; anything beyond that is
	// rejected before the pipeline sees it.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize*maxFilesPerRequest+(1<<20))
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			httputil.RespondError(w, http.StatusRequestEntityTooLarge, "upload request is too large")
			return
		}
		httputil.RespondError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		httputil.RespondError(w, http.StatusBadRequest, "no files provided")
		return
	}
	if len(headers) > maxFilesPerRequest {
		httputil.RespondError(w, http.StatusBadRequest, "too many files in one request (max "+strconv.Itoa(maxFilesPerRequest)+")")
		return
	}

	folderID := httputil.OptionalQuery(r, "folder_id")
	if v := r.FormValue("folder_id"); v != "" {
		folderID = &v
	}

	reqs, closeAll, err := openParts(headers, folderID)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "failed to read upload: "+err.Error())
		return
	}
	defer closeAll()

	results := h.uploads.UploadBatch(r.Context(), reqs)
	h.respondUploads(w, results)
}

func openParts(headers []*multipart.FileHeader, folderID *string) ([]*explorerSvc.UploadRequest, func(), error) {
	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}

	reqs := make([]*explorerSvc.UploadRequest, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		opened = append(opened, f)
		reqs = append(reqs, &explorerSvc.UploadRequest{
			Body:     f,
			Name:     fh.Filename,
			Size:     fh.Size,
			MimeType: fh.Header.Get("Content-Type"),
			FolderID: folderID,
		})
	}
	return reqs, closeAll, nil
}

// respondUploads picks the status: 201 when every file succeeded, the
// shared error when every file failed the same way, 207 otherwise.
func (h *FileHandler) respondUploads(w http.ResponseWriter, results []explorerSvc.UploadResult) {
	items := make([]uploadItem, len(results))
	failed := 0
	statuses := make(map[int]bool)

	for i, res := range results {
		if res.Err == nil {
			items[i] = uploadItem{Name: res.Name, Status: http.StatusCreated, File: res.File}
			continue
		}
		failed++
		status, detail, extras := problemFor(res.Err)
		statuses[status] = true
		problem := httputil.ProblemDetail{
			Type:   "about:blank",
			Title:  http.StatusText(status),
			Status: status,
			Detail: detail,
			Extra:  extras,
		}
		items[i] = uploadItem{Name: res.Name, Status: status, Error: problem}
	}

	switch {
	case failed == 0:
		httputil.RespondJSON(w, http.StatusCreated, map[string]any{"results": items})
	case failed == len(results) && len(statuses) == 1:
		handleError(w, results[0].Err)
	default:
		httputil.RespondJSON(w, http.StatusMultiStatus, map[string]any{"results": items})
	}
}

// UpdateFile renames, describes or moves a file
// PATCH /api/files/{id}
func (h *FileHandler) UpdateFile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req updateFileRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	fields := &explorerSvc.EntryFields{
		Name:        req.Name.Text(),
		Description: req.Description.Text(),
	}
	file, err := h.mutations.UpdateFile(r.Context(), id, fields, req.FolderID.Text())
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, models.NewFileEntry(*file))
}

// DeleteFile removes a file and its stored content
// DELETE /api/files/{id}
func (h *FileHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	if err := h.mutations.DeleteFile(r.Context(), r.PathValue("id")); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Preview issues a signed URL
// GET /api/files/{id}/preview
func (h *FileHandler) Preview(w http.ResponseWriter, r *http.Request) {
	preview, err := h.previews.Preview(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, preview)
}

// Download streams the stored content as an attachment
// GET /api/files/{id}/download
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	body, file, err := h.previews.Download(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}
	defer body.Close()

	contentType := file.MIME()
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Name}))
	w.Header().Set("Content-Length", strconv.FormatInt(file.FileSize, 10))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn("download interrupted", "file_id", file.ID, "error", err)
	}
}
