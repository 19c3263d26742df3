package explorer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"folio/internal/domain"
	models "folio/internal/domain/models/explorer"
	explorerSvc "folio/internal/domain/services/explorer"
	"folio/internal/metrics"
)

// sniffLen is how much of the body is read to detect a missing MIME type.
const sniffLen = 3072

// maxConcurrentUploads bounds UploadBatch.
const maxConcurrentUploads = 4

type uploadService struct {
	Dependencies
}

// NewUploadService creates the upload pipeline.
func NewUploadService(deps Dependencies) explorerSvc.UploadPipeline {
	return &uploadService{Dependencies: deps}
}

// Upload validates req, writes the blob, then inserts the metadata record.
// If the insert fails the blob is removed again.
func (s *uploadService) Upload(ctx context.Context, req *explorerSvc.UploadRequest) (*models.File, error) {
	if err := s.Authorizer.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	ctx = context.WithoutCancel(ctx)

	file, err := s.upload(ctx, req)
	s.Metrics.RecordUpload(uploadResult(err), req.Size)
	if err != nil {
		return nil, err
	}

	s.invalidate(file.Scope())
	return file, nil
}

// UploadBatch runs the uploads concurrently. Each result stands alone.
func (s *uploadService) UploadBatch(ctx context.Context, reqs []*explorerSvc.UploadRequest) []explorerSvc.UploadResult {
	results := make([]explorerSvc.UploadResult, len(reqs))

	var g errgroup.Group
	g.SetLimit(maxConcurrentUploads)
	for i, req := range reqs {
		g.Go(func() error {
			file, err := s.Upload(ctx, req)
			results[i] = explorerSvc.UploadResult{Name: req.Name, File: file, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (s *uploadService) upload(ctx context.Context, req *explorerSvc.UploadRequest) (*models.File, error) {
	// 1. size
	if req.Size > s.Policy.MaxSizeBytes {
		return nil, &domain.UploadError{
			Kind:    domain.UploadSizeExceeded,
			Name:    req.Name,
			Message: fmt.Sprintf("File size exceeds %dMB limit", s.Policy.MaxSizeBytes>>20),
		}
	}
	if req.Size < 0 {
		return nil, domain.NewValidationError("file size is unknown")
	}

	// 2. type
	body, mimeType, err := detectMIME(req.Body, req.MimeType)
	if err != nil {
		return nil, &domain.UploadError{
			Kind:    domain.UploadBlobWriteFailed,
			Name:    req.Name,
			Message: "Failed to read upload",
			Err:     err,
		}
	}
	if !s.Policy.AllowsMIME(mimeType) {
		return nil, &domain.UploadError{
			Kind:    domain.UploadTypeRejected,
			Name:    req.Name,
			Message: fmt.Sprintf("File type %s is not allowed", mimeType),
		}
	}

	// 3. name
	name := SanitizeText(req.Name)
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	// 4. destination
	folderID := normalizeParent(req.FolderID)
	if folderID != nil {
		if _, err := s.Folders.GetByID(ctx, *folderID); err != nil {
			if isNotFound(err) {
				return nil, &domain.NotFoundError{Message: fmt.Sprintf("folder %s not found", *folderID)}
			}
			return nil, backendError("get folder", err)
		}
	}

	if err := s.Bucket.Ensure(ctx); err != nil {
		return nil, &domain.UploadError{
			Kind:    domain.UploadBlobWriteFailed,
			Name:    name,
			Message: "Storage bucket is unavailable",
			Err:     err,
		}
	}

	path := storagePath(folderID, name)
	if err := s.Blobs.Upload(ctx, path, body, req.Size, mimeType); err != nil {
		s.Logger.Error("blob write failed", "name", name, "file_path", path, "error", err)
		return nil, &domain.UploadError{
			Kind:    domain.UploadBlobWriteFailed,
			Name:    name,
			Message: "Failed to store file",
			Err:     err,
		}
	}

	file := &models.File{
		Name:     name,
		FileType: models.FileTypeOf(mimeType),
		FileSize: req.Size,
		FilePath: path,
		FolderID: folderID,
		MimeType: &mimeType,
	}
	if err := s.Files.Create(ctx, file); err != nil {
		return nil, s.compensate(ctx, name, path, err)
	}

	s.Logger.Info("file uploaded",
		"id", file.ID,
		"name", file.Name,
		"size", file.FileSize,
		"mime_type", mimeType,
		"file_path", path,
	)
	return file, nil
}

// compensate removes the blob of a failed metadata insert.
func (s *uploadService) compensate(ctx context.Context, name, path string, cause error) error {
	uploadErr := &domain.UploadError{
		Kind:    domain.UploadMetadataWriteFailed,
		Name:    name,
		Message: "Failed to save file record",
		Err:     cause,
	}

	removeErr := s.Blobs.Remove(ctx, []string{path})
	s.Metrics.RecordCompensation(removeErr)
	if removeErr != nil {
		uploadErr.Orphaned = true
		s.Logger.Error("orphaned blob: metadata insert and blob removal both failed",
			"file_path", path,
			"insert_error", cause,
			"remove_error", removeErr,
		)
		return uploadErr
	}

	s.Logger.Warn("metadata insert failed, blob removed", "file_path", path, "error", cause)
	return uploadErr
}

// detectMIME returns the declared type, or sniffs one when the client sent
// none. The returned reader replays the sniffed bytes.
func detectMIME(body io.Reader, declared string) (io.Reader, string, error) {
	declared = strings.TrimSpace(declared)
	if declared != "" && !strings.EqualFold(declared, "application/octet-stream") {
		return body, baseMIME(declared), nil
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(body, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, "", err
	}
	head = head[:n]

	detected := mimetype.Detect(head).String()
	return io.MultiReader(bytes.NewReader(head), body), baseMIME(detected), nil
}

// baseMIME drops parameters such as "; charset=utf-8".
func baseMIME(m string) string {
	base, _, _ := strings.Cut(m, ";")
	return strings.ToLower(strings.TrimSpace(base))
}

// storagePath builds "[folderID/]<uuidv7>-<name>". The v7 token keeps keys
// unique and roughly time ordered.
func storagePath(folderID *string, name string) string {
	token, err := uuid.NewV7()
	if err != nil {
		token = uuid.New()
	}
	key := token.String() + "-" + storageName(name)
	if folderID != nil {
		return *folderID + "/" + key
	}
	return key
}

// uploadResult is the metrics label of an upload outcome.
func uploadResult(err error) string {
	if err == nil {
		return metrics.ResultOK
	}
	var uploadErr *domain.UploadError
	switch {
	case errors.As(err, &uploadErr):
		return string(uploadErr.Kind)
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrForbidden):
		return "denied"
	default:
		return metrics.ResultError
	}
}
