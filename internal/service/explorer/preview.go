package explorer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"folio/internal/config"
	"folio/internal/domain"
	models "folio/internal/domain/models/explorer"
	explorerSvc "folio/internal/domain/services/explorer"
	"folio/internal/domain/storage"
)

const (
	officeViewerURL = "https://view.officeapps.live.com/op/embed.aspx?src="
	googleViewerURL = "https://docs.google.com/viewer?url="
)

type previewService struct {
	Dependencies
	now func() time.Time
}

// NewPreviewService creates the preview service. Previews are readable by
// visitors.
func NewPreviewService(deps Dependencies) explorerSvc.PreviewService {
	if deps.SignedURLTTL <= 0 {
		deps.SignedURLTTL = config.DefaultSignedURLTTL
	}
	return &previewService{Dependencies: deps, now: time.Now}
}

func (s *previewService) getFile(ctx context.Context, id string) (*models.File, error) {
	file, err := s.Files.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, &domain.NotFoundError{Message: fmt.Sprintf("file %s not found", id)}
		}
		return nil, backendError("get file", err)
	}
	return file, nil
}

// Preview issues a signed URL for the file plus rendering hints.
func (s *previewService) Preview(ctx context.Context, fileID string) (*explorerSvc.Preview, error) {
	file, err := s.getFile(ctx, fileID)
	if err != nil {
		return nil, err
	}

	issued := s.now()
	signed, err := s.Blobs.CreateSignedURL(ctx, file.FilePath, s.SignedURLTTL)
	if err != nil {
		s.Logger.Warn("signed url failed", "file_id", file.ID, "file_path", file.FilePath, "error", err)
		return nil, &domain.PreviewError{FileID: file.ID, Err: err}
	}

	kind := PreviewKindFor(file)
	p := &explorerSvc.Preview{
		File:      file,
		URL:       signed,
		ExpiresAt: issued.Add(s.SignedURLTTL),
		Kind:      kind,
	}
	if kind == explorerSvc.PreviewOffice {
		p.ViewerURLs = OfficeViewerURLs(signed)
	}
	return p, nil
}

// Download opens the file body. Caller must close the reader.
func (s *previewService) Download(ctx context.Context, fileID string) (io.ReadCloser, *models.File, error) {
	file, err := s.getFile(ctx, fileID)
	if err != nil {
		return nil, nil, err
	}

	body, err := s.Blobs.Download(ctx, file.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			return nil, nil, &domain.NotFoundError{Message: fmt.Sprintf("content of file %s not found", file.ID)}
		}
		return nil, nil, &domain.BackendError{Op: "download blob", Err: err}
	}
	return body, file, nil
}

// OfficeViewerURLs embeds a signed URL in the Office Online and Google Docs
// viewers.
func OfficeViewerURLs(signedURL string) []string {
	escaped := url.QueryEscape(signedURL)
	return []string{
		officeViewerURL + escaped,
		googleViewerURL + escaped + "&embedded=true",
	}
}

var previewByExtension = map[string]explorerSvc.PreviewKind{
	".jpg":  explorerSvc.PreviewImage,
	".jpeg": explorerSvc.PreviewImage,
	".png":  explorerSvc.PreviewImage,
	".gif":  explorerSvc.PreviewImage,
	".webp": explorerSvc.PreviewImage,
	".svg":  explorerSvc.PreviewImage,
	".bmp":  explorerSvc.PreviewImage,
	".pdf":  explorerSvc.PreviewPDF,
	".mp4":  explorerSvc.PreviewVideo,
	".webm": explorerSvc.PreviewVideo,
	".mov":  explorerSvc.PreviewVideo,
	".mp3":  explorerSvc.PreviewAudio,
	".wav":  explorerSvc.PreviewAudio,
	".ogg":  explorerSvc.PreviewAudio,
	".doc":  explorerSvc.PreviewOffice,
	".docx": explorerSvc.PreviewOffice,
	".xls":  explorerSvc.PreviewOffice,
	".xlsx": explorerSvc.PreviewOffice,
	".ppt":  explorerSvc.PreviewOffice,
	".pptx": explorerSvc.PreviewOffice,
	".txt":  explorerSvc.PreviewText,
	".md":   explorerSvc.PreviewText,
	".csv":  explorerSvc.PreviewText,
	".json": explorerSvc.PreviewText,
}

// PreviewKindFor classifies a file by MIME type, falling back to the
// extension of its name.
func PreviewKindFor(f *models.File) explorerSvc.PreviewKind {
	m := baseMIME(f.MIME())
	switch {
	case strings.HasPrefix(m, "image/"):
		return explorerSvc.PreviewImage
	case m == "application/pdf":
		return explorerSvc.PreviewPDF
	case strings.HasPrefix(m, "video/"):
		return explorerSvc.PreviewVideo
	case strings.HasPrefix(m, "audio/"):
		return explorerSvc.PreviewAudio
	case m == "application/msword",
		strings.HasPrefix(m, "application/vnd.openxmlformats-officedocument"),
		strings.HasPrefix(m, "application/vnd.ms-excel"),
		strings.HasPrefix(m, "application/vnd.ms-powerpoint"):
		return explorerSvc.PreviewOffice
	case strings.HasPrefix(m, "text/"):
		return explorerSvc.PreviewText
	}

	if kind, ok := previewByExtension[strings.ToLower(path.Ext(f.Name))]; ok {
		return kind
	}
	return explorerSvc.PreviewDownload
}
