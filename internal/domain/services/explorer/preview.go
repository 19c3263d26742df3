package explorer

import (
	"context"
	"io"
	"time"

	"folio/internal/domain/models/explorer"
)

// PreviewKind selects how a client renders a file.
type PreviewKind string

const (
	PreviewImage    PreviewKind = "image"
	PreviewPDF      PreviewKind = "pdf"
	PreviewVideo    PreviewKind = "video"
	PreviewAudio    PreviewKind = "audio"
	PreviewOffice   PreviewKind = "office"
	PreviewText     PreviewKind = "text"
	PreviewDownload PreviewKind = "download"
)

// Preview is a signed link plus rendering hints.
type Preview struct {
	File       *explorer.File `json:"file"`
	URL        string         `json:"url"`
	ExpiresAt  time.Time      `json:"expires_at"`
	Kind       PreviewKind    `json:"kind"`
	ViewerURLs []string       `json:"viewer_urls,omitempty"`
}

// PreviewService issues read access to stored files.
type PreviewService interface {
	// Preview issues a signed URL for the file
	Preview(ctx context.Context, fileID string) (*Preview, error)

	// Download opens the file body. Caller must close the reader.
	Download(ctx context.Context, fileID string) (io.ReadCloser, *explorer.File, error)
}
