package explorer

import (
	"context"
	"io"

	"folio/internal/domain/models/explorer"
)

// UploadPipeline validates an incoming binary and binds it to the tree.
type UploadPipeline interface {
	// Upload stores one file: blob first, then metadata, removing the blob
	// again if the metadata insert fails.
	Upload(ctx context.Context, req *UploadRequest) (*explorer.File, error)

	// UploadBatch uploads independently and concurrently. Results are in
	// request order; one failure does not affect the others.
	UploadBatch(ctx context.Context, reqs []*UploadRequest) []UploadResult
}

// UploadRequest is one incoming file.
type UploadRequest struct {
	Body     io.Reader
	Name     string
	Size     int64
	MimeType string
	FolderID *string // nil for root
}

// UploadResult is the outcome of one file in a batch.
type UploadResult struct {
	Name string
	File *explorer.File
	Err  error
}
