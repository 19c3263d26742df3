package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrBlobNotFound is returned when a path has no stored object.
var ErrBlobNotFound = errors.New("blob not found")

// BlobStore is the object storage the explorer writes file bodies to.
// Paths are opaque keys inside a single bucket.
type BlobStore interface {
	// Upload stores size bytes from r at path.
	Upload(ctx context.Context, path string, r io.Reader, size int64, contentType string) error

	// Download opens the object at path. Caller must close the reader.
	Download(ctx context.Context, path string) (io.ReadCloser, error)

	// Remove deletes the objects at paths. Missing objects are not an error.
	Remove(ctx context.Context, paths []string) error

	// CreateSignedURL issues a time-limited read URL for path.
	// Returns ErrBlobNotFound when the object does not exist.
	CreateSignedURL(ctx context.Context, path string, ttl time.Duration) (string, error)
}

// BucketSpec describes how the bucket is created when it is missing.
type BucketSpec struct {
	Name             string
	Public           bool
	FileSizeLimit    int64
	AllowedMIMETypes []string
}

// BucketProvisioner creates the bucket if it does not exist yet.
type BucketProvisioner interface {
	EnsureBucket(ctx context.Context, spec BucketSpec) error
}
