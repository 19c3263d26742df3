package config

import "time"

const (
	// MaxNameLength is the maximum length for folder and file names.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255) and the name
	// limit of common filesystems users download into.
	MaxNameLength = 255

	// MaxDescriptionLength is the maximum length for folder and file descriptions.
	MaxDescriptionLength = 2000

	// MaxUploadBytes is the per-file upload cap (50 MiB). A file of exactly
	// this size is accepted.
	MaxUploadBytes int64 = 50 << 20

	// DefaultBucket is the storage bucket all blobs live in.
	DefaultBucket = "file-explorer"

	// DefaultSignedURLTTL is how long preview links stay valid.
	DefaultSignedURLTTL = time.Hour
)
