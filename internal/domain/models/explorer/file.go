package explorer

import (
	"strings"
	"time"
)

// File is a stored blob plus its metadata. FilePath is the blob key; it is
// assigned at upload and never changes, even when the file is moved.
type File struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description" db:"description"`
	FileType    string    `json:"file_type" db:"file_type"`
	FileSize    int64     `json:"file_size" db:"file_size"`
	FilePath    string    `json:"file_path" db:"file_path"`
	FolderID    *string   `json:"folder_id" db:"folder_id"`
	MimeType    *string   `json:"mime_type" db:"mime_type"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Scope returns the listing the file appears in.
func (f *File) Scope() Scope {
	return ScopeOf(f.FolderID)
}

// MIME returns the MIME type or "" when unknown.
func (f *File) MIME() string {
	if f.MimeType == nil {
		return ""
	}
	return *f.MimeType
}

// FileTypeOf returns the coarse type tag stored with a file: the part of
// the MIME type before the slash, or "unknown".
func FileTypeOf(mimeType string) string {
	major, _, ok := strings.Cut(mimeType, "/")
	if !ok || major == "" {
		return "unknown"
	}
	return major
}
