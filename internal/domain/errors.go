package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// Implementing this interface enables extensible error handling (OCP compliance).
type HTTPError interface {
	error
	StatusCode() int
}

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a resource was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid user input. It is always raised
	// before any backend call and carries a user-facing message.
	ValidationError struct {
		Message string
	}

	// UnauthorizedError indicates authentication failure
	UnauthorizedError struct {
		Message string
	}

	// ForbiddenError indicates authorization failure
	ForbiddenError struct {
		Message string
	}
)

// Error implementations
func (e *NotFoundError) Error() string     { return e.Message }
func (e *ValidationError) Error() string   { return e.Message }
func (e *UnauthorizedError) Error() string { return e.Message }
func (e *ForbiddenError) Error() string    { return e.Message }

// StatusCode implementations (HTTPError interface)
func (e *NotFoundError) StatusCode() int     { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int   { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int { return http.StatusUnauthorized }
func (e *ForbiddenError) StatusCode() int    { return http.StatusForbidden }

// Is implementations so typed errors match their sentinels
func (e *NotFoundError) Is(target error) bool     { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool   { return target == ErrValidation }
func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }
func (e *ForbiddenError) Is(target error) bool    { return target == ErrForbidden }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBackend      = errors.New("backend operation failed")
	ErrUpload       = errors.New("upload failed")
	ErrPreview      = errors.New("preview unavailable")
)

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ConflictError represents a resource conflict with details about the existing resource
// Implements HTTPError interface for extensible error handling
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // Type of resource (folder, file)
	ResourceID   string // ID of the existing/conflicting resource
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	return e.Message
}

// StatusCode implements the HTTPError interface
func (e *ConflictError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// BackendError reports a failed metadata or blob store call.
// Op names the operation ("list folders", "remove blob", ...).
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

func (e *BackendError) StatusCode() int { return http.StatusBadGateway }

func (e *BackendError) Is(target error) bool { return target == ErrBackend }

// UploadErrorKind classifies why an upload failed.
type UploadErrorKind string

const (
	UploadSizeExceeded        UploadErrorKind = "size_exceeded"
	UploadTypeRejected        UploadErrorKind = "type_rejected"
	UploadBlobWriteFailed     UploadErrorKind = "blob_write_failed"
	UploadMetadataWriteFailed UploadErrorKind = "metadata_write_failed"
)

// UploadError is returned by the upload pipeline.
// Orphaned is set when the metadata insert failed and the compensating
// blob removal failed too, leaving the blob without a record.
type UploadError struct {
	Kind     UploadErrorKind
	Name     string
	Message  string
	Err      error
	Orphaned bool
}

func (e *UploadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *UploadError) Unwrap() error { return e.Err }

func (e *UploadError) Is(target error) bool { return target == ErrUpload }

func (e *UploadError) StatusCode() int {
	switch e.Kind {
	case UploadSizeExceeded:
		return http.StatusRequestEntityTooLarge
	case UploadTypeRejected:
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusBadGateway
	}
}

// PreviewError reports a failed signed URL issuance. Retrying is safe.
type PreviewError struct {
	FileID string
	Err    error
}

func (e *PreviewError) Error() string {
	return fmt.Sprintf("preview for file %s unavailable: %v", e.FileID, e.Err)
}

func (e *PreviewError) Unwrap() error { return e.Err }

func (e *PreviewError) Is(target error) bool { return target == ErrPreview }

func (e *PreviewError) StatusCode() int { return http.StatusBadGateway }
