package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"folio/internal/domain"
	"folio/internal/httputil"
)

// handleError converts domain errors to RFC 7807 responses
func handleError(w http.ResponseWriter, err error) {
	status, detail, extras := problemFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "status", status, "error", err)
	}
	httputil.RespondErrorWithExtras(w, status, detail, extras)
}

// problemFor maps an error to status, user-facing detail and extra fields.
func problemFor(err error) (int, string, map[string]any) {
	var (
		conflictErr *domain.ConflictError
		uploadErr   *domain.UploadError
		previewErr  *domain.PreviewError
		backendErr  *domain.BackendError
	)

	switch {
	case errors.As(err, &conflictErr):
		return http.StatusConflict, conflictErr.Error(), map[string]any{
			"resource_type": conflictErr.ResourceType,
			"resource_id":   conflictErr.ResourceID,
		}
	case errors.As(err, &uploadErr):
		extras := map[string]any{"kind": uploadErr.Kind}
		if uploadErr.Name != "" {
			extras["name"] = uploadErr.Name
		}
		if uploadErr.Orphaned {
			extras["orphaned"] = true
		}
		return uploadErr.StatusCode(), uploadErr.Message, extras
	case errors.As(err, &previewErr):
		return http.StatusBadGateway, "preview is unavailable, try again", map[string]any{"file_id": previewErr.FileID}
	case errors.As(err, &backendErr):
		return http.StatusBadGateway, "storage backend error", map[string]any{"op": backendErr.Op}
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, err.Error(), nil
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, err.Error(), nil
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, err.Error(), nil
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, err.Error(), nil
	default:
		return http.StatusInternalServerError, "internal server error", nil
	}
}

// HandleCreateConflict handles conflicts during creation by returning the existing resource with 409
// If the error is a ConflictError, it calls fetchFn to retrieve the existing resource
func HandleCreateConflict[T any](w http.ResponseWriter, err error, fetchFn func(id string) (*T, error)) {
	var conflictErr *domain.ConflictError
	if errors.As(err, &conflictErr) && conflictErr.ResourceID != "" {
		existing, fetchErr := fetchFn(conflictErr.ResourceID)
		if fetchErr != nil {
			handleError(w, err)
			return
		}

		httputil.RespondJSON(w, http.StatusConflict, existing)
		return
	}

	handleError(w, err)
}

// HealthCheck reports liveness
// GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
