package httputil

import (
	"net/http"

	"folio/internal/session"
)

// WithSession attaches the caller's session to the request context
func WithSession(r *http.Request, s *session.Session) *http.Request {
	return r.WithContext(session.WithSession(r.Context(), s))
}

// GetSession returns the caller's session; visitors get an empty session
func GetSession(r *http.Request) *session.Session {
	return session.FromContext(r.Context())
}
