package handler

import (
	"net/http"

	"folio/internal/httputil"
	"folio/internal/session"
)

type sessionResponse struct {
	Authenticated bool          `json:"authenticated"`
	Admin         bool          `json:"admin"`
	User          *session.User `json:"user"`
}

// GetSession reports who the caller is. Visitors get authenticated=false.
// GET /api/session
func GetSession(w http.ResponseWriter, r *http.Request) {
	sess := httputil.GetSession(r)
	httputil.RespondJSON(w, http.StatusOK, sessionResponse{
		Authenticated: sess.CurrentUser() != nil,
		Admin:         sess.IsAdmin(),
		User:          sess.CurrentUser(),
	})
}
