package auth

import (
	"context"
	"slices"

	"folio/internal/domain"
	"folio/internal/session"
)

// SessionAuthorizer implements services.AdminAuthorizer on the session in
// the request context.
//
// A session is admin when it was marked admin at sign-in. When adminIDs is
// non-empty the user id must also be listed there.
type SessionAuthorizer struct {
	adminIDs []string
}

// NewSessionAuthorizer creates an authorizer. An empty adminIDs admits
// every signed-in admin session.
func NewSessionAuthorizer(adminIDs []string) *SessionAuthorizer {
	return &SessionAuthorizer{adminIDs: adminIDs}
}

// RequireAdmin fails for visitors (401) and non-admin users (403).
func (a *SessionAuthorizer) RequireAdmin(ctx context.Context) error {
	sess := session.FromContext(ctx)
	user := sess.CurrentUser()
	if user == nil {
		return &domain.UnauthorizedError{Message: "sign in to make changes"}
	}
	if !sess.Admin {
		return &domain.ForbiddenError{Message: "admin access required"}
	}
	if len(a.adminIDs) > 0 && !slices.Contains(a.adminIDs, user.ID) {
		return &domain.ForbiddenError{Message: "admin access required"}
	}
	return nil
}

// IsAdminUser reports whether userID passes the allow-list.
func (a *SessionAuthorizer) IsAdminUser(userID string) bool {
	return len(a.adminIDs) == 0 || slices.Contains(a.adminIDs, userID)
}
