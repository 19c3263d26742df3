package auth

import (
	"folio/internal/domain/models"
	"folio/internal/session"
)

// AdminPolicy decides whether a verified user may mutate the tree.
type AdminPolicy interface {
	IsAdminUser(userID string) bool
}

// SessionFromClaims builds the session for a verified token. The user is
// admin when app_metadata carries the admin role or the policy lists them.
func SessionFromClaims(claims *models.SupabaseClaims, token string, policy AdminPolicy) *session.Session {
	userID := claims.GetUserID()
	sess := &session.Session{
		User:        &session.User{ID: userID, Email: claims.Email},
		AccessToken: token,
		Admin:       claims.AppRole() == models.AdminAppRole || policy.IsAdminUser(userID),
	}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}
	return sess
}
