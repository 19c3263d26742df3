package services

import "context"

// AdminAuthorizer decides whether the session in ctx may change the tree.
//
// Design principle: services call the authorizer before every mutation, so
// hiding controls in the client is never the only check.
type AdminAuthorizer interface {
	// RequireAdmin returns a *domain.UnauthorizedError for visitors and a
	// *domain.ForbiddenError for signed-in users who are not admins.
	RequireAdmin(ctx context.Context) error
}
