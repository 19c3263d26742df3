// Package session carries the signed-in user through a request or CLI run.
//
// A Session is created once (from a verified bearer token on the server,
// from the durable slot in folioctl) and passed down in the context.
// Nothing in the module reads a process-wide user.
package session

import (
	"context"
	"time"
)

// User is the signed-in account.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is the authentication state for one request or CLI run.
// A nil *Session or one without a User is a visitor.
type Session struct {
	User        *User     `json:"user"`
	AccessToken string    `json:"access_token,omitempty"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
	Admin       bool      `json:"admin"`
}

// Visitor returns a session with no user.
func Visitor() *Session {
	return &Session{}
}

// CurrentUser returns the signed-in user or nil.
func (s *Session) CurrentUser() *User {
	if s == nil {
		return nil
	}
	return s.User
}

// IsAdmin reports whether the session may mutate the tree.
func (s *Session) IsAdmin() bool {
	return s != nil && s.User != nil && s.Admin
}

// Expired reports whether the access token is past its expiry.
func (s *Session) Expired(now time.Time) bool {
	return s != nil && !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

type contextKey struct{}

// WithSession stores s in ctx.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session in ctx, or a visitor session.
func FromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(contextKey{}).(*Session); ok && s != nil {
		return s
	}
	return Visitor()
}
