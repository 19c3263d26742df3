package middleware

import (
	"log/slog"
	"net/http"

	"folio/internal/auth"
	"folio/internal/httputil"
	"folio/internal/session"
)

// OptionalAuth verifies a bearer token when one is sent and attaches the
// resulting session. Requests without a token continue as visitors;
// a token that fails verification is rejected with 401.
func OptionalAuth(verifier auth.JWTVerifier, policy auth.AdminPolicy, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := httputil.BearerToken(r)
			if !ok {
				next.ServeHTTP(w, httputil.WithSession(r, session.Visitor()))
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				logger.Debug("bearer token rejected", "path", r.URL.Path, "error", err)
				httputil.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, httputil.WithSession(r, auth.SessionFromClaims(claims, token, policy)))
		})
	}
}
