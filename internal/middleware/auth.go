package middleware

import (
	"net/http"
	"strings"

	"jacc/internal/auth"
	"jacc/internal/domain/models"
	"jacc/internal/httputil"
)

// AuthMiddleware resolves a bearer token into a (userID, role) pair and
// stores both on the request context. Sessions issued by the session
// store are honored first via the X-Session-ID header; otherwise the
// Authorization header is verified as a JWT.
func AuthMiddleware(verifier auth.TokenVerifier, sessions auth.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Health endpoint stays open
			if r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}

			if sessionID := r.Header.Get("X-Session-ID"); sessionID != "" {
				if session, ok := sessions.Get(sessionID); ok {
					next.ServeHTTP(w, httputil.WithIdentity(r, session.UserID, session.Role))
					return
				}
			}

			authHeader := r.Header.Get("Authorization")
			token, found := strings.CutPrefix(authHeader, "Bearer ")
			if !found || token == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				httputil.RespondError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			next.ServeHTTP(w, httputil.WithIdentity(r, claims.Subject, models.Role(claims.Role)))
		})
	}
}

// RequireAdmin guards admin-only routes. It runs after AuthMiddleware
// has resolved the role.
func RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if httputil.GetRole(r) != models.RoleAdmin {
			httputil.RespondError(w, http.StatusForbidden, "admin role required")
			return
		}
		next(w, r)
	}
}
