package httputil

import (
	"context"
	"net/http"

	"jacc/internal/domain/models"
)

// Context key type to avoid collisions
type contextKey string

const (
	userIDKey contextKey = "userID"
	roleKey   contextKey = "role"
)

// WithIdentity adds the resolved user ID and role to the request context
func WithIdentity(r *http.Request, userID string, role models.Role) *http.Request {
	ctx := context.WithValue(r.Context(), userIDKey, userID)
	ctx = context.WithValue(ctx, roleKey, role)
	return r.WithContext(ctx)
}

// GetUserID retrieves userID from context, returns empty string if not found
func GetUserID(r *http.Request) string {
	userID, _ := r.Context().Value(userIDKey).(string)
	return userID
}

// GetRole retrieves the resolved role from context. Missing identity
// resolves to the narrowest tier.
func GetRole(r *http.Request) models.Role {
	role, ok := r.Context().Value(roleKey).(models.Role)
	if !ok {
		return models.RoleAgent
	}
	return role
}
