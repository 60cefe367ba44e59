package auth

import (
	"jacc/internal/domain/models"
)

// TokenVerifier validates a bearer token and returns its claims.
type TokenVerifier interface {
	VerifyToken(tokenString string) (*models.AccessClaims, error)
	Close() error
}

// Session is the resolved identity behind a session ID.
type Session struct {
	UserID string
	Role   models.Role
}

// SessionStore is the explicit session state machine. The knowledge
// pipeline never touches it; only the auth middleware resolves a
// session into a (userID, role) pair before a request enters the core.
type SessionStore interface {
	Get(sessionID string) (*Session, bool)
	Set(sessionID string, session *Session)
	Revoke(sessionID string)
}
