package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims are the JWT claims the auth boundary extracts. The
// pipeline only consumes the resolved role and subject; everything
// else stays at this boundary.
type AccessClaims struct {
	jwt.RegisteredClaims
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
}
