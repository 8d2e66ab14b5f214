package domain

import (
	"time"
)

// AuthClaims represents validated JWT claims
type AuthClaims struct {
	UserID    string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// AuthService issues and validates the boundary tokens that gate the HTTP
// surface. The core itself assumes a pre-validated actor identity; the
// administrative decide endpoint additionally requires the ADMIN role.
type AuthService interface {
	GenerateAccessToken(user *User) (string, error)
	ValidateToken(token string) (*AuthClaims, error)
}
