package models

import "github.com/golang-jwt/jwt/v5"

// AccessClaims is the JWT claims shape accepted by the API. Tokens are
// issued by the identity provider configured via the JWKS endpoint.
type AccessClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// GetUserID returns the subject claim, the primary identifier for the
// authenticated user.
func (c *AccessClaims) GetUserID() string {
	return c.Subject
}
