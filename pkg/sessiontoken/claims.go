package sessiontoken

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is the default session token lifetime. The signature validity
// window is the only server-side notion of session lifetime; tokens are not
// stored anywhere.
const DefaultTTL = 7 * 24 * time.Hour

// Claims are the session-token claims. We keep changes additive to preserve
// compatibility with cookies already out in the wild.
type Claims struct {
	jwt.RegisteredClaims

	// Email of the authenticated user.
	Email string `json:"email,omitempty"`

	// Username is the display handle for the user.
	Username string `json:"username,omitempty"`

	// Admin marks tokens issued to administrator accounts. Admin tokens are
	// exempt from the per-request block check (see service.SessionGate).
	Admin bool `json:"admin,omitempty"`
}

// NewClaims builds minimally-correct claims for a session token.
func NewClaims(subject, email, username string, admin bool, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email:    email,
		Username: username,
		Admin:    admin,
	}
}

// IssuedTime returns the issuance timestamp in UTC, or the zero time when
// the claim is missing. Callers compare this against the user's
// last-blocked time.
func (c Claims) IssuedTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time.UTC()
}
