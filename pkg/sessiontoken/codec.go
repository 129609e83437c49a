// Package sessiontoken signs and verifies the compact session tokens the
// storefront hands out as cookies. It is a pure function over a symmetric
// secret; no state is kept and nothing is persisted. Rotating the secret
// invalidates every previously issued token, which is the accepted trade-off
// for not carrying key versions in the cookie.
package sessiontoken

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformed reports a token that does not parse as a JWT at all.
	ErrMalformed = errors.New("sessiontoken: malformed token")

	// ErrInvalidSignature reports a token whose signature does not verify
	// against the configured secret (tampering or a rotated secret).
	ErrInvalidSignature = errors.New("sessiontoken: invalid signature")

	// ErrExpired reports a structurally valid token past its validity window.
	ErrExpired = errors.New("sessiontoken: token expired")
)

const minSecretLen = 32

// Codec issues and decodes HS256-signed session tokens.
type Codec struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewCodec builds a Codec over a process-wide symmetric secret. The secret
// must carry at least 256 bits so HS256 keeps its designed strength.
func NewCodec(secret []byte, issuer string, ttl time.Duration) (*Codec, error) {
	if len(secret) < minSecretLen {
		return nil, fmt.Errorf("sessiontoken: secret must be at least %d bytes, got %d", minSecretLen, len(secret))
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Codec{secret: secret, issuer: issuer, ttl: ttl}, nil
}

// TTL returns the validity window applied to issued tokens.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Issue signs claims for the given subject and returns an opaque token
// string. No side effects; the token's existence is its only record.
func (c *Codec) Issue(subject, email, username string, admin bool) (string, error) {
	return c.IssueAt(subject, email, username, admin, time.Now().UTC())
}

// IssueAt is Issue with an explicit issuance time, used by tests to place
// tokens before or after a block transition.
func (c *Codec) IssueAt(subject, email, username string, admin bool, now time.Time) (string, error) {
	claims := NewClaims(subject, email, username, admin, c.issuer, c.ttl, now)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sessiontoken: sign: %w", err)
	}
	return signed, nil
}

// Decode verifies the signature and validity window and returns the claims.
// Every failure is reported as a distinct error kind; a decode error never
// yields partial claims.
func (c *Codec) Decode(raw string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Claims{}, mapParseError(err)
	}
	return claims, nil
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	default:
		// Unknown verification failures are treated as signature problems
		// rather than malformed input: the token parsed, we just can't trust it.
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
}
