// Package cryptox holds the credential primitives for storefront accounts:
// peppered Argon2id password hashes in PHC encoding, and the pepper lifecycle
// behind them. The pepper never appears in a stored hash, so a leaked users
// table alone is not enough to mount an offline attack.
package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrPasswordMismatch is returned by VerifyPassword when the password does
// not produce the stored hash. Callers fold it into their own invalid
// credentials error; the distinction from a malformed hash matters only
// for logging.
var ErrPasswordMismatch = errors.New("password does not match")

// HashPassword derives an Argon2id hash of password+pepper under a fresh
// random salt and returns it PHC encoded, parameters included, so old
// hashes stay verifiable if the defaults change.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	hash := argon2.IDKey(
		[]byte(password+GetPepper()),
		salt,
		iterations,
		memory,
		parallelism,
		keyLength,
	)

	return fmt.Sprintf(
		"$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		memory,
		iterations,
		parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// VerifyPassword recomputes the hash with the parameters encoded in
// encodedHash and compares in constant time. Returns ErrPasswordMismatch on
// a wrong password, a descriptive error on a hash that does not parse.
func VerifyPassword(password, encodedHash string) error {
	params, salt, want, err := parsePHC(encodedHash)
	if err != nil {
		return err
	}

	got := argon2.IDKey(
		[]byte(password+GetPepper()),
		salt,
		params.iterations,
		params.memory,
		params.parallelism,
		uint32(len(want)), // #nosec G115 - hash lengths are a handful of bytes
	)

	if subtle.ConstantTimeCompare(got, want) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}

type argonParams struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
}

// parsePHC splits $argon2id$v=19$m=..,t=..,p=..$salt$hash into its pieces.
func parsePHC(encodedHash string) (argonParams, []byte, []byte, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "" {
		return argonParams{}, nil, nil, errors.New("invalid hash format: expected 6 parts")
	}
	if parts[1] != "argon2id" {
		return argonParams{}, nil, nil, errors.New("invalid hash format: not argon2id")
	}
	if parts[2] != "v=19" {
		return argonParams{}, nil, nil, errors.New("invalid hash format: wrong version")
	}

	var p argonParams
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.iterations, &p.parallelism); err != nil {
		return argonParams{}, nil, nil, fmt.Errorf("invalid hash format: failed to parse parameters: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return argonParams{}, nil, nil, fmt.Errorf("invalid hash format: failed to decode salt: %w", err)
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return argonParams{}, nil, nil, fmt.Errorf("invalid hash format: failed to decode hash: %w", err)
	}
	return p, salt, hash, nil
}
