package cryptox

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// OTPDigits is the length of one-time passcodes we mail out.
const OTPDigits = 6

// GenerateDigits returns a string of n uniformly random ASCII digits. Each
// digit is drawn independently from 0-9, so a 6-digit code has a keyspace of
// exactly 1,000,000.
func GenerateDigits(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("digit count must be positive, got %d", n)
	}

	code := make([]byte, n)
	for i := range code {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to generate random digit: %w", err)
		}
		code[i] = '0' + byte(d.Int64())
	}
	return string(code), nil
}
