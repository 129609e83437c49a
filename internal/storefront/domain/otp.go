package domain

import (
	"fmt"
	"time"
)

// OTPPurpose scopes a one-time code to the workflow that requested it.
// Codes are never cross-valid between purposes.
type OTPPurpose string

const (
	OTPPurposeSignup OTPPurpose = "signup"
	OTPPurposeLogin  OTPPurpose = "login"
	OTPPurposeReset  OTPPurpose = "reset"
)

// ParseOTPPurpose validates a client-supplied purpose string.
func ParseOTPPurpose(s string) (OTPPurpose, error) {
	switch OTPPurpose(s) {
	case OTPPurposeSignup, OTPPurposeLogin, OTPPurposeReset:
		return OTPPurpose(s), nil
	default:
		return "", fmt.Errorf("unknown otp purpose %q", s)
	}
}

// OTPRecord is a live one-time passcode. At most one record exists per
// (email, purpose) pair; issuing a new code replaces any prior record.
type OTPRecord struct {
	Email     string     `json:"email"`
	Code      string     `json:"code"` // 6 ASCII digits
	Purpose   OTPPurpose `json:"purpose"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
}
