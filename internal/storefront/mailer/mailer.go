// Package mailer delivers one-time passcodes to customers. Delivery is an
// external collaborator of the auth core: a failed send surfaces as an
// upstream error and never rolls back the code that was already persisted.
package mailer

import (
	"context"
	"log/slog"

	"github.com/cedarmarket/storefront/internal/storefront/domain"
)

// Mailer delivers a one-time passcode to an address. The code travels only
// through this interface; it is never echoed back to an HTTP client.
type Mailer interface {
	SendOTP(ctx context.Context, email, code string, purpose domain.OTPPurpose) error
}

// LogMailer writes codes to the log instead of sending mail. Dev-only.
type LogMailer struct {
	Logger *slog.Logger
}

func (m *LogMailer) SendOTP(ctx context.Context, email, code string, purpose domain.OTPPurpose) error {
	m.Logger.Info("otp delivery (dev mailer)",
		"email", email,
		"code", code,
		"purpose", string(purpose),
	)
	return nil
}
