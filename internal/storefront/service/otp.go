package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/cedarmarket/storefront/internal/storefront/domain"
	"github.com/cedarmarket/storefront/internal/storefront/mailer"
	"github.com/cedarmarket/storefront/internal/storefront/obs"
	"github.com/cedarmarket/storefront/internal/storefront/store"
	"github.com/cedarmarket/storefront/pkg/cryptox"
	"github.com/cedarmarket/storefront/pkg/idx"
)

const (
	// DefaultOTPTTL is how long a code stays valid after issuance.
	DefaultOTPTTL = 5 * time.Minute

	// otpStorageGrace keeps a logically expired record alive in the store a
	// little longer so a late verification attempt reads "expired" rather
	// than "not found". The store's TTL still guarantees collection.
	otpStorageGrace = time.Minute
)

// OTPService is the one-time-passcode ledger. It enforces at most one live
// code per (email, purpose) pair and hands codes to the mailer, never to an
// HTTP response.
type OTPService struct {
	OTPs   store.OTPs
	Users  store.Users
	Audit  store.AuditLog
	Mailer mailer.Mailer
	TTL    time.Duration

	// now is swappable for expiry tests.
	now func() time.Time
}

func (s *OTPService) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now().UTC()
}

func (s *OTPService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return DefaultOTPTTL
}

// Issue generates a fresh 6-digit code for (email, purpose), replacing any
// prior code for that key, persists it with a store-enforced TTL, and
// triggers delivery. A mailer failure is reported as ErrUpstream but does
// not roll back the persisted record: re-sending always replaces, so the
// ledger never accumulates parallel codes.
//
// Password-reset requests for an unknown email succeed without creating a
// record, so the endpoint cannot be used to probe which accounts exist.
func (s *OTPService) Issue(ctx context.Context, email string, purpose domain.OTPPurpose) error {
	if purpose == domain.OTPPurposeReset {
		_, err := s.Users.GetUserByEmail(ctx, email)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: user lookup: %v", ErrUpstream, err)
		}
	}

	code, err := cryptox.GenerateDigits(cryptox.OTPDigits)
	if err != nil {
		return fmt.Errorf("%w: generate code: %v", ErrUpstream, err)
	}

	now := s.clock()
	rec := domain.OTPRecord{
		Email:     email,
		Code:      code,
		Purpose:   purpose,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl()),
	}

	if err := s.OTPs.Save(ctx, rec, s.ttl()+otpStorageGrace); err != nil {
		return fmt.Errorf("%w: save otp: %v", ErrUpstream, err)
	}

	obs.OTPIssued(string(purpose))
	s.audit(ctx, domain.AuditEntry{
		Action: domain.AuditOTPIssued,
		Email:  email,
		Detail: string(purpose),
	})

	if err := s.Mailer.SendOTP(ctx, email, code, purpose); err != nil {
		// The record stays: the client may retry via a fresh send, which
		// replaces rather than appends.
		return fmt.Errorf("%w: otp delivery: %v", ErrUpstream, err)
	}
	return nil
}

// Verify checks a submitted code against the ledger.
//
// A lookup miss or code mismatch fails ErrOTPNotFound. A code past its
// validity window is deleted and fails ErrOTPExpired; the next attempt with
// the same code then fails ErrOTPNotFound. Codes scoped to login are single
// use and removed on success; signup and reset codes stay until the owning
// multi-step flow consumes them or they expire, so "verify then act" flows
// split across two requests keep working.
func (s *OTPService) Verify(ctx context.Context, email, code string, purpose domain.OTPPurpose) error {
	rec, err := s.OTPs.Get(ctx, email, purpose)
	if errors.Is(err, store.ErrNotFound) {
		obs.OTPVerified(string(purpose), "not_found")
		return ErrOTPNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: otp lookup: %v", ErrUpstream, err)
	}

	if s.clock().After(rec.ExpiresAt) {
		if err := s.OTPs.Delete(ctx, email, purpose); err != nil {
			return fmt.Errorf("%w: delete expired otp: %v", ErrUpstream, err)
		}
		obs.OTPVerified(string(purpose), "expired")
		return ErrOTPExpired
	}

	if subtle.ConstantTimeCompare([]byte(rec.Code), []byte(code)) != 1 {
		obs.OTPVerified(string(purpose), "mismatch")
		return ErrOTPNotFound
	}
	obs.OTPVerified(string(purpose), "ok")

	if purpose == domain.OTPPurposeLogin {
		if err := s.OTPs.Delete(ctx, email, purpose); err != nil {
			return fmt.Errorf("%w: consume otp: %v", ErrUpstream, err)
		}
	}
	return nil
}

// Consume removes the record for (email, purpose). Multi-step flows call
// this once they have acted on a verified signup or reset code.
func (s *OTPService) Consume(ctx context.Context, email string, purpose domain.OTPPurpose) error {
	if err := s.OTPs.Delete(ctx, email, purpose); err != nil {
		return fmt.Errorf("%w: consume otp: %v", ErrUpstream, err)
	}
	return nil
}

func (s *OTPService) audit(ctx context.Context, e domain.AuditEntry) {
	if s.Audit == nil {
		return
	}
	e.ID = idx.New().String()
	e.CreatedAt = s.clock()
	// Audit writes are best-effort; they never fail the caller's request.
	_ = s.Audit.Append(ctx, e)
}
