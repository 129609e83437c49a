package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cedarmarket/storefront/internal/storefront/domain"
	"github.com/cedarmarket/storefront/internal/storefront/store"
	"github.com/cedarmarket/storefront/pkg/cryptox"
	"github.com/cedarmarket/storefront/pkg/idx"
)

// AccountService covers the account mutations the auth subsystem owns:
// signup, password reset, and the administrative block/unblock transitions
// that the live-session invalidation machinery hangs off.
type AccountService struct {
	Store store.Store
	OTP   *OTPService
	Bus   *BlockBus
}

// Signup verifies the signup OTP, creates the account, and consumes the
// code. The OTP check runs first so an unverified email never reaches the
// users table.
func (s *AccountService) Signup(ctx context.Context, email, username, password, otp string) (domain.User, error) {
	if err := s.OTP.Verify(ctx, email, otp, domain.OTPPurposeSignup); err != nil {
		return domain.User{}, err
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: hash password: %v", ErrUpstream, err)
	}

	user := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		Username:     username,
		PasswordHash: hash,
	}

	err = s.Store.Users().CreateUser(ctx, user)
	if errors.Is(err, store.ErrAlreadyExists) {
		return domain.User{}, ErrEmailTaken
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: create user: %v", ErrUpstream, err)
	}

	// The signup code has served its multi-step flow; retire it.
	if err := s.OTP.Consume(ctx, email, domain.OTPPurposeSignup); err != nil {
		return domain.User{}, err
	}

	s.audit(ctx, domain.AuditEntry{Action: domain.AuditSignup, UserID: user.ID, Email: email})
	return user, nil
}

// ResetPassword verifies the reset OTP and replaces the password hash. Reset
// codes are only ever issued for existing accounts, so an unknown email
// fails the OTP check rather than leaking whether the account exists.
func (s *AccountService) ResetPassword(ctx context.Context, email, otp, newPassword string) error {
	if err := s.OTP.Verify(ctx, email, otp, domain.OTPPurposeReset); err != nil {
		return err
	}

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return ErrOTPNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: user lookup: %v", ErrUpstream, err)
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("%w: hash password: %v", ErrUpstream, err)
	}

	if err := s.Store.Users().UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("%w: update password: %v", ErrUpstream, err)
	}

	if err := s.OTP.Consume(ctx, email, domain.OTPPurposeReset); err != nil {
		return err
	}

	s.audit(ctx, domain.AuditEntry{Action: domain.AuditPasswordReset, UserID: user.ID, Email: email})
	return nil
}

// Block marks the account blocked as of now, then fans the decision out to
// every open status stream for that user. Tokens issued before this instant
// are dead from the next request on; the stream delivery just tells open
// tabs immediately instead of on their next request.
func (s *AccountService) Block(ctx context.Context, userID string) error {
	now := time.Now().UTC()

	err := s.Store.Users().SetBlocked(ctx, userID, true, now)
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: set blocked: %v", ErrUpstream, err)
	}

	// Fan-out happens only after the store accepted the transition, so a
	// stream client that re-checks immediately sees a consistent answer.
	s.Bus.NotifyBlocked(userID)

	s.audit(ctx, domain.AuditEntry{Action: domain.AuditUserBlocked, UserID: userID})
	return nil
}

// Unblock clears the block flag. last_blocked_at is left in place for the
// audit trail; the gate only consults it while the account is blocked, so
// sessions issued before the block work again once the account is restored.
func (s *AccountService) Unblock(ctx context.Context, userID string) error {
	err := s.Store.Users().SetBlocked(ctx, userID, false, time.Time{})
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: clear blocked: %v", ErrUpstream, err)
	}

	s.audit(ctx, domain.AuditEntry{Action: domain.AuditUserUnblocked, UserID: userID})
	return nil
}

func (s *AccountService) audit(ctx context.Context, e domain.AuditEntry) {
	e.ID = idx.New().String()
	_ = s.Store.AuditLog().Append(ctx, e)
}
