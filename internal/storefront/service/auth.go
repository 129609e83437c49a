package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/cedarmarket/storefront/internal/storefront/domain"
	"github.com/cedarmarket/storefront/internal/storefront/obs"
	"github.com/cedarmarket/storefront/internal/storefront/store"
	"github.com/cedarmarket/storefront/pkg/cryptox"
	"github.com/cedarmarket/storefront/pkg/idx"
	"github.com/cedarmarket/storefront/pkg/sessiontoken"
)

// AuthService handles password login and session issuance.
type AuthService struct {
	Store store.Store
	Codec *sessiontoken.Codec
}

// Login verifies credentials and returns the user plus a freshly signed
// session token. Unknown email and wrong password both fail
// ErrInvalidCredentials; a currently blocked account fails ErrAccountBlocked
// before any token is minted.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.User, string, error) {
	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		obs.LoginAttempt("invalid")
		s.audit(ctx, domain.AuditEntry{Action: domain.AuditLoginFailure, Email: email, Detail: "unknown email"})
		return domain.User{}, "", ErrInvalidCredentials
	}
	if err != nil {
		obs.LoginAttempt("error")
		return domain.User{}, "", fmt.Errorf("%w: user lookup: %v", ErrUpstream, err)
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		obs.LoginAttempt("invalid")
		s.audit(ctx, domain.AuditEntry{Action: domain.AuditLoginFailure, UserID: user.ID, Email: email, Detail: "bad password"})
		return domain.User{}, "", ErrInvalidCredentials
	}

	if user.Blocked {
		obs.LoginAttempt("blocked")
		s.audit(ctx, domain.AuditEntry{Action: domain.AuditLoginFailure, UserID: user.ID, Email: email, Detail: "account blocked"})
		return domain.User{}, "", ErrAccountBlocked
	}

	token, err := s.Codec.Issue(user.ID, user.Email, user.Username, user.Admin)
	if err != nil {
		obs.LoginAttempt("error")
		return domain.User{}, "", fmt.Errorf("%w: issue token: %v", ErrUpstream, err)
	}

	obs.LoginAttempt("success")
	s.audit(ctx, domain.AuditEntry{Action: domain.AuditLoginSuccess, UserID: user.ID, Email: email})
	return user, token, nil
}

func (s *AuthService) audit(ctx context.Context, e domain.AuditEntry) {
	e.ID = idx.New().String()
	// Best-effort; an audit miss must not fail a login.
	_ = s.Store.AuditLog().Append(ctx, e)
}
