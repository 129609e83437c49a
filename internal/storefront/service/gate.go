package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/cedarmarket/storefront/internal/storefront/store"
	"github.com/cedarmarket/storefront/pkg/httpx"
	"github.com/cedarmarket/storefront/pkg/sessiontoken"
)

// SessionGate decides, per request, whether a presented session token still
// represents a live session. A token is valid iff its signature verifies AND
// it was issued at or after the user's most recent block transition (or the
// user has never been blocked). The extra store read per request is the
// price of not keeping a revocation list.
type SessionGate struct {
	Codec *sessiontoken.Codec
	Users store.Users
}

// Authenticate decodes rawToken and applies the block check.
//
// Decode failures and tokens referencing deleted accounts fail
// ErrUnauthenticated. A token issued before the holder's latest block fails
// ErrAccountBlocked. Store connectivity failures fail ErrUpstream and are
// never downgraded to an auth decision. Tokens carrying the admin claim skip
// the block check entirely; revoking an admin session requires rotating the
// signing secret.
func (g *SessionGate) Authenticate(ctx context.Context, rawToken string) (httpx.Principal, error) {
	if rawToken == "" {
		return httpx.Principal{}, ErrUnauthenticated
	}

	claims, err := g.Codec.Decode(rawToken)
	if err != nil {
		return httpx.Principal{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	p := httpx.Principal{
		UserID:   claims.Subject,
		Email:    claims.Email,
		Username: claims.Username,
		Admin:    claims.Admin,
	}

	if claims.Admin {
		return p, nil
	}

	state, err := g.Users.GetBlockState(ctx, claims.Subject)
	if errors.Is(err, store.ErrNotFound) {
		// A deleted account reads like a missing token, not like a block.
		return httpx.Principal{}, ErrUnauthenticated
	}
	if err != nil {
		return httpx.Principal{}, fmt.Errorf("%w: block state lookup: %v", ErrUpstream, err)
	}

	if state.Blocked {
		issued := claims.IssuedTime()
		if state.LastBlockedAt == nil || issued.Before(*state.LastBlockedAt) {
			return httpx.Principal{}, ErrAccountBlocked
		}
	}

	return p, nil
}
