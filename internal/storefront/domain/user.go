package domain

import "time"

// User is a storefront account as the auth subsystem sees it. Catalog and
// cart data hang off the same id elsewhere; none of that is visible here.
type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string // argon2id encoded
	Admin        bool
	Blocked      bool
	// LastBlockedAt records the most recent block transition. A session token
	// issued before this instant is dead even though its signature verifies.
	LastBlockedAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// BlockState is the slice of User the session gate needs per request.
type BlockState struct {
	Blocked       bool
	LastBlockedAt *time.Time
}
