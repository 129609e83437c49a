package store

import (
	"context"
	"errors"
	"time"

	"github.com/cedarmarket/storefront/internal/storefront/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface for durable records. Concrete
// drivers (sqlite today) implement this. It exposes sub-repositories to keep
// concerns tidy and testable.
type Store interface {
	Users() Users
	AuditLog() AuditLog

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources (optional for sqlite).
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is used during login and OTP issuance.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	// Returns ErrAlreadyExists when the email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash sets the password_hash (argon2) and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error

	// SetBlocked flips the block flag. Blocking records the transition time
	// in last_blocked_at; unblocking leaves last_blocked_at untouched so the
	// issued-before-block invariant stays auditable.
	SetBlocked(ctx context.Context, userID string, blocked bool, at time.Time) error

	// GetBlockState reads just the block columns for the per-request gate check.
	GetBlockState(ctx context.Context, userID string) (domain.BlockState, error)

	// DeleteUser removes an account.
	DeleteUser(ctx context.Context, userID string) error
}

type AuditLog interface {
	// Append writes one audit entry.
	Append(ctx context.Context, e domain.AuditEntry) error

	// ListRecent returns the newest entries up to limit.
	ListRecent(ctx context.Context, limit int) ([]domain.AuditEntry, error)

	// DeleteOlderThan removes entries created before cutoff (housekeeping).
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// OTPs persists live one-time passcodes keyed by (email, purpose). The
// backing store owns expiry: records vanish on their own once the TTL
// elapses, so stale codes never accumulate regardless of process restarts.
type OTPs interface {
	// Save stores rec under its (email, purpose) key, replacing any prior
	// record for that key atomically. ttl bounds the record's storage
	// lifetime and must not be shorter than rec.ExpiresAt.
	Save(ctx context.Context, rec domain.OTPRecord, ttl time.Duration) error

	// Get returns the live record for (email, purpose) or ErrNotFound.
	Get(ctx context.Context, email string, purpose domain.OTPPurpose) (domain.OTPRecord, error)

	// Delete removes the record for (email, purpose). Deleting an absent
	// record is not an error.
	Delete(ctx context.Context, email string, purpose domain.OTPPurpose) error

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases the client connection.
	Close() error
}
