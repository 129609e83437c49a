package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/cedarmarket/storefront/internal/storefront/domain"
	"github.com/cedarmarket/storefront/internal/storefront/store"
	"github.com/cedarmarket/storefront/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func testUser() domain.User {
	return domain.User{
		ID:           idx.New().String(),
		Email:        "a@x.com",
		Username:     "ana",
		PasswordHash: "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
	}
}

func TestUsersCreateAndFetch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	u := testUser()
	require.NoError(t, s.Users().CreateUser(ctx, u))

	t.Run("by id", func(t *testing.T) {
		got, err := s.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, u.Email, got.Email)
		require.Equal(t, u.Username, got.Username)
		require.False(t, got.Blocked)
		require.Nil(t, got.LastBlockedAt)
	})

	t.Run("by email is case-insensitive", func(t *testing.T) {
		got, err := s.Users().GetUserByEmail(ctx, "A@X.COM")
		require.NoError(t, err)
		require.Equal(t, u.ID, got.ID)
	})

	t.Run("missing user maps to ErrNotFound", func(t *testing.T) {
		_, err := s.Users().GetUserByID(ctx, idx.New().String())
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("duplicate email maps to ErrAlreadyExists", func(t *testing.T) {
		dup := testUser()
		dup.ID = idx.New().String()
		err := s.Users().CreateUser(ctx, dup)
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})
}

func TestSetBlockedRecordsTransitionTime(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	u := testUser()
	require.NoError(t, s.Users().CreateUser(ctx, u))

	blockedAt := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.Users().SetBlocked(ctx, u.ID, true, blockedAt))

	st, err := s.Users().GetBlockState(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, st.Blocked)
	require.NotNil(t, st.LastBlockedAt)
	require.True(t, st.LastBlockedAt.Equal(blockedAt))

	// Unblocking clears the flag but keeps the transition timestamp.
	require.NoError(t, s.Users().SetBlocked(ctx, u.ID, false, time.Now().UTC()))

	st, err = s.Users().GetBlockState(ctx, u.ID)
	require.NoError(t, err)
	require.False(t, st.Blocked)
	require.NotNil(t, st.LastBlockedAt)
	require.True(t, st.LastBlockedAt.Equal(blockedAt))
}

func TestSetBlockedUnknownUser(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	err := s.Users().SetBlocked(ctx, idx.New().String(), true, time.Now().UTC())
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdatePasswordHash(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	u := testUser()
	require.NoError(t, s.Users().CreateUser(ctx, u))

	require.NoError(t, s.Users().UpdatePasswordHash(ctx, u.ID, "new-hash"))

	got, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "new-hash", got.PasswordHash)
}

func TestAuditLogAppendAndPrune(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	old := domain.AuditEntry{
		ID:        idx.New().String(),
		Action:    domain.AuditLoginFailure,
		Email:     "a@x.com",
		CreatedAt: time.Now().UTC().Add(-48 * time.Hour),
	}
	fresh := domain.AuditEntry{
		ID:        idx.New().String(),
		Action:    domain.AuditLoginSuccess,
		UserID:    "u1",
		Email:     "a@x.com",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.AuditLog().Append(ctx, old))
	require.NoError(t, s.AuditLog().Append(ctx, fresh))

	entries, err := s.AuditLog().ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, fresh.ID, entries[0].ID, "newest first")

	deleted, err := s.AuditLog().DeleteOlderThan(ctx, time.Now().UTC().Add(-24*time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 1, deleted)

	entries, err = s.AuditLog().ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, fresh.ID, entries[0].ID)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	u := testUser()
	err := s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, u); err != nil {
			return err
		}
		return context.Canceled // force rollback
	})
	require.Error(t, err)

	_, err = s.Users().GetUserByID(ctx, u.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}
