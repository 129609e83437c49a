package redisotp

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cedarmarket/storefront/internal/storefront/domain"
	"github.com/cedarmarket/storefront/internal/storefront/store"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewStore(rdb), mr
}

func testRecord(purpose domain.OTPPurpose) domain.OTPRecord {
	now := time.Now().UTC().Truncate(time.Second)
	return domain.OTPRecord{
		Email:     "a@x.com",
		Code:      "123456",
		Purpose:   purpose,
		CreatedAt: now,
		ExpiresAt: now.Add(5 * time.Minute),
	}
}

func TestSaveAndGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	rec := testRecord(domain.OTPPurposeLogin)
	require.NoError(t, s.Save(ctx, rec, 6*time.Minute))

	got, err := s.Get(ctx, "A@X.com ", domain.OTPPurposeLogin)
	require.NoError(t, err)
	require.Equal(t, rec.Code, got.Code)
	require.Equal(t, rec.Purpose, got.Purpose)
	require.True(t, rec.ExpiresAt.Equal(got.ExpiresAt))
}

func TestSaveReplacesPriorRecord(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	first := testRecord(domain.OTPPurposeLogin)
	require.NoError(t, s.Save(ctx, first, 6*time.Minute))

	second := first
	second.Code = "654321"
	require.NoError(t, s.Save(ctx, second, 6*time.Minute))

	got, err := s.Get(ctx, first.Email, domain.OTPPurposeLogin)
	require.NoError(t, err)
	require.Equal(t, "654321", got.Code)
}

func TestPurposesAreIsolated(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	login := testRecord(domain.OTPPurposeLogin)
	require.NoError(t, s.Save(ctx, login, 6*time.Minute))

	_, err := s.Get(ctx, login.Email, domain.OTPPurposeReset)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestRedisTTLGarbageCollects(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)

	rec := testRecord(domain.OTPPurposeSignup)
	require.NoError(t, s.Save(ctx, rec, time.Minute))

	mr.FastForward(2 * time.Minute)

	_, err := s.Get(ctx, rec.Email, domain.OTPPurposeSignup)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	rec := testRecord(domain.OTPPurposeReset)
	require.NoError(t, s.Save(ctx, rec, time.Minute))

	require.NoError(t, s.Delete(ctx, rec.Email, domain.OTPPurposeReset))
	require.NoError(t, s.Delete(ctx, rec.Email, domain.OTPPurposeReset))

	_, err := s.Get(ctx, rec.Email, domain.OTPPurposeReset)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestSaveRejectsNonPositiveTTL(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	err := s.Save(ctx, testRecord(domain.OTPPurposeLogin), 0)
	require.Error(t, err)
}
