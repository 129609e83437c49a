package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cedarmarket/storefront/internal/storefront/domain"
	"github.com/cedarmarket/storefront/pkg/idx"
)

func TestHousekeepingPrunesOldAuditRows(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	old := domain.AuditEntry{
		ID:        idx.New().String(),
		Action:    domain.AuditLoginSuccess,
		Email:     "buyer@example.com",
		CreatedAt: time.Now().UTC().Add(-48 * time.Hour),
	}
	fresh := domain.AuditEntry{
		ID:        idx.New().String(),
		Action:    domain.AuditLoginSuccess,
		Email:     "buyer@example.com",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, env.store.AuditLog().Append(ctx, old))
	require.NoError(t, env.store.AuditLog().Append(ctx, fresh))

	hk := NewHousekeepingService(env.store, discardLogger(), time.Hour, 24*time.Hour)
	hk.cleanup()

	rows, err := env.store.AuditLog().ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, fresh.ID, rows[0].ID)
}

func TestHousekeepingStartStop(t *testing.T) {
	env := newTestEnv(t)

	hk := NewHousekeepingService(env.store, discardLogger(), 10*time.Millisecond, time.Hour)
	hk.Start()
	time.Sleep(30 * time.Millisecond)
	hk.Stop()
}
