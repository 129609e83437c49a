package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/cedarmarket/storefront/internal/storefront/domain"
	"github.com/cedarmarket/storefront/internal/storefront/store"
	"github.com/cedarmarket/storefront/internal/storefront/store/drivers/redisotp"
	"github.com/cedarmarket/storefront/internal/storefront/store/drivers/sqlite"
	"github.com/cedarmarket/storefront/pkg/cryptox"
	"github.com/cedarmarket/storefront/pkg/idx"
	"github.com/cedarmarket/storefront/pkg/sessiontoken"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type testEnv struct {
	store store.Store
	otps  *redisotp.Store
	redis *miniredis.Miniredis
	mail  *captureMailer
	codec *sessiontoken.Codec
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	codec, err := sessiontoken.NewCodec(testSecret, "storefront-test", sessiontoken.DefaultTTL)
	require.NoError(t, err)

	return &testEnv{
		store: st,
		otps:  redisotp.NewStore(rdb),
		redis: mr,
		mail:  &captureMailer{},
		codec: codec,
	}
}

func (e *testEnv) otpService() *OTPService {
	return &OTPService{
		OTPs:   e.otps,
		Users:  e.store.Users(),
		Audit:  e.store.AuditLog(),
		Mailer: e.mail,
	}
}

func (e *testEnv) createUser(t *testing.T, email, password string) domain.User {
	t.Helper()

	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)

	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		Username:     "customer",
		PasswordHash: hash,
	}
	require.NoError(t, e.store.Users().CreateUser(context.Background(), u))
	return u
}

// captureMailer records every delivery so tests can read the code back,
// since the services themselves never expose it.
type captureMailer struct {
	mu    sync.Mutex
	sent  []sentOTP
	fail  error
	calls int
}

type sentOTP struct {
	Email   string
	Code    string
	Purpose domain.OTPPurpose
}

func (m *captureMailer) SendOTP(_ context.Context, email, code string, purpose domain.OTPPurpose) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.fail != nil {
		return m.fail
	}
	m.sent = append(m.sent, sentOTP{Email: email, Code: code, Purpose: purpose})
	return nil
}

func (m *captureMailer) last(t *testing.T) sentOTP {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent, "no otp was delivered")
	return m.sent[len(m.sent)-1]
}

func (m *captureMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *captureMailer) setFail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// failingUsers simulates a user store whose backend is down.
type failingUsers struct {
	store.Users
}

var errBackendDown = errors.New("backend down")

func (failingUsers) GetBlockState(context.Context, string) (domain.BlockState, error) {
	return domain.BlockState{}, errBackendDown
}
