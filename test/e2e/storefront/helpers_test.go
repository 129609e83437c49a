package storefront_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/cedarmarket/storefront/internal/storefront/domain"
	httpapi "github.com/cedarmarket/storefront/internal/storefront/http"
	"github.com/cedarmarket/storefront/internal/storefront/service"
	"github.com/cedarmarket/storefront/internal/storefront/store/drivers/redisotp"
	"github.com/cedarmarket/storefront/internal/storefront/store/drivers/sqlite"
	"github.com/cedarmarket/storefront/pkg/cryptox"
	"github.com/cedarmarket/storefront/pkg/idx"
	"github.com/cedarmarket/storefront/pkg/sessiontoken"
)

// env is a fully wired service running in-process: real router, real
// services, in-memory SQLite, miniredis for the OTP ledger, and a mailbox
// standing in for SMTP.
type env struct {
	srv     *httptest.Server
	store   *sqlite.Store
	mailbox *mailbox
}

func newEnv(t *testing.T) *env {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	otps := redisotp.NewStore(rdb)

	codec, err := sessiontoken.NewCodec(
		[]byte("e2e-secret-e2e-secret-e2e-secret!"), "cedarmarket-e2e", sessiontoken.DefaultTTL)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mbox := &mailbox{}

	otpSvc := &service.OTPService{
		OTPs:   otps,
		Users:  st.Users(),
		Audit:  st.AuditLog(),
		Mailer: mbox,
	}
	bus := service.NewBlockBus(logger)

	router := httpapi.NewRouter("e2e", false, 25*time.Millisecond, st, otps, logger)
	router.AuthService = &service.AuthService{Store: st, Codec: codec}
	router.AccountService = &service.AccountService{Store: st, OTP: otpSvc, Bus: bus}
	router.OTPService = otpSvc
	router.Gate = &service.SessionGate{Codec: codec, Users: st.Users()}
	router.Bus = bus
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &env{srv: srv, store: st, mailbox: mbox}
}

type mailbox struct {
	mu    sync.Mutex
	codes []string
}

func (m *mailbox) SendOTP(_ context.Context, _ string, code string, _ domain.OTPPurpose) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes = append(m.codes, code)
	return nil
}

func (m *mailbox) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.codes)
}

func (m *mailbox) lastCode(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.codes, "no otp mail arrived")
	return m.codes[len(m.codes)-1]
}

func (e *env) promoteToAdmin(t *testing.T, email, password string) *http.Cookie {
	t.Helper()

	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)
	admin := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		Username:     "ops",
		PasswordHash: hash,
		Admin:        true,
	}
	require.NoError(t, e.store.Users().CreateUser(context.Background(), admin))
	return e.login(t, email, password)
}

func (e *env) post(t *testing.T, path string, body any, cookie *http.Cookie) *http.Response {
	t.Helper()

	var buf []byte
	if body != nil {
		var err error
		buf, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req, err := http.NewRequest(http.MethodPost, e.srv.URL+path, bytes.NewReader(buf))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}

	resp, err := e.srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (e *env) get(t *testing.T, path string, cookie *http.Cookie) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, e.srv.URL+path, nil)
	require.NoError(t, err)
	if cookie != nil {
		req.AddCookie(cookie)
	}

	resp, err := e.srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// login performs a password login and returns the session cookie.
func (e *env) login(t *testing.T, email, password string) *http.Cookie {
	t.Helper()

	resp := e.post(t, "/auth/login", map[string]string{
		"email": email, "password": password,
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return tokenCookie(t, resp)
}

// signup drives send-otp then signup and returns the session cookie.
func (e *env) signup(t *testing.T, email, username, password string) *http.Cookie {
	t.Helper()

	resp := e.post(t, "/auth/send-otp", map[string]string{
		"email": email, "purpose": "signup",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = e.post(t, "/auth/signup", map[string]string{
		"email": email, "username": username,
		"password": password, "otp": e.mailbox.lastCode(t),
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return tokenCookie(t, resp)
}

func tokenCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == "token" {
			return c
		}
	}
	t.Fatal("response carried no session cookie")
	return nil
}

func bodyJSON(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&m))
	return m
}

func userID(t *testing.T, resp map[string]any) string {
	t.Helper()
	user, ok := resp["user"].(map[string]any)
	require.True(t, ok, "response carried no user object")
	id, _ := user["id"].(string)
	require.NotEmpty(t, id)
	return id
}
