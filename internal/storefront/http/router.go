// Package http exposes the storefront auth subsystem over HTTP. Sessions
// ride in an HttpOnly cookie; every authenticated route re-checks the
// block state through the session gate before the handler runs.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/cedarmarket/storefront/internal/storefront/obs"
	"github.com/cedarmarket/storefront/internal/storefront/service"
	"github.com/cedarmarket/storefront/internal/storefront/store"
	"github.com/cedarmarket/storefront/pkg/httpx"
	"github.com/cedarmarket/storefront/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	// secureCookies adds the Secure attribute to the session cookie.
	// Off only in local development over plain HTTP.
	secureCookies bool

	// heartbeat paces the status stream's ping events.
	heartbeat time.Duration

	store store.Store
	otps  store.OTPs

	AuthService    *service.AuthService
	AccountService *service.AccountService
	OTPService     *service.OTPService
	Gate           *service.SessionGate
	Bus            *service.BlockBus
}

func NewRouter(
	buildVersion string,
	secureCookies bool,
	heartbeat time.Duration,
	st store.Store,
	otps store.OTPs,
	logger *slog.Logger,
) *Router {
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}

	r := &Router{
		Mux:           http.NewServeMux(),
		buildVersion:  buildVersion,
		startTime:     time.Now(),
		secureCookies: secureCookies,
		heartbeat:     heartbeat,
		store:         st,
		otps:          otps,
		logger:        logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerAccount()
	r.registerStream()
	r.registerAdmin()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	loginHandler := &LoginHandler{
		AuthService:   r.AuthService,
		SecureCookies: r.secureCookies,
	}

	// POST /auth/login - strict rate limit by IP (brute force)
	r.Mux.Handle("POST /auth/login",
		httpx.Chain(loginHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	sendHandler := &SendOTPHandler{OTPService: r.OTPService}
	verifyHandler := &VerifyOTPHandler{OTPService: r.OTPService}

	// OTP endpoints carry strict IP limits: send costs a mail delivery,
	// verify is the code brute-force surface.
	r.Mux.Handle("POST /auth/send-otp",
		httpx.Chain(sendHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /auth/verify-otp",
		httpx.Chain(verifyHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// Authenticated reads - lenient limits keyed by user
	meHandler := &MeHandler{}
	r.Mux.Handle("GET /auth/me",
		httpx.Chain(meHandler,
			r.authn(),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	// check-status gates inside the handler so a blocked session still
	// gets a status body. Keyed by IP since no principal exists yet.
	statusHandler := &CheckStatusHandler{Gate: r.Gate}
	r.Mux.Handle("GET /auth/check-status",
		httpx.Chain(statusHandler,
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerAccount() {
	signupHandler := &SignupHandler{
		AccountService: r.AccountService,
		AuthService:    r.AuthService,
		SecureCookies:  r.secureCookies,
	}
	resetHandler := &ResetPasswordHandler{AccountService: r.AccountService}
	logoutHandler := &LogoutHandler{SecureCookies: r.secureCookies}

	r.Mux.Handle("POST /auth/signup",
		httpx.Chain(signupHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /auth/reset-password",
		httpx.Chain(resetHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /auth/logout",
		httpx.Chain(logoutHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerStream() {
	h := &StreamHandler{
		Bus:       r.Bus,
		Heartbeat: r.heartbeat,
	}

	// The stream holds a connection open, so the limit only gates
	// connection setup.
	r.Mux.Handle("GET /events/user-status",
		httpx.Chain(h,
			r.authn(),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerAdmin() {
	h := &AdminHandler{AccountService: r.AccountService}

	r.Mux.Handle("POST /admin/users/{id}/block",
		httpx.Chain(http.HandlerFunc(h.HandleBlock),
			r.authn(),
			requireAdmin(),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /admin/users/{id}/unblock",
		httpx.Chain(http.HandlerFunc(h.HandleUnblock),
			r.authn(),
			requireAdmin(),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.otps),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /metrics", obs.Handler())
}
