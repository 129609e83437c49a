package http

import (
	"errors"
	"net/http"

	"github.com/cedarmarket/storefront/internal/storefront/service"
	"github.com/cedarmarket/storefront/pkg/httpx"
	"github.com/cedarmarket/storefront/pkg/slogx"
)

// authn resolves the session cookie through the gate and stores the
// principal on the request context. The gate's verdict is final: a blocked
// account gets 403 here and never reaches a handler.
func (r *Router) authn() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := req.Context()

			p, err := r.Gate.Authenticate(ctx, httpx.TokenFromRequest(req))
			if err != nil {
				writeAuthError(w, req, err)
				return
			}

			next.ServeHTTP(w, req.WithContext(httpx.WithPrincipal(ctx, p)))
		})
	}
}

// requireAdmin gates a route on the admin claim. Runs after authn.
func requireAdmin() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			p, ok := httpx.PrincipalFromContext(req.Context())
			if !ok || !p.Admin {
				httpx.WriteError(w, http.StatusForbidden, "Forbidden")
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

func writeAuthError(w http.ResponseWriter, req *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrAccountBlocked):
		httpx.WriteError(w, http.StatusForbidden, "Account blocked")
	case errors.Is(err, service.ErrUpstream):
		slogx.FromContext(req.Context()).Error("auth check failed upstream", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Service unavailable")
	default:
		httpx.WriteError(w, http.StatusUnauthorized, "Unauthorized")
	}
}
