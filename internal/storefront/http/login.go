package http

import (
	"errors"
	"net/http"

	"github.com/cedarmarket/storefront/internal/storefront/service"
	"github.com/cedarmarket/storefront/pkg/httpx"
	"github.com/cedarmarket/storefront/pkg/slogx"
)

type LoginHandler struct {
	AuthService   *service.AuthService
	SecureCookies bool
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Admin    bool   `json:"admin,omitempty"`
}

// ServeHTTP handles POST /auth/login. A successful login sets the session
// cookie; the token never appears in the response body.
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, token, err := h.AuthService.Login(ctx, req.Email, req.Password)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	case errors.Is(err, service.ErrAccountBlocked):
		httpx.WriteError(w, http.StatusForbidden, "Account blocked")
		return
	case err != nil:
		log.Error("login failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Service unavailable")
		return
	}

	httpx.SetTokenCookie(w, token, h.AuthService.Codec.TTL(), h.SecureCookies)
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"user": userResponse{
			ID:       user.ID,
			Email:    user.Email,
			Username: user.Username,
			Admin:    user.Admin,
		},
	})
}

// LogoutHandler clears the session cookie. The token itself stays valid
// until expiry; logout is a client-side affair without a revocation list.
type LogoutHandler struct {
	SecureCookies bool
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	httpx.ClearTokenCookie(w, h.SecureCookies)
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}
