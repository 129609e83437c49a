package http

import (
	"errors"
	"net/http"

	"github.com/cedarmarket/storefront/internal/storefront/service"
	"github.com/cedarmarket/storefront/pkg/httpx"
	"github.com/cedarmarket/storefront/pkg/slogx"
)

type SignupHandler struct {
	AccountService *service.AccountService
	AuthService    *service.AuthService
	SecureCookies  bool
}

type signupRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	OTP      string `json:"otp"`
}

// ServeHTTP handles POST /auth/signup. The signup OTP must already be in
// the ledger; account creation consumes it and logs the new user straight
// in.
func (h *SignupHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req signupRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Username == "" || req.Password == "" || req.OTP == "" {
		httpx.WriteError(w, http.StatusBadRequest, "Email, username, password and otp are required")
		return
	}

	user, err := h.AccountService.Signup(ctx, req.Email, req.Username, req.Password, req.OTP)
	switch {
	case errors.Is(err, service.ErrOTPExpired):
		httpx.WriteError(w, http.StatusBadRequest, "OTP expired")
		return
	case errors.Is(err, service.ErrOTPNotFound):
		httpx.WriteError(w, http.StatusBadRequest, "Invalid OTP")
		return
	case errors.Is(err, service.ErrEmailTaken):
		httpx.WriteError(w, http.StatusConflict, "Email already registered")
		return
	case err != nil:
		log.Error("signup failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Service unavailable")
		return
	}

	token, err := h.AuthService.Codec.Issue(user.ID, user.Email, user.Username, user.Admin)
	if err != nil {
		log.Error("issue token after signup failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Service unavailable")
		return
	}

	httpx.SetTokenCookie(w, token, h.AuthService.Codec.TTL(), h.SecureCookies)
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{
		"user": userResponse{
			ID:       user.ID,
			Email:    user.Email,
			Username: user.Username,
		},
	})
}
