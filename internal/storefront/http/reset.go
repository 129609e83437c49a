package http

import (
	"errors"
	"net/http"

	"github.com/cedarmarket/storefront/internal/storefront/service"
	"github.com/cedarmarket/storefront/pkg/httpx"
	"github.com/cedarmarket/storefront/pkg/slogx"
)

type ResetPasswordHandler struct {
	AccountService *service.AccountService
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

// ServeHTTP handles POST /auth/reset-password. An unknown email fails the
// same way a wrong code does; the endpoint admits nothing about which
// addresses hold accounts.
func (h *ResetPasswordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req resetPasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.OTP == "" || req.NewPassword == "" {
		httpx.WriteError(w, http.StatusBadRequest, "Email, otp and newPassword are required")
		return
	}

	err := h.AccountService.ResetPassword(ctx, req.Email, req.OTP, req.NewPassword)
	switch {
	case errors.Is(err, service.ErrOTPExpired):
		httpx.WriteError(w, http.StatusBadRequest, "OTP expired")
		return
	case errors.Is(err, service.ErrOTPNotFound):
		httpx.WriteError(w, http.StatusBadRequest, "Invalid OTP")
		return
	case err != nil:
		log.Error("password reset failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Service unavailable")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Password updated"})
}
