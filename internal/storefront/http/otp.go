package http

import (
	"errors"
	"net/http"

	"github.com/cedarmarket/storefront/internal/storefront/domain"
	"github.com/cedarmarket/storefront/internal/storefront/service"
	"github.com/cedarmarket/storefront/pkg/httpx"
	"github.com/cedarmarket/storefront/pkg/slogx"
)

type SendOTPHandler struct {
	OTPService *service.OTPService
}

type sendOTPRequest struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
}

// ServeHTTP handles POST /auth/send-otp. Reset requests return 200 no matter
// what happens downstream; revealing whether the address has an account, even
// through a delivery error, is an enumeration vector.
func (h *SendOTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req sendOTPRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" {
		httpx.WriteError(w, http.StatusBadRequest, "Email is required")
		return
	}

	purpose, err := domain.ParseOTPPurpose(req.Purpose)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid purpose")
		return
	}

	if err := h.OTPService.Issue(ctx, req.Email, purpose); err != nil {
		log.Error("otp issue failed", "purpose", string(purpose), "err", err)
		if purpose != domain.OTPPurposeReset {
			httpx.WriteError(w, http.StatusInternalServerError, "Could not send code")
			return
		}
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Code sent"})
}

type VerifyOTPHandler struct {
	OTPService *service.OTPService
}

type verifyOTPRequest struct {
	Email   string `json:"email"`
	OTP     string `json:"otp"`
	Purpose string `json:"purpose"`
}

// ServeHTTP handles POST /auth/verify-otp. An expired code reads "OTP
// expired" exactly once; the record is gone afterwards and further attempts
// read "Invalid OTP".
func (h *VerifyOTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req verifyOTPRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.OTP == "" {
		httpx.WriteError(w, http.StatusBadRequest, "Email and otp are required")
		return
	}

	purpose, err := domain.ParseOTPPurpose(req.Purpose)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid purpose")
		return
	}

	err = h.OTPService.Verify(ctx, req.Email, req.OTP, purpose)
	switch {
	case errors.Is(err, service.ErrOTPExpired):
		httpx.WriteError(w, http.StatusBadRequest, "OTP expired")
		return
	case errors.Is(err, service.ErrOTPNotFound):
		httpx.WriteError(w, http.StatusBadRequest, "Invalid OTP")
		return
	case err != nil:
		log.Error("otp verify failed", "purpose", string(purpose), "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Service unavailable")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Code verified"})
}
