package http

import (
	"errors"
	"net/http"

	"github.com/cedarmarket/storefront/internal/storefront/service"
	"github.com/cedarmarket/storefront/pkg/httpx"
)

// MeHandler reports the authenticated principal. The gate already ran, so
// reaching this handler means the session survived the block check this
// very request.
type MeHandler struct{}

func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p, ok := httpx.PrincipalFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"user": userResponse{
			ID:       p.UserID,
			Email:    p.Email,
			Username: p.Username,
			Admin:    p.Admin,
		},
	})
}

// CheckStatusHandler is the polling fallback for clients that cannot hold
// a status stream open. It runs the gate itself rather than sitting behind
// the authn middleware, because a blocked session still needs a body the
// poller can read: 403 with {"status":"blocked"}.
type CheckStatusHandler struct {
	Gate *service.SessionGate
}

func (h *CheckStatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	httpx.NoCache(w)

	_, err := h.Gate.Authenticate(r.Context(), httpx.TokenFromRequest(r))
	if errors.Is(err, service.ErrAccountBlocked) {
		httpx.WriteJSON(w, http.StatusForbidden, map[string]string{"status": "blocked"})
		return
	}
	if err != nil {
		writeAuthError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "active"})
}
