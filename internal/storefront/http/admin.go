package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/cedarmarket/storefront/internal/storefront/service"
	"github.com/cedarmarket/storefront/pkg/httpx"
	"github.com/cedarmarket/storefront/pkg/slogx"
)

// AdminHandler covers the block and unblock transitions. Both routes sit
// behind the admin gate.
type AdminHandler struct {
	AccountService *service.AccountService
}

// HandleBlock handles POST /admin/users/{id}/block. Existing sessions for
// the target die from the next request on, and open status streams get the
// terminal blocked frame immediately.
func (h *AdminHandler) HandleBlock(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.AccountService.Block, "User blocked")
}

// HandleUnblock handles POST /admin/users/{id}/unblock.
func (h *AdminHandler) HandleUnblock(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.AccountService.Unblock, "User unblocked")
}

func (h *AdminHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, userID string) error,
	okMsg string,
) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := r.PathValue("id")
	if userID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "User id is required")
		return
	}

	err := fn(ctx, userID)
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		httpx.WriteError(w, http.StatusNotFound, "User not found")
		return
	case err != nil:
		log.Error("block transition failed", "user_id", userID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Service unavailable")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": okMsg})
}
