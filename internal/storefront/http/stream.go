package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/cedarmarket/storefront/internal/storefront/service"
	"github.com/cedarmarket/storefront/pkg/httpx"
	"github.com/cedarmarket/storefront/pkg/slogx"
)

// StreamHandler serves GET /events/user-status as a newline-delimited JSON
// stream. The client gets a "connected" frame immediately, "ping" frames on
// the heartbeat so intermediaries keep the connection alive, and a single
// terminal "blocked" frame if the account is blocked while the stream is
// open. The subscription is registered only after the gate accepted the
// session, so a blocked account cannot hold a stream open.
type StreamHandler struct {
	Bus       *service.BlockBus
	Heartbeat time.Duration
}

type streamEvent struct {
	Event     string `json:"event"`
	Timestamp string `json:"timestamp,omitempty"`
	UserID    string `json:"userId,omitempty"`
}

func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	p, ok := httpx.PrincipalFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		httpx.WriteError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("X-Accel-Buffering", "no")
	httpx.NoCache(w)
	w.WriteHeader(http.StatusOK)

	sub := h.Bus.Subscribe(p.UserID)
	defer h.Bus.Unsubscribe(sub)

	enc := json.NewEncoder(w)
	writeFrame := func(ev streamEvent) bool {
		if err := enc.Encode(ev); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if !writeFrame(streamEvent{Event: "connected"}) {
		return
	}

	heartbeat := time.NewTicker(h.Heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			// Client went away; the deferred unsubscribe cleans up.
			return

		case <-heartbeat.C:
			if !writeFrame(streamEvent{
				Event:     "ping",
				Timestamp: time.Now().UTC().Format(time.RFC3339),
			}) {
				return
			}

		case ev, ok := <-sub.C():
			if !ok {
				return
			}
			log.Info("delivering blocked event on stream", "user_id", ev.UserID)
			writeFrame(streamEvent{Event: "blocked", UserID: ev.UserID})
			return
		}
	}
}
