package realtime

import (
	"errors"
	"net/http"

	"github.com/harborchat/harbor/internal/chat/service"
	"github.com/harborchat/harbor/pkg/httpx"
	"github.com/harborchat/harbor/pkg/slogx"

	"github.com/coder/websocket"
)

// Handler upgrades authenticated requests to WebSocket chat sessions.
type Handler struct {
	Guard    *Guard
	Messages *service.MessageService
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	l := slogx.FromContext(r.Context())

	claims, err := h.Guard.Authenticate(r)
	if err != nil {
		if errors.Is(err, ErrBadToken) {
			l.Info("websocket handshake rejected", "reason", "bad token")
		}
		httpx.WriteJSON(w, http.StatusUnauthorized, map[string]string{
			"error":             "unauthenticated",
			"error_description": "handshake requires a valid token",
		})
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		l.Info("websocket accept failed", "error", err)
		return
	}

	sess := newSession(conn, claims, h.Messages)
	sess.run(r.Context())
}
