package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/maroltinger/votebox/internal/core/ports"
)

const (
	writeTimeout   = 10 * time.Second
	sendBufferSize = 8
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Token auth happens before the upgrade; the widget is served from
	// arbitrary origins.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// LiveHandler upgrades GET /api/live to a websocket and streams ranking
// snapshots to the authenticated user.
type LiveHandler struct {
	hub      *LiveHub
	sessions ports.SessionManager
}

func NewLiveHandler(hub *LiveHub, sessions ports.SessionManager) *LiveHandler {
	return &LiveHandler{hub: hub, sessions: sessions}
}

func (h *LiveHandler) Stream(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r)
	if !ok {
		http.Error(w, "missing user context", http.StatusUnauthorized)
		return
	}

	session, err := h.sessions.Attach(r.Context(), user)
	if err != nil {
		http.Error(w, "verify your email to follow the ranking", http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "user_id", user.ID, "error", err)
		return
	}

	client := &liveClient{send: make(chan []byte, sendBufferSize)}
	h.hub.register(user.ID, client)
	defer h.hub.unregister(user.ID, client)

	// Initial snapshot so the client does not wait for the first change.
	if initial, err := json.Marshal(session.Ranked()); err == nil {
		client.send <- initial
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Drain control frames and detect the peer going away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer conn.Close()
	for {
		select {
		case payload := <-client.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
