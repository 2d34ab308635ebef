package http

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/maroltinger/votebox/internal/core/domain"
)

// LiveHub fans ranking snapshots out to the websocket clients of each
// user. It implements the session manager's change listener.
type LiveHub struct {
	mu      sync.Mutex
	clients map[string]map[*liveClient]struct{}
}

type liveClient struct {
	send chan []byte
}

func NewLiveHub() *LiveHub {
	return &LiveHub{clients: make(map[string]map[*liveClient]struct{})}
}

// Notify pushes a fresh ranking snapshot to all connections of userID.
func (h *LiveHub) Notify(userID string, ranked []domain.RankedItem) {
	payload, err := json.Marshal(ranked)
	if err != nil {
		slog.Error("failed to marshal ranking snapshot", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients[userID] {
		select {
		case client.send <- payload:
		default:
			// Slow consumer; it will catch up with the next snapshot.
		}
	}
}

func (h *LiveHub) register(userID string, client *liveClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*liveClient]struct{})
	}
	h.clients[userID][client] = struct{}{}
}

func (h *LiveHub) unregister(userID string, client *liveClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.clients[userID]; ok {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.clients, userID)
		}
	}
}

// ClientCount reports the open connections of one user.
func (h *LiveHub) ClientCount(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[userID])
}
