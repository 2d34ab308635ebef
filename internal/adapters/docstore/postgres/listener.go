package postgres

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/maroltinger/votebox/internal/core/ports"
)

const notifyChannel = "document_changes"

// changePayload is the json the documents trigger puts on the notify
// channel.
type changePayload struct {
	Collection string          `json:"collection"`
	ID         string          `json:"id"`
	Data       json.RawMessage `json:"data"`
}

type hubSubscriber struct {
	onChange func(ports.Document)
	active   bool
}

// listenerHub owns the single LISTEN connection and fans notifications
// out to subscribers. One dispatch goroutine keeps per-document
// delivery in arrival order.
type listenerHub struct {
	listener *pq.Listener
	done     chan struct{}

	mu   sync.Mutex
	subs map[string][]*hubSubscriber
}

func newListenerHub(connStr string) (*listenerHub, error) {
	listener := pq.NewListener(connStr, time.Second, 30*time.Second, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			slog.Warn("document change listener event", "event", ev, "error", err)
		}
	})
	if err := listener.Listen(notifyChannel); err != nil {
		_ = listener.Close()
		return nil, err
	}

	h := &listenerHub{
		listener: listener,
		done:     make(chan struct{}),
		subs:     make(map[string][]*hubSubscriber),
	}
	go h.dispatch()
	return h, nil
}

func (h *listenerHub) dispatch() {
	for {
		select {
		case notification, ok := <-h.listener.Notify:
			if !ok {
				return
			}
			if notification == nil {
				// Reconnect marker; missed notifications are tolerated,
				// the next change brings the cache back in sync.
				continue
			}
			h.deliver(notification.Extra)
		case <-h.done:
			return
		}
	}
}

func (h *listenerHub) deliver(payload string) {
	var change changePayload
	if err := json.Unmarshal([]byte(payload), &change); err != nil {
		slog.Warn("ignoring malformed change notification", "error", err)
		return
	}
	doc := ports.Document{}
	if err := json.Unmarshal(change.Data, &doc); err != nil {
		slog.Warn("ignoring change notification with malformed data", "error", err)
		return
	}

	key := change.Collection + "/" + change.ID
	h.mu.Lock()
	subs := make([]*hubSubscriber, len(h.subs[key]))
	copy(subs, h.subs[key])
	h.mu.Unlock()

	for _, sub := range subs {
		if sub.active {
			sub.onChange(doc)
		}
	}
}

func (h *listenerHub) subscribe(collection, id string, onChange func(ports.Document)) ports.UnsubscribeFunc {
	key := collection + "/" + id
	sub := &hubSubscriber{onChange: onChange, active: true}

	h.mu.Lock()
	h.subs[key] = append(h.subs[key], sub)
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		sub.active = false
		kept := h.subs[key][:0]
		for _, existing := range h.subs[key] {
			if existing != sub {
				kept = append(kept, existing)
			}
		}
		h.subs[key] = kept
	}
}

func (h *listenerHub) close() error {
	close(h.done)
	return h.listener.Close()
}
