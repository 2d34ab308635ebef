package services

import (
	"context"
	"sync"

	"github.com/maroltinger/votebox/internal/core/domain"
	"github.com/maroltinger/votebox/internal/core/ports"
)

// ChangeListener receives a fresh ranking snapshot for a user whenever
// that user's view of the items changes.
type ChangeListener func(userID string, ranked []domain.RankedItem)

type sessionManager struct {
	store    ports.DocumentStore
	items    []domain.ItemConfig
	listener ChangeListener

	mu       sync.Mutex
	sessions map[string]*session
}

// NewSessionManager creates the registry that owns one vote session per
// authenticated user. listener may be nil.
func NewSessionManager(store ports.DocumentStore, items []domain.ItemConfig, listener ChangeListener) ports.SessionManager {
	return &sessionManager{
		store:    store,
		items:    items,
		listener: listener,
		sessions: make(map[string]*session),
	}
}

// Attach returns the user's session, creating it on first use. Only
// verified users get a session.
func (m *sessionManager) Attach(ctx context.Context, user *domain.AuthUser) (ports.VoteSession, error) {
	if !user.CanVote() {
		return nil, domain.ErrNotAuthorized
	}

	m.mu.Lock()
	if existing, ok := m.sessions[user.ID]; ok {
		m.mu.Unlock()
		return existing, nil
	}
	m.mu.Unlock()

	// Session creation hits the backend and must not run under the
	// registry lock. A losing racer closes its session again.
	userID := user.ID
	onChange := func(ranked []domain.RankedItem) {
		if m.listener != nil {
			m.listener(userID, ranked)
		}
	}
	created, err := newSession(ctx, m.store, user, m.items, onChange)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if existing, ok := m.sessions[user.ID]; ok {
		m.mu.Unlock()
		created.Close()
		return existing, nil
	}
	m.sessions[user.ID] = created
	m.mu.Unlock()
	return created, nil
}

// Detach closes and removes the user's session, if any.
func (m *sessionManager) Detach(userID string) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()

	if ok {
		s.Close()
	}
}
