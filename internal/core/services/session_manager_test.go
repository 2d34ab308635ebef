package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maroltinger/votebox/internal/adapters/docstore/memory"
	"github.com/maroltinger/votebox/internal/core/domain"
	"github.com/maroltinger/votebox/internal/core/ports"
)

func TestSessionManagerAttachReturnsSameSession(t *testing.T) {
	store := memory.NewStore()
	manager := NewSessionManager(store, testItems, nil)

	first, err := manager.Attach(context.Background(), testUser())
	require.NoError(t, err)
	second, err := manager.Attach(context.Background(), testUser())
	require.NoError(t, err)

	assert.Same(t, first, second)
	// One subscription per item, not one per attach.
	assert.Equal(t, 1, store.SubscriberCount(ports.CollectionItems, "POT"))
}

func TestSessionManagerDetachClosesSession(t *testing.T) {
	store := memory.NewStore()
	manager := NewSessionManager(store, testItems, nil)

	_, err := manager.Attach(context.Background(), testUser())
	require.NoError(t, err)

	manager.Detach("user-1")
	assert.Equal(t, 0, store.SubscriberCount(ports.CollectionItems, "POT"))

	// Re-attach creates a fresh session.
	again, err := manager.Attach(context.Background(), testUser())
	require.NoError(t, err)
	assert.Len(t, again.Ranked(), 3)
}

func TestSessionManagerRejectsUnverified(t *testing.T) {
	manager := NewSessionManager(memory.NewStore(), testItems, nil)

	_, err := manager.Attach(context.Background(), &domain.AuthUser{ID: "u", Email: "x@maroltingergasse.at"})
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
}

func TestSessionManagerForwardsChangeEvents(t *testing.T) {
	store := memory.NewStore()

	var gotUser string
	var gotRanked []domain.RankedItem
	manager := NewSessionManager(store, testItems, func(userID string, ranked []domain.RankedItem) {
		gotUser = userID
		gotRanked = ranked
	})

	session, err := manager.Attach(context.Background(), testUser())
	require.NoError(t, err)

	require.NoError(t, session.CastVote(context.Background(), "POT", domain.VoteLike))
	assert.Equal(t, "user-1", gotUser)
	assert.Equal(t, 1, rankedByID(gotRanked, "POT").Likes)
}
