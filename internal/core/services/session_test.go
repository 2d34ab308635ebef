package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maroltinger/votebox/internal/adapters/docstore/memory"
	"github.com/maroltinger/votebox/internal/core/domain"
	"github.com/maroltinger/votebox/internal/core/ports"
)

var testItems = []domain.ItemConfig{
	{ID: "POT"},
	{ID: "MAI"},
	{ID: "BAU"},
}

func testUser() *domain.AuthUser {
	return &domain.AuthUser{ID: "user-1", Email: "alice@maroltingergasse.at", EmailVerified: true}
}

func newTestSession(t *testing.T, store *memory.Store, onChange func([]domain.RankedItem)) *session {
	t.Helper()
	s, err := newSession(context.Background(), store, testUser(), testItems, onChange)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func rankedByID(ranked []domain.RankedItem, id string) domain.RankedItem {
	for _, item := range ranked {
		if item.ID == id {
			return item
		}
	}
	return domain.RankedItem{}
}

func TestSessionCreatesMissingItemDocs(t *testing.T) {
	store := memory.NewStore()
	s := newTestSession(t, store, nil)

	for _, cfg := range testItems {
		doc, ok, err := store.Get(context.Background(), ports.CollectionItems, cfg.ID)
		require.NoError(t, err)
		require.True(t, ok, "item doc %s should have been created", cfg.ID)
		assert.Equal(t, 0, doc["likes"])
		assert.Equal(t, 0, doc["dislikes"])
	}
	assert.Len(t, s.Ranked(), 3)
}

func TestSessionRejectsUnverifiedUser(t *testing.T) {
	store := memory.NewStore()
	user := &domain.AuthUser{ID: "u", Email: "bob@maroltingergasse.at", EmailVerified: false}

	_, err := newSession(context.Background(), store, user, testItems, nil)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
}

func TestCastVoteEndToEnd(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	s := newTestSession(t, store, nil)

	pot := rankedByID(s.Ranked(), "POT")
	assert.InDelta(t, 5.0, pot.Score, 1e-9)

	// First like: counts (1,0), score 5.1.
	require.NoError(t, s.CastVote(ctx, "POT", domain.VoteLike))
	pot = rankedByID(s.Ranked(), "POT")
	assert.Equal(t, 1, pot.Likes)
	assert.Equal(t, 0, pot.Dislikes)
	assert.InDelta(t, 5.1, pot.Score, 1e-9)
	assert.Equal(t, domain.VoteLike, pot.UserVote)

	doc, _, err := store.Get(ctx, ports.CollectionItems, "POT")
	require.NoError(t, err)
	assert.Equal(t, 1, doc["likes"])

	votes, ok, err := store.Get(ctx, ports.CollectionUserVotes, "user-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "like", votes["POT"])

	// Same click again toggles the vote off and removes the ledger entry.
	require.NoError(t, s.CastVote(ctx, "POT", domain.VoteLike))
	pot = rankedByID(s.Ranked(), "POT")
	assert.Equal(t, 0, pot.Likes)
	assert.InDelta(t, 5.0, pot.Score, 1e-9)
	assert.Equal(t, domain.VoteNone, pot.UserVote)

	votes, _, err = store.Get(ctx, ports.CollectionUserVotes, "user-1")
	require.NoError(t, err)
	assert.NotContains(t, votes, "POT")

	// Dislike: counts (0,1), score 4.9.
	require.NoError(t, s.CastVote(ctx, "POT", domain.VoteDislike))
	pot = rankedByID(s.Ranked(), "POT")
	assert.Equal(t, 0, pot.Likes)
	assert.Equal(t, 1, pot.Dislikes)
	assert.InDelta(t, 4.9, pot.Score, 1e-9)
	assert.Equal(t, domain.VoteDislike, pot.UserVote)
}

func TestCastVoteSwitchMovesOneUnitEachWay(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	s := newTestSession(t, store, nil)

	require.NoError(t, s.CastVote(ctx, "MAI", domain.VoteLike))
	require.NoError(t, s.CastVote(ctx, "MAI", domain.VoteDislike))

	mai := rankedByID(s.Ranked(), "MAI")
	assert.Equal(t, 0, mai.Likes)
	assert.Equal(t, 1, mai.Dislikes)
	assert.Equal(t, domain.VoteDislike, mai.UserVote)

	doc, _, err := store.Get(ctx, ports.CollectionItems, "MAI")
	require.NoError(t, err)
	assert.Equal(t, 0, doc["likes"])
	assert.Equal(t, 1, doc["dislikes"])
}

func TestCastVoteRollbackOnTransactionFailure(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	s := newTestSession(t, store, nil)

	require.NoError(t, s.CastVote(ctx, "POT", domain.VoteLike))
	before := s.Ranked()

	store.BeforeCommit = func() error { return errors.New("write conflict") }
	err := s.CastVote(ctx, "POT", domain.VoteDislike)
	assert.ErrorIs(t, err, domain.ErrTransactionConflict)

	// Local counts and ledger must equal their pre-call values exactly.
	assert.Equal(t, before, s.Ranked())

	doc, _, err := store.Get(ctx, ports.CollectionItems, "POT")
	require.NoError(t, err)
	assert.Equal(t, 1, doc["likes"])
	assert.Equal(t, 0, doc["dislikes"])
}

func TestCastVoteUnknownItem(t *testing.T) {
	store := memory.NewStore()
	s := newTestSession(t, store, nil)

	err := s.CastVote(context.Background(), "XYZ", domain.VoteLike)
	assert.ErrorIs(t, err, domain.ErrItemUnknown)
}

func TestCastVoteInFlightGuard(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	s := newTestSession(t, store, nil)

	entered := make(chan struct{})
	release := make(chan struct{})
	store.BeforeCommit = func() error {
		close(entered)
		<-release
		return nil
	}

	firstDone := make(chan error, 1)
	go func() { firstDone <- s.CastVote(ctx, "POT", domain.VoteLike) }()

	<-entered
	// A second vote on the same item while the first transaction is
	// outstanding is rejected without touching any state.
	err := s.CastVote(ctx, "POT", domain.VoteDislike)
	assert.ErrorIs(t, err, domain.ErrVoteInFlight)

	close(release)
	require.NoError(t, <-firstDone)

	pot := rankedByID(s.Ranked(), "POT")
	assert.Equal(t, 1, pot.Likes)
	assert.Equal(t, 0, pot.Dislikes)
}

func TestLiveSyncAppliesRemoteChanges(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	var changes atomic.Int32
	s := newTestSession(t, store, func([]domain.RankedItem) { changes.Add(1) })
	changes.Store(0)

	// A remote writer bumps BAU; the session must pick it up.
	require.NoError(t, store.Set(ctx, ports.CollectionItems, "BAU", ports.Document{"likes": 4, "dislikes": 1}))

	require.Eventually(t, func() bool {
		bau := rankedByID(s.Ranked(), "BAU")
		return bau.Likes == 4 && bau.Dislikes == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), changes.Load())

	// An update carrying the counts we already have is a no-op.
	require.NoError(t, store.Set(ctx, ports.CollectionItems, "BAU", ports.Document{"likes": 4, "dislikes": 1}))
	assert.Equal(t, int32(1), changes.Load())
}

func TestCloseCancelsSubscriptions(t *testing.T) {
	store := memory.NewStore()
	s := newTestSession(t, store, nil)

	for _, cfg := range testItems {
		assert.Equal(t, 1, store.SubscriberCount(ports.CollectionItems, cfg.ID))
	}

	s.Close()

	for _, cfg := range testItems {
		assert.Equal(t, 0, store.SubscriberCount(ports.CollectionItems, cfg.ID))
	}
	assert.Empty(t, s.Ranked())
}

func TestLedgerLoadFailureFallsOpen(t *testing.T) {
	store := memory.NewStore()
	store.OnGet = func(collection, id string) error {
		if collection == ports.CollectionUserVotes {
			return errors.New("backend unavailable")
		}
		return nil
	}

	s := newTestSession(t, store, nil)

	// The session starts with no prior votes instead of failing.
	for _, item := range s.Ranked() {
		assert.Equal(t, domain.VoteNone, item.UserVote)
	}
	store.OnGet = nil
	require.NoError(t, s.CastVote(context.Background(), "POT", domain.VoteLike))
}

func TestUnavailableItemIsSkipped(t *testing.T) {
	store := memory.NewStore()
	store.OnGet = func(collection, id string) error {
		if collection == ports.CollectionItems && id == "MAI" {
			return errors.New("backend unavailable")
		}
		return nil
	}

	s := newTestSession(t, store, nil)

	ranked := s.Ranked()
	assert.Len(t, ranked, 2)
	assert.Equal(t, domain.RankedItem{}, rankedByID(ranked, "MAI"))
}

func TestLedgerLoadedFromExistingDocument(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Set(ctx, ports.CollectionItems, "POT", ports.Document{"likes": 3, "dislikes": 1}))
	require.NoError(t, store.Set(ctx, ports.CollectionUserVotes, "user-1", ports.Document{"POT": "like", "junk": 42}))

	s := newTestSession(t, store, nil)

	pot := rankedByID(s.Ranked(), "POT")
	assert.Equal(t, 3, pot.Likes)
	assert.Equal(t, domain.VoteLike, pot.UserVote)
}
