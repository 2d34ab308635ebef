package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/maroltinger/votebox/internal/core/domain"
	"github.com/maroltinger/votebox/internal/core/ports"
)

// session is the per-user voting state machine: vote ledger, item count
// cache, live subscriptions and the cast-vote coordinator. All local
// state is guarded by mu so the coordinator and the live sync handler
// never interleave their critical sections.
type session struct {
	user  *domain.AuthUser
	store ports.DocumentStore

	mu       sync.Mutex
	cache    *itemCache
	ledger   *ledger
	inFlight map[string]bool
	unsubs   []ports.UnsubscribeFunc
	closed   bool

	onChange func([]domain.RankedItem)
}

// newSession loads the user's ledger, ensures every configured item
// document exists and subscribes to its change feed. An item whose
// document cannot be ensured is skipped, never fatal.
func newSession(ctx context.Context, store ports.DocumentStore, user *domain.AuthUser, items []domain.ItemConfig, onChange func([]domain.RankedItem)) (*session, error) {
	if !user.CanVote() {
		return nil, domain.ErrNotAuthorized
	}

	s := &session{
		user:     user,
		store:    store,
		cache:    newItemCache(),
		ledger:   loadLedger(ctx, store, user.ID),
		inFlight: make(map[string]bool),
		onChange: onChange,
	}

	for position, cfg := range items {
		if err := s.cache.ensureItem(ctx, store, cfg, position); err != nil {
			slog.Warn("skipping item", "item_id", cfg.ID, "error", err)
			continue
		}
		if err := s.subscribeItem(ctx, cfg.ID); err != nil {
			slog.Warn("live updates unavailable for item", "item_id", cfg.ID, "error", err)
		}
	}

	return s, nil
}

// CastVote runs one vote action: optimistic local apply, one atomic
// backend transaction, and a compensating rollback when the commit
// fails. A failed attempt is terminal; the caller must vote again.
func (s *session) CastVote(ctx context.Context, itemID string, choice domain.VoteKind) error {
	if !s.user.CanVote() {
		return domain.ErrNotAuthorized
	}
	if !choice.Valid() {
		return fmt.Errorf("%w: unknown vote kind %q", domain.ErrTransactionConflict, choice)
	}

	s.mu.Lock()
	item := s.cache.get(itemID)
	if item == nil {
		s.mu.Unlock()
		return domain.ErrItemUnknown
	}
	if s.inFlight[itemID] {
		s.mu.Unlock()
		return domain.ErrVoteInFlight
	}
	s.inFlight[itemID] = true

	previous := s.ledger.Current(itemID)
	itemSnap := *item
	ledgerSnap := s.ledger.Snapshot()

	newVote := choice
	if previous == choice {
		newVote = domain.VoteNone
	}

	likeDelta, dislikeDelta := voteDelta(previous, choice)
	item.likes += likeDelta
	item.dislikes += dislikeDelta
	item.recompute()
	s.ledger.SetLocal(itemID, newVote)
	s.mu.Unlock()

	s.notifyChange()

	err := s.store.RunTransaction(ctx, func(tx ports.DocumentTx) error {
		data, ok, err := tx.Get(ports.CollectionItems, itemID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrItemMissing
		}

		// The delta is re-derived from (previous, choice), never from
		// the optimistic local counts, so concurrent remote mutations
		// cannot compound into the write.
		counts := countsFromDocument(data)
		newLikes := clampCount(counts.Likes + likeDelta)
		newDislikes := clampCount(counts.Dislikes + dislikeDelta)
		if err := tx.Update(ports.CollectionItems, itemID, ports.Document{"likes": newLikes, "dislikes": newDislikes}); err != nil {
			return err
		}

		if newVote == domain.VoteNone {
			return tx.DeleteField(ports.CollectionUserVotes, s.user.ID, itemID)
		}
		return tx.Update(ports.CollectionUserVotes, s.user.ID, ports.Document{itemID: string(newVote)})
	})

	s.mu.Lock()
	delete(s.inFlight, itemID)
	if err != nil {
		// Restore the exact pre-vote snapshot for both the item cache
		// and the ledger.
		if cur := s.cache.get(itemID); cur != nil {
			*cur = itemSnap
		}
		s.ledger.Restore(ledgerSnap)
		s.mu.Unlock()
		s.notifyChange()

		slog.Error("vote transaction failed, local state rolled back",
			"user_id", s.user.ID, "item_id", itemID, "choice", choice, "error", err)
		if errors.Is(err, domain.ErrItemMissing) {
			return err
		}
		return fmt.Errorf("%w: %v", domain.ErrTransactionConflict, err)
	}
	s.mu.Unlock()

	// Live sync will observe the committed counts and no-op when they
	// match the optimistic ones.
	return nil
}

// voteDelta computes the counter deltas for a click of choice given the
// user's previous vote: toggling off decrements the chosen side, while
// switching moves exactly one unit from the old side to the new one.
func voteDelta(previous, choice domain.VoteKind) (likeDelta, dislikeDelta int) {
	if previous == choice {
		if choice == domain.VoteLike {
			return -1, 0
		}
		return 0, -1
	}

	switch previous {
	case domain.VoteLike:
		likeDelta--
	case domain.VoteDislike:
		dislikeDelta--
	}
	if choice == domain.VoteLike {
		likeDelta++
	} else {
		dislikeDelta++
	}
	return likeDelta, dislikeDelta
}

func clampCount(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// subscribeItem wires one item's change feed into the cache. Events are
// applied in arrival order; an event carrying counts equal to the cache
// is a no-op.
func (s *session) subscribeItem(ctx context.Context, itemID string) error {
	unsub, err := s.store.Subscribe(ctx, ports.CollectionItems, itemID, func(data ports.Document) {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		changed := s.cache.applyRemote(itemID, countsFromDocument(data))
		s.mu.Unlock()

		if changed {
			s.notifyChange()
		}
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.unsubs = append(s.unsubs, unsub)
	s.mu.Unlock()
	return nil
}

// Ranked returns the current ranking snapshot.
func (s *session) Ranked() []domain.RankedItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return rankItems(s.cache, s.ledger)
}

// Close tears the session down: all subscriptions are cancelled and the
// local caches cleared so no update leaks into a stale view.
func (s *session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	unsubs := s.unsubs
	s.unsubs = nil
	s.cache.clear()
	s.ledger.Restore(make(map[string]domain.VoteKind))
	s.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
}

func (s *session) notifyChange() {
	if s.onChange == nil {
		return
	}
	s.onChange(s.Ranked())
}
