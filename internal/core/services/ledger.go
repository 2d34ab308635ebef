package services

import (
	"context"
	"log/slog"

	"github.com/maroltinger/votebox/internal/core/domain"
	"github.com/maroltinger/votebox/internal/core/ports"
)

// ledger holds one user's current vote per item. It is an in-memory
// mirror of the user's vote document; persistence happens inside the
// vote transaction, never here.
type ledger struct {
	userID string
	votes  map[string]domain.VoteKind
}

// loadLedger fetches the user's vote document. A fetch failure falls
// open to an empty ledger so the session can still start; the error is
// logged and not propagated.
func loadLedger(ctx context.Context, store ports.DocumentStore, userID string) *ledger {
	l := &ledger{userID: userID, votes: make(map[string]domain.VoteKind)}

	data, ok, err := store.Get(ctx, ports.CollectionUserVotes, userID)
	if err != nil {
		slog.Warn("failed to load vote ledger, starting empty", "user_id", userID, "error", err)
		return l
	}
	if !ok {
		return l
	}

	for itemID, raw := range data {
		kind, _ := raw.(string)
		if v := domain.VoteKind(kind); v.Valid() {
			l.votes[itemID] = v
		}
	}
	return l
}

func (l *ledger) Current(itemID string) domain.VoteKind {
	return l.votes[itemID]
}

// SetLocal records the user's vote in memory only. VoteNone clears the
// entry.
func (l *ledger) SetLocal(itemID string, kind domain.VoteKind) {
	if kind == domain.VoteNone {
		delete(l.votes, itemID)
		return
	}
	l.votes[itemID] = kind
}

func (l *ledger) Snapshot() map[string]domain.VoteKind {
	snap := make(map[string]domain.VoteKind, len(l.votes))
	for k, v := range l.votes {
		snap[k] = v
	}
	return snap
}

func (l *ledger) Restore(snap map[string]domain.VoteKind) {
	l.votes = snap
}
