package ports

import (
	"context"

	"github.com/maroltinger/votebox/internal/core/domain"
)

// VoteSession is the per-user voting state: the user's vote ledger, the
// item count cache kept fresh by live sync, and the vote coordinator.
type VoteSession interface {
	// CastVote applies the vote optimistically, commits it atomically
	// and rolls the local state back on failure.
	CastVote(ctx context.Context, itemID string, choice domain.VoteKind) error

	// Ranked returns the current ranking snapshot: descending score,
	// ties broken by configuration order.
	Ranked() []domain.RankedItem

	// Close cancels all live subscriptions and clears local state.
	Close()
}

// SessionManager hands out one VoteSession per authenticated user.
type SessionManager interface {
	Attach(ctx context.Context, user *domain.AuthUser) (VoteSession, error)
	Detach(userID string)
}
