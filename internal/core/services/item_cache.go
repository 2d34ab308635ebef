package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maroltinger/votebox/internal/core/domain"
	"github.com/maroltinger/votebox/internal/core/ports"
	"github.com/maroltinger/votebox/internal/core/scoring"
)

// itemState is the locally cached view of one item: counts, derived
// score and the item's fixed position in the configuration.
type itemState struct {
	id       string
	likes    int
	dislikes int
	score    float64
	position int
}

func (s *itemState) recompute() {
	s.score = scoring.Score(s.likes, s.dislikes)
}

// itemCache holds the cached counts for all configured items in
// configuration order. The canonical copy lives in the document store;
// this cache is refreshed by live sync and mutated optimistically by
// the coordinator.
type itemCache struct {
	items map[string]*itemState
	order []string
}

func newItemCache() *itemCache {
	return &itemCache{items: make(map[string]*itemState)}
}

// ensureItem makes sure the backing document for cfg exists, creating
// it with the configured defaults when absent, and caches its counts.
// A failure is returned so the caller can skip the item instead of
// aborting initialization.
func (c *itemCache) ensureItem(ctx context.Context, store ports.DocumentStore, cfg domain.ItemConfig, position int) error {
	counts, err := ensureItemDoc(ctx, store, cfg)
	if err != nil {
		return err
	}

	st := &itemState{
		id:       cfg.ID,
		likes:    counts.Likes,
		dislikes: counts.Dislikes,
		position: position,
	}
	st.recompute()
	c.items[cfg.ID] = st
	c.order = append(c.order, cfg.ID)
	return nil
}

func ensureItemDoc(ctx context.Context, store ports.DocumentStore, cfg domain.ItemConfig) (domain.ItemCounts, error) {
	data, ok, err := store.Get(ctx, ports.CollectionItems, cfg.ID)
	if err != nil {
		return domain.ItemCounts{}, fmt.Errorf("failed to fetch item %s: %w", cfg.ID, err)
	}
	if ok {
		return countsFromDocument(data), nil
	}

	defaults := domain.ItemCounts{Likes: cfg.InitialLikes, Dislikes: cfg.InitialDislikes}
	if err := store.Set(ctx, ports.CollectionItems, cfg.ID, documentFromCounts(defaults)); err != nil {
		return domain.ItemCounts{}, fmt.Errorf("failed to create item %s: %w", cfg.ID, err)
	}
	slog.Info("created item document", "item_id", cfg.ID)
	return defaults, nil
}

func (c *itemCache) get(itemID string) *itemState {
	return c.items[itemID]
}

// applyRemote overwrites the cached counts with authoritative values.
// Returns false when the counts already match, making the confirmation
// of a successful vote a no-op.
func (c *itemCache) applyRemote(itemID string, counts domain.ItemCounts) bool {
	st := c.items[itemID]
	if st == nil {
		return false
	}
	if st.likes == counts.Likes && st.dislikes == counts.Dislikes {
		return false
	}
	st.likes = counts.Likes
	st.dislikes = counts.Dislikes
	st.recompute()
	return true
}

func (c *itemCache) clear() {
	c.items = make(map[string]*itemState)
	c.order = nil
}

// countsFromDocument reads the counters of an item document, tolerating
// the numeric types a JSON round trip may produce.
func countsFromDocument(data ports.Document) domain.ItemCounts {
	return domain.ItemCounts{
		Likes:    intField(data, "likes"),
		Dislikes: intField(data, "dislikes"),
	}
}

func documentFromCounts(counts domain.ItemCounts) ports.Document {
	return ports.Document{"likes": counts.Likes, "dislikes": counts.Dislikes}
}

func intField(data ports.Document, key string) int {
	switch v := data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
