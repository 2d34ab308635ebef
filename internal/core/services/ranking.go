package services

import (
	"sort"

	"github.com/maroltinger/votebox/internal/core/domain"
	"github.com/maroltinger/votebox/internal/core/scoring"
)

// rankItems derives the display order from the cached scores: primary
// key descending unclamped score, ties broken by ascending configuration
// position. The tie-break never depends on arrival order.
func rankItems(cache *itemCache, l *ledger) []domain.RankedItem {
	ranked := make([]domain.RankedItem, 0, len(cache.order))
	for _, id := range cache.order {
		st := cache.items[id]
		if st == nil {
			continue
		}
		ranked = append(ranked, domain.RankedItem{
			ID:           st.id,
			Likes:        st.likes,
			Dislikes:     st.dislikes,
			Score:        st.score,
			DisplayScore: scoring.DisplayScore(st.score),
			UserVote:     l.Current(st.id),
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return cache.items[ranked[i].ID].position < cache.items[ranked[j].ID].position
	})
	return ranked
}
