package domain

// ItemConfig is one entry of the fixed, ordered item configuration. The
// position of an entry in the configuration is the tie-break key for
// ranking and never changes at runtime.
type ItemConfig struct {
	ID              string `json:"id"`
	InitialLikes    int    `json:"initial_likes"`
	InitialDislikes int    `json:"initial_dislikes"`
}

// DefaultItems mirrors the predefined item set of the voting page.
var DefaultItems = []ItemConfig{
	{ID: "POT"},
	{ID: "MAI"},
	{ID: "BAU"},
}

// ItemCounts are the authoritative like/dislike counters of one item as
// persisted in its backing document. Counts are never negative.
type ItemCounts struct {
	Likes    int `json:"likes"`
	Dislikes int `json:"dislikes"`
}

// RankedItem is one row of the ranking view: cached counts, derived
// scores and the calling user's current vote on the item.
type RankedItem struct {
	ID           string   `json:"id"`
	Likes        int      `json:"likes"`
	Dislikes     int      `json:"dislikes"`
	Score        float64  `json:"score"`
	DisplayScore float64  `json:"display_score"`
	UserVote     VoteKind `json:"user_vote,omitempty"`
}
