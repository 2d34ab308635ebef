// Package scoring computes item scores from like/dislike counts.
//
// Every vote on an item contributes a weight that diminishes with the
// vote's 1-based position, so the Nth vote matters less as N grows.
// Scores start from a neutral 5 and are clamped to [0, 10] for display
// only; ordering uses the unclamped value.
package scoring

const (
	// Neutral is the score of an item with no votes.
	Neutral = 5.0

	// MinDisplay and MaxDisplay bound the displayed score.
	MinDisplay = 0.0
	MaxDisplay = 10.0
)

// voteWeight returns the weight of the i-th vote (1-based) on one side
// of an item.
func voteWeight(i int) float64 {
	switch {
	case i <= 0:
		return 0
	case i <= 10:
		return 0.1
	case i <= 20:
		return 0.05
	case i <= 30:
		return 0.025
	case i <= 50:
		return 0.01
	default:
		return 0.005
	}
}

// RawVoteScore sums the diminishing per-vote weights for n votes on one
// side. Negative counts are treated as zero.
func RawVoteScore(n int) float64 {
	score := 0.0
	for i := 1; i <= n; i++ {
		score += voteWeight(i)
	}
	return score
}

// Score derives the internal (unclamped) score of an item from its
// counts. Malformed negative counts are clamped to zero first.
func Score(likes, dislikes int) float64 {
	if likes < 0 {
		likes = 0
	}
	if dislikes < 0 {
		dislikes = 0
	}
	return Neutral + RawVoteScore(likes) - RawVoteScore(dislikes)
}

// DisplayScore clamps an internal score to the displayable range.
func DisplayScore(score float64) float64 {
	if score < MinDisplay {
		return MinDisplay
	}
	if score > MaxDisplay {
		return MaxDisplay
	}
	return score
}
