package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRawVoteScore(t *testing.T) {
	tests := []struct {
		name  string
		count int
		want  float64
	}{
		{"no votes", 0, 0},
		{"negative count treated as zero", -3, 0},
		{"single vote", 1, 0.1},
		{"full first bracket", 10, 1.0},
		{"second bracket starts", 11, 1.05},
		{"second bracket full", 20, 1.5},
		{"third bracket full", 30, 1.75},
		{"fourth bracket full", 50, 1.95},
		{"beyond the table", 52, 1.96},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, RawVoteScore(tt.count), 1e-9)
		})
	}
}

func TestRawVoteScoreMonotone(t *testing.T) {
	prev := RawVoteScore(0)
	prevIncrement := RawVoteScore(1) - RawVoteScore(0)
	for n := 1; n <= 120; n++ {
		cur := RawVoteScore(n)
		increment := cur - prev
		assert.GreaterOrEqual(t, cur, prev, "score must not decrease at n=%d", n)
		assert.LessOrEqual(t, increment, prevIncrement+1e-9, "marginal weight must not grow at n=%d", n)
		prev = cur
		prevIncrement = increment
	}
}

func TestScore(t *testing.T) {
	assert.InDelta(t, 5.0, Score(0, 0), 1e-9)
	assert.InDelta(t, 5.1, Score(1, 0), 1e-9)
	assert.InDelta(t, 4.9, Score(0, 1), 1e-9)
	assert.InDelta(t, 6.05, Score(11, 0), 1e-9)
	assert.InDelta(t, 5.0, Score(7, 7), 1e-9)
}

func TestScoreSymmetry(t *testing.T) {
	// Swapping likes and dislikes mirrors the score around the neutral 5.
	pairs := [][2]int{{0, 0}, {1, 0}, {3, 12}, {25, 60}, {100, 1}}
	for _, p := range pairs {
		sum := Score(p[0], p[1]) + Score(p[1], p[0])
		assert.InDelta(t, 10.0, sum, 1e-9, "likes=%d dislikes=%d", p[0], p[1])
	}
}

func TestDisplayScore(t *testing.T) {
	assert.Equal(t, 0.0, DisplayScore(-2.4))
	assert.Equal(t, 10.0, DisplayScore(11.7))
	assert.Equal(t, 6.05, DisplayScore(6.05))
}
