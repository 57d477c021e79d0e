package game_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/robalobadob/hotspot/internal/game"
)

func TestScore(t *testing.T) {
	const maxErr = 50_000.0

	t.Run("perfect and near-perfect guesses score 5000", func(t *testing.T) {
		assert.Equal(t, 5000, game.Score(0, maxErr))
		assert.Equal(t, 5000, game.Score(24, maxErr))
	})

	t.Run("known points on the curve", func(t *testing.T) {
		// 5000 * exp(-10*d/maxErr)
		assert.Equal(t, 1839, game.Score(5_000, maxErr))  // e^-1
		assert.Equal(t, 677, game.Score(10_000, maxErr))  // e^-2
		assert.Equal(t, 0, game.Score(50_000, maxErr))    // e^-10 rounds away
	})

	t.Run("monotone decreasing", func(t *testing.T) {
		prev := 5001
		for _, d := range []float64{0, 100, 1_000, 5_000, 12_000, 30_000, 80_000} {
			s := game.Score(d, maxErr)
			assert.LessOrEqual(t, s, prev, "score rose at %vm", d)
			assert.GreaterOrEqual(t, s, 0)
			assert.LessOrEqual(t, s, 5000)
			prev = s
		}
	})

	t.Run("degenerate map scale scores zero", func(t *testing.T) {
		assert.Equal(t, 0, game.Score(100, 0))
		assert.Equal(t, 0, game.Score(100, -5))
	})
}

func TestFullScoreRadius(t *testing.T) {
	t.Run("never collapses below the floor", func(t *testing.T) {
		assert.Equal(t, 25.0, game.FullScoreRadiusM(1_000))
	})

	t.Run("scales with the map", func(t *testing.T) {
		small := game.FullScoreRadiusM(100_000)
		large := game.FullScoreRadiusM(10_000_000)
		assert.Greater(t, large, small)
	})

	t.Run("zero for degenerate scales", func(t *testing.T) {
		assert.Equal(t, 0.0, game.FullScoreRadiusM(0))
	})
}
