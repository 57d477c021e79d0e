// internal/game/score.go
//
// Per-guess scoring on the familiar 0..5000 scale. The curve is
// score = 5000 * exp(-10 * d / maxError), with a small full-score radius so
// near-perfect guesses are not cheated out of the 5000 by rounding.

package game

import "math"

const (
	maxScore = 5000

	// minFullScoreRadiusM keeps the full-score radius from collapsing on
	// tightly scaled maps.
	minFullScoreRadiusM = 25.0
)

// FullScoreRadiusM returns the distance inside which a guess still scores
// the full 5000 points for the given map scale.
func FullScoreRadiusM(maxErrorM float64) float64 {
	if maxErrorM <= 0 {
		return 0
	}
	// solve 5000*exp(-10r/maxError) >= 4999.5 for r
	r := math.Log(float64(maxScore)/(maxScore-0.5)) * maxErrorM / 10.0
	if r < minFullScoreRadiusM {
		r = minFullScoreRadiusM
	}
	return r
}

// Score maps a guess distance in meters to points in [0, 5000].
func Score(distM, maxErrorM float64) int {
	if maxErrorM <= 0 {
		return 0
	}
	if distM <= FullScoreRadiusM(maxErrorM) {
		return maxScore
	}
	raw := float64(maxScore) * math.Exp(-10.0*distM/maxErrorM)
	s := int(math.Round(raw))
	if s < 0 {
		return 0
	}
	if s > maxScore {
		return maxScore
	}
	return s
}
