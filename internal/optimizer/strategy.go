package optimizer

import (
	"math"

	"rugby-coach/internal/shared"
)

// Strategy weights (alpha). A higher alpha penalizes tired players harder.
const (
	Offensive = 0.0 // trailing by more than the margin
	Balanced  = 1.0
	Defensive = 2.0 // leading by more than the margin

	scoreMargin = 2.0
)

// StrategyWeight picks alpha from the scoreboard.
func StrategyWeight(homeScore, awayScore float64) float64 {
	diff := homeScore - awayScore
	switch {
	case diff < -scoreMargin:
		return Offensive
	case diff <= scoreMargin:
		return Balanced
	default:
		return Defensive
	}
}

// AdjustedScore scales a value score by fatigue. Positive scores shrink as
// the player tires; negative scores grow more negative.
func AdjustedScore(value, t, alpha float64) float64 {
	if alpha <= 0 {
		return value
	}
	t = math.Max(shared.MinMultiplier, math.Min(shared.MaxMultiplier, t))
	if value >= 0 {
		return value * math.Pow(t, alpha)
	}
	return value * math.Pow(1.0/math.Max(t, 1e-6), alpha)
}
