package shared

import (
	"math"
	"strconv"
)

// Rating is a player's disability classification. Lower ratings mean a
// higher degree of impairment.
type Rating float64

const (
	MinRating  Rating = 0.0
	MaxRating  Rating = 3.5
	RatingStep Rating = 0.5
)

// ValidRating reports whether r is within [0, 3.5] and a multiple of 0.5.
func ValidRating(r Rating) bool {
	if r < MinRating || r > MaxRating {
		return false
	}
	steps := float64(r / RatingStep)
	return math.Abs(steps-math.Round(steps)) < 1e-9
}

// Class returns the printable classification, or "" for an invalid rating.
func (r Rating) Class() string {
	if !ValidRating(r) {
		return ""
	}
	return strconv.FormatFloat(math.Round(float64(r/RatingStep))*float64(RatingStep), 'f', 1, 64)
}

// SumRatings adds up the ratings of the given players.
func SumRatings(players []Player) Rating {
	var total Rating
	for _, p := range players {
		total += p.Rating
	}
	return total
}
