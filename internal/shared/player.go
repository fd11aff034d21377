package shared

import "strings"

// Player represents a rostered wheelchair rugby player.
type Player struct {
	ID         string  `json:"player_id"`        // Unique identifier, e.g. "CAN_P3"
	Country    string  `json:"country"`          // Derived from the ID prefix
	Rating     Rating  `json:"disability_score"` // Disability classification
	ValueScore float64 `json:"value_score"`      // Goal differential per minute, scaled to [-10, 10]
}

// NewPlayer creates a player and derives its country from the ID.
func NewPlayer(id string, rating Rating) Player {
	return Player{
		ID:      id,
		Country: CountryOf(id),
		Rating:  rating,
	}
}

// CountryOf returns the part of a player ID before the first underscore.
func CountryOf(id string) string {
	country, _, _ := strings.Cut(id, "_")
	return country
}
