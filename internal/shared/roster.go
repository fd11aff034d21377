package shared

import (
	"sort"

	"golang.org/x/exp/maps"
)

// Roster is an ordered collection of players.
type Roster struct {
	Players []Player
}

// NewRoster creates a roster preserving the given order.
func NewRoster(players []Player) *Roster {
	cp := make([]Player, len(players))
	copy(cp, players)
	return &Roster{Players: cp}
}

// Countries returns the sorted list of distinct countries on the roster.
func (r *Roster) Countries() []string {
	seen := make(map[string]struct{})
	for _, p := range r.Players {
		seen[p.Country] = struct{}{}
	}
	countries := maps.Keys(seen)
	sort.Strings(countries)
	return countries
}

// ByCountry returns the players of one country in roster order.
func (r *Roster) ByCountry(country string) []Player {
	var team []Player
	for _, p := range r.Players {
		if p.Country == country {
			team = append(team, p)
		}
	}
	return team
}

// Find looks a player up by ID.
func (r *Roster) Find(id string) (Player, bool) {
	for _, p := range r.Players {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}

// IDs returns all player IDs in roster order.
func (r *Roster) IDs() []string {
	ids := make([]string, len(r.Players))
	for i, p := range r.Players {
		ids[i] = p.ID
	}
	return ids
}

// Len returns the number of players.
func (r *Roster) Len() int {
	return len(r.Players)
}
