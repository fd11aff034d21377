package shared

import "strings"

// LineupSize is the number of players each side has on court.
const LineupSize = 4

// Stint is a segment of game time with a fixed set of players on court.
type Stint struct {
	GameID    int                `json:"game_id"`
	HomeTeam  string             `json:"h_team"`
	AwayTeam  string             `json:"a_team"`
	Minutes   float64            `json:"minutes"`
	HomeGoals int                `json:"h_goals"`
	AwayGoals int                `json:"a_goals"`
	Home      [LineupSize]string `json:"home"`
	Away      [LineupSize]string `json:"away"`
}

// GoalDiff returns the goal differential from the home side's perspective.
func (s Stint) GoalDiff() int {
	return s.HomeGoals - s.AwayGoals
}

// InvolvesTeam reports whether either side's normalized label equals the
// normalized team name. With partial set, containment is enough.
func (s Stint) InvolvesTeam(team string, partial bool) bool {
	want := NormalizeTeam(team)
	home, away := NormalizeTeam(s.HomeTeam), NormalizeTeam(s.AwayTeam)
	if partial {
		return strings.Contains(home, want) || strings.Contains(away, want)
	}
	return home == want || away == want
}

// NormalizeTeam lower-cases a team label and strips spaces.
func NormalizeTeam(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "")
}
