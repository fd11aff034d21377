package shared

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestValidRating(t *testing.T) {
	tests := []struct {
		r    Rating
		want bool
	}{
		{0, true},
		{0.5, true},
		{3.5, true},
		{2.0, true},
		{0.25, false},
		{-0.5, false},
		{4.0, false},
	}
	for _, tt := range tests {
		if got := ValidRating(tt.r); got != tt.want {
			t.Errorf("ValidRating(%v) = %v, want %v", tt.r, got, tt.want)
		}
	}
	if got := Rating(1.5).Class(); got != "1.5" {
		t.Errorf("Class() = %q, want 1.5", got)
	}
	if got := Rating(1.2).Class(); got != "" {
		t.Errorf("Class() = %q for invalid rating", got)
	}
}

func TestCountryOf(t *testing.T) {
	tests := map[string]string{
		"CAN_P1":   "CAN",
		"USA_A_07": "USA",
		"solo":     "solo",
		"":         "",
	}
	for id, want := range tests {
		if got := CountryOf(id); got != want {
			t.Errorf("CountryOf(%q) = %q, want %q", id, got, want)
		}
	}
}

func TestRosterQueries(t *testing.T) {
	r := NewRoster([]Player{
		NewPlayer("USA_1", 3.0),
		NewPlayer("CAN_1", 0.5),
		NewPlayer("USA_2", 1.0),
	})
	if diff := cmp.Diff([]string{"CAN", "USA"}, r.Countries()); diff != "" {
		t.Errorf("Countries() mismatch (-want +got):\n%s", diff)
	}
	team := r.ByCountry("USA")
	if len(team) != 2 || team[0].ID != "USA_1" || team[1].ID != "USA_2" {
		t.Errorf("ByCountry(USA) = %+v", team)
	}
	if _, ok := r.Find("CAN_1"); !ok {
		t.Error("Find(CAN_1) not found")
	}
	if _, ok := r.Find("GBR_1"); ok {
		t.Error("Find(GBR_1) unexpectedly found")
	}
	if got := SumRatings(team); got != 4.0 {
		t.Errorf("SumRatings = %v, want 4", got)
	}
}

func TestStintTeamMatching(t *testing.T) {
	s := Stint{HomeTeam: "Canada", AwayTeam: "Great Britain", HomeGoals: 3, AwayGoals: 1}
	if s.GoalDiff() != 2 {
		t.Errorf("GoalDiff = %d", s.GoalDiff())
	}
	if !s.InvolvesTeam("great britain", false) {
		t.Error("expected exact normalized match")
	}
	if s.InvolvesTeam("britain", false) {
		t.Error("exact match should not accept a substring")
	}
	if !s.InvolvesTeam("britain", true) {
		t.Error("partial match should accept a substring")
	}
}

func TestMultiplierConversion(t *testing.T) {
	if got := LevelToMultiplier(100); !approx(got, 1.0) {
		t.Errorf("LevelToMultiplier(100) = %v", got)
	}
	if got := LevelToMultiplier(0); !approx(got, 0.3) {
		t.Errorf("LevelToMultiplier(0) = %v", got)
	}
	if got := LevelToMultiplier(150); !approx(got, 1.0) {
		t.Errorf("LevelToMultiplier(150) = %v, want clamped 1.0", got)
	}
	if got := MultiplierToLevel(0.65); !approx(got, 50) {
		t.Errorf("MultiplierToLevel(0.65) = %v", got)
	}
	for _, level := range []float64{0, 12.5, 50, 99} {
		if got := MultiplierToLevel(LevelToMultiplier(level)); !approx(got, level) {
			t.Errorf("round trip of %v = %v", level, got)
		}
	}
}

func TestUpdateMultiplier(t *testing.T) {
	tests := []struct {
		name    string
		t       float64
		minutes float64
		onCourt bool
		want    float64
	}{
		{"court five minutes", 1.0, 5, true, 0.9},
		{"bench five minutes", 0.8, 5, false, 0.85},
		{"bench capped", 0.99, 10, false, 1.0},
		{"court floored", 0.4, 30, true, 0.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UpdateMultiplier(tt.t, tt.minutes, tt.onCourt); !approx(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUpdateLevels(t *testing.T) {
	levels := map[string]float64{"A": 100, "B": 100, "C": 50}
	got := UpdateLevels(levels, []string{"A"}, 300)

	if !approx(got["A"], 0.6/0.7*100) {
		t.Errorf("A = %v", got["A"])
	}
	if !approx(got["B"], 100) {
		t.Errorf("B = %v, want to stay fresh", got["B"])
	}
	// 50 -> t 0.65 -> +0.05 -> 0.70
	if !approx(got["C"], (0.7-0.3)/0.7*100) {
		t.Errorf("C = %v", got["C"])
	}
	if levels["A"] != 100 {
		t.Error("input map was modified")
	}
}
