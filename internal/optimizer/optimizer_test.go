package optimizer

import (
	"context"
	"io"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"

	"rugby-coach/internal/shared"
)

func testOptimizer() *LineupOptimizer {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return New(logrus.NewEntry(l))
}

func player(id string, value float64, rating shared.Rating) shared.Player {
	p := shared.NewPlayer(id, rating)
	p.ValueScore = value
	return p
}

// Unconstrained the top four by value (A B C D) would rate 9.0, over the cap.
func testTeam() []shared.Player {
	return []shared.Player{
		player("CAN_A", 10, 3.0),
		player("CAN_B", 8, 3.0),
		player("CAN_C", 6, 2.0),
		player("CAN_D", 4, 1.0),
		player("CAN_E", 2, 0.5),
		player("CAN_F", -3, 0.5),
	}
}

func TestStrategyWeight(t *testing.T) {
	tests := []struct {
		home, away float64
		want       float64
	}{
		{0, 0, Balanced},
		{10, 12, Balanced},
		{12, 10, Balanced},
		{10, 13, Offensive},
		{13, 10, Defensive},
		{2.5, 0, Defensive},
	}
	for _, tt := range tests {
		if got := StrategyWeight(tt.home, tt.away); got != tt.want {
			t.Errorf("StrategyWeight(%v, %v) = %v, want %v", tt.home, tt.away, got, tt.want)
		}
	}
}

func TestAdjustedScore(t *testing.T) {
	tests := []struct {
		name            string
		value, t, alpha float64
		want            float64
	}{
		{"offense ignores fatigue", 5, 0.3, 0, 5},
		{"positive balanced", 5, 0.5, 1, 2.5},
		{"positive defensive", 5, 0.5, 2, 1.25},
		{"negative grows", -3, 0.3, 1, -10},
		{"multiplier clamped", 4, 0.1, 1, 1.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AdjustedScore(tt.value, tt.t, tt.alpha); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOptimize(t *testing.T) {
	tests := []struct {
		name       string
		req        Request
		wantStatus Status
		wantLineup []string
		wantObj    float64
	}{
		{
			name:       "fresh team respects cap",
			req:        Request{},
			wantStatus: StatusOptimal,
			wantLineup: []string{"CAN_A", "CAN_B", "CAN_D", "CAN_E"},
			wantObj:    24,
		},
		{
			name:       "tired player benched",
			req:        Request{Fatigue: map[string]float64{"CAN_B": 0}},
			wantStatus: StatusOptimal,
			wantLineup: []string{"CAN_A", "CAN_C", "CAN_D", "CAN_E"},
			wantObj:    22,
		},
		{
			name:       "trailing ignores fatigue",
			req:        Request{Fatigue: map[string]float64{"CAN_B": 0}, HomeScore: 0, AwayScore: 5},
			wantStatus: StatusOptimal,
			wantLineup: []string{"CAN_A", "CAN_B", "CAN_D", "CAN_E"},
			wantObj:    24,
		},
		{
			name:       "unavailable player skipped",
			req:        Request{Availability: map[string]bool{"CAN_B": false, "CAN_A": true}},
			wantStatus: StatusOptimal,
			wantLineup: []string{"CAN_A", "CAN_C", "CAN_D", "CAN_E"},
			wantObj:    22,
		},
		{
			name:       "preselected player forced in",
			req:        Request{Preselected: []string{"CAN_F"}},
			wantStatus: StatusOptimal,
			wantLineup: []string{"CAN_A", "CAN_B", "CAN_D", "CAN_F"},
			wantObj:    19,
		},
		{
			name: "insufficient players",
			req: Request{Availability: map[string]bool{
				"CAN_A": false, "CAN_B": false, "CAN_C": false,
			}},
			wantStatus: StatusInsufficientPlayers,
			wantLineup: []string{},
		},
		{
			name: "preselected player unavailable",
			req: Request{
				Availability: map[string]bool{"CAN_B": false},
				Preselected:  []string{"CAN_B"},
			},
			wantStatus: StatusPreselectedUnavailable,
			wantLineup: []string{},
		},
		{
			name:       "preselected player unknown",
			req:        Request{Preselected: []string{"USA_Z"}},
			wantStatus: StatusPreselectedUnavailable,
			wantLineup: []string{},
		},
		{
			name:       "cap too tight",
			req:        Request{DisabilityCap: 2},
			wantStatus: StatusInfeasible,
			wantLineup: []string{},
		},
		{
			name:       "too many preselected",
			req:        Request{Preselected: []string{"CAN_B", "CAN_C", "CAN_D", "CAN_E", "CAN_F"}, DisabilityCap: 20},
			wantStatus: StatusInfeasible,
			wantLineup: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			req.Team = testTeam()
			res, err := testOptimizer().Optimize(context.Background(), req)
			if err != nil {
				t.Fatalf("Optimize: %v", err)
			}
			if res.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", res.Status, tt.wantStatus)
			}
			if diff := cmp.Diff(tt.wantLineup, res.Lineup); diff != "" {
				t.Errorf("lineup mismatch (-want +got):\n%s", diff)
			}
			if math.Abs(res.Objective-tt.wantObj) > 1e-9 {
				t.Errorf("objective = %v, want %v", res.Objective, tt.wantObj)
			}
			if res.Feasible() && res.DisabilitySum > DefaultDisabilityCap {
				t.Errorf("disability sum %v over cap", res.DisabilitySum)
			}
		})
	}
}

func TestOptimizeBreakdown(t *testing.T) {
	res, err := testOptimizer().Optimize(context.Background(), Request{
		Team:        testTeam(),
		Fatigue:     map[string]float64{"CAN_A": 50},
		Preselected: []string{"CAN_F"},
	})
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if len(res.Breakdown) != len(res.Lineup) {
		t.Fatalf("breakdown has %d entries for %d players", len(res.Breakdown), len(res.Lineup))
	}
	var total, rating float64
	for i, b := range res.Breakdown {
		if b.PlayerID != res.Lineup[i] {
			t.Errorf("breakdown %d is %s, lineup has %s", i, b.PlayerID, res.Lineup[i])
		}
		if b.Preselected != (b.PlayerID == "CAN_F") {
			t.Errorf("%s preselected = %v", b.PlayerID, b.Preselected)
		}
		total += b.AdjustedScore
		rating += b.Rating
	}
	if math.Abs(total-res.Objective) > 1e-9 {
		t.Errorf("breakdown sums to %v, objective %v", total, res.Objective)
	}
	if rating != res.DisabilitySum {
		t.Errorf("breakdown ratings %v, disability sum %v", rating, res.DisabilitySum)
	}
	if res.Breakdown[0].PlayerID == "CAN_A" && math.Abs(res.Breakdown[0].Multiplier-0.65) > 1e-9 {
		t.Errorf("CAN_A t_j = %v, want 0.65", res.Breakdown[0].Multiplier)
	}
}

func TestOptimizeTieTakesRosterOrder(t *testing.T) {
	team := []shared.Player{
		player("X_1", 1, 1), player("X_2", 1, 1), player("X_3", 1, 1),
		player("X_4", 1, 1), player("X_5", 1, 1),
	}
	res, err := testOptimizer().Optimize(context.Background(), Request{Team: team})
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if diff := cmp.Diff([]string{"X_1", "X_2", "X_3", "X_4"}, res.Lineup); diff != "" {
		t.Errorf("lineup mismatch (-want +got):\n%s", diff)
	}
}

func TestEffectiveCap(t *testing.T) {
	tests := map[float64]float64{0: DefaultDisabilityCap, 6.5: 6.5, 8: 8}
	for in, want := range tests {
		if got := EffectiveCap(in); got != want {
			t.Errorf("EffectiveCap(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestOptimizeErrors(t *testing.T) {
	o := testOptimizer()

	if _, err := o.Optimize(context.Background(), Request{Team: testTeam(), LineupSize: -1}); err == nil {
		t.Error("expected an error for a negative lineup size")
	}
	if _, err := o.Optimize(context.Background(), Request{Team: testTeam(), DisabilityCap: -1}); err == nil {
		t.Error("expected an error for a negative cap")
	}
	dup := append(testTeam(), player("CAN_A", 1, 1))
	if _, err := o.Optimize(context.Background(), Request{Team: dup}); err == nil {
		t.Error("expected an error for duplicate players")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := o.Optimize(ctx, Request{Team: testTeam()}); err == nil {
		t.Error("expected an error for a cancelled context")
	}
}
