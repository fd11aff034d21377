package dataset

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"rugby-coach/internal/shared"
)

const playersCSV = `player,rating
CAN_1,3.0
CAN_2,1.0
USA_1,2.0
USA_2,0.5
GBR_1,1.5
`

const stintsCSV = `game_id,h_team,a_team,minutes,h_goals,a_goals,home1,home2,home3,home4,away1,away2,away3,away4
1,Canada,USA,4.0,2,1,CAN_1,CAN_2,CAN_3,CAN_4,USA_1,USA_2,USA_3,USA_4
1,Canada,USA,2.0,0,2,CAN_1,CAN_5,CAN_3,CAN_4,USA_1,USA_5,USA_3,USA_4
2,USA,Canada,0,5,0,USA_1,USA_2,USA_3,USA_4,CAN_1,CAN_2,CAN_3,CAN_4
3,Great Britain,USA,3.0,1.0,1.0,GBR_1,GBR_2,GBR_3,GBR_4,USA_1,USA_2,USA_3,USA_4
`

func TestLoadPlayers(t *testing.T) {
	players, err := LoadPlayers(strings.NewReader(playersCSV))
	if err != nil {
		t.Fatalf("LoadPlayers: %v", err)
	}
	if len(players) != 5 {
		t.Fatalf("got %d players, want 5", len(players))
	}
	want := shared.Player{ID: "USA_2", Country: "USA", Rating: 0.5}
	if diff := cmp.Diff(want, players[3]); diff != "" {
		t.Errorf("player mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadPlayersColumnOrder(t *testing.T) {
	players, err := LoadPlayers(strings.NewReader("rating,team,player\n2.5,x,AUS_9\n"))
	if err != nil {
		t.Fatalf("LoadPlayers: %v", err)
	}
	if players[0].ID != "AUS_9" || players[0].Rating != 2.5 {
		t.Errorf("got %+v", players[0])
	}
}

func TestLoadPlayersErrors(t *testing.T) {
	tests := map[string]string{
		"empty":          "",
		"missing column": "player\nCAN_1\n",
		"bad rating":     "player,rating\nCAN_1,high\n",
		"empty id":       "player,rating\n,1.0\n",
		"above range":    "player,rating\nCAN_1,7.25\n",
		"negative":       "player,rating\nCAN_1,-2\n",
		"off step":       "player,rating\nCAN_1,1.25\n",
		"duplicate id":   "player,rating\nCAN_1,1.0\nCAN_1,2.0\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadPlayers(strings.NewReader(input)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoadStints(t *testing.T) {
	stints, err := LoadStints(strings.NewReader(stintsCSV))
	if err != nil {
		t.Fatalf("LoadStints: %v", err)
	}
	if len(stints) != 4 {
		t.Fatalf("got %d stints", len(stints))
	}
	s := stints[3]
	if s.GameID != 3 || s.HomeTeam != "Great Britain" || s.HomeGoals != 1 || s.Away[3] != "USA_4" {
		t.Errorf("unexpected stint %+v", s)
	}
}

func TestLoadStintsBadNumbers(t *testing.T) {
	tests := map[string][2]string{
		"word minutes":       {",4.0,", ",four,"},
		"NaN minutes":        {",4.0,", ",NaN,"},
		"infinite minutes":   {",4.0,", ",+Inf,"},
		"fractional goals":   {",3.0,1.0,1.0,", ",3.0,1.7,1.0,"},
		"fractional game id": {"3,Great Britain", "3.5,Great Britain"},
	}
	for name, repl := range tests {
		t.Run(name, func(t *testing.T) {
			input := strings.Replace(stintsCSV, repl[0], repl[1], 1)
			if input == stintsCSV {
				t.Fatalf("fixture has no %q", repl[0])
			}
			if _, err := LoadStints(strings.NewReader(input)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestComputeValueScores(t *testing.T) {
	players, _ := LoadPlayers(strings.NewReader(playersCSV))
	stints, _ := LoadStints(strings.NewReader(stintsCSV))
	scored := ComputeValueScores(players, stints)

	// Raw per-minute values:
	//   CAN_1: (+1 -2) / 6 = -1/6
	//   CAN_2: +1 / 4      =  1/4
	//   USA_1: (-1 +2 +0) / 9 = 1/9
	//   USA_2: (-1 +0) / 7 = -1/7
	//   GBR_1: 0 / 3 = 0
	top := 0.25
	want := map[string]float64{
		"CAN_1": -1.0 / 6 / top * 10,
		"CAN_2": 10,
		"USA_1": 1.0 / 9 / top * 10,
		"USA_2": -1.0 / 7 / top * 10,
		"GBR_1": 0,
	}
	for _, p := range scored {
		if math.Abs(p.ValueScore-want[p.ID]) > 1e-9 {
			t.Errorf("%s value = %v, want %v", p.ID, p.ValueScore, want[p.ID])
		}
	}
	if players[1].ValueScore != 0 {
		t.Error("input players were modified")
	}
}

func TestComputeValueScoresNoStints(t *testing.T) {
	scored := ComputeValueScores([]shared.Player{shared.NewPlayer("CAN_1", 1)}, nil)
	if scored[0].ValueScore != 0 {
		t.Errorf("value = %v, want 0", scored[0].ValueScore)
	}
}

func TestGameIDsAndHistory(t *testing.T) {
	players, _ := LoadPlayers(strings.NewReader(playersCSV))
	stints, _ := LoadStints(strings.NewReader(stintsCSV))
	d := New(players, stints)

	if diff := cmp.Diff([]int{1, 2, 3}, d.GameIDs()); diff != "" {
		t.Errorf("GameIDs mismatch (-want +got):\n%s", diff)
	}
	if !d.HasGame(2) || d.HasGame(9) {
		t.Error("HasGame reported wrong membership")
	}
	if got := d.StintHistory(1, "canada"); len(got) != 2 {
		t.Errorf("history(1, canada) = %d stints, want 2", len(got))
	}
	if got := d.StintHistory(3, "Britain"); len(got) != 1 {
		t.Errorf("substring fallback returned %d stints, want 1", len(got))
	}
	if got := d.StintHistory(3, "Canada"); len(got) != 0 {
		t.Errorf("history(3, Canada) = %d stints, want 0", len(got))
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, PlayersFile), []byte(playersCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, StintsFile), []byte(stintsCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	d, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if d.Players.Len() != 5 || len(d.Stints) != 4 {
		t.Errorf("loaded %d players, %d stints", d.Players.Len(), len(d.Stints))
	}
	if p, _ := d.Players.Find("CAN_2"); p.ValueScore != 10 {
		t.Errorf("CAN_2 value = %v, want 10", p.ValueScore)
	}

	if _, err := Load(t.TempDir()); err == nil {
		t.Error("expected an error for a directory without data")
	}
}
