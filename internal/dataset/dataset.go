// Package dataset loads the player and stint CSV exports and derives the
// per-player value scores the lineup optimizer works with.
package dataset

import (
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/sync/errgroup"

	"rugby-coach/internal/shared"
)

const (
	PlayersFile = "player_data.csv"
	StintsFile  = "stint_data.csv"

	// Value scores are rescaled so the largest magnitude equals this.
	valueScale = 10.0
)

// Dataset is the loaded, scored data the coach server works from.
type Dataset struct {
	Players *shared.Roster
	Stints  []shared.Stint
}

// Load reads both CSV files from dir and computes value scores.
func Load(dir string) (*Dataset, error) {
	var (
		players []shared.Player
		stints  []shared.Stint
		g       errgroup.Group
	)
	g.Go(func() error {
		f, err := os.Open(filepath.Join(dir, PlayersFile))
		if err != nil {
			return errors.Wrap(err, "cannot open player data")
		}
		defer f.Close()
		players, err = LoadPlayers(f)
		return err
	})
	g.Go(func() error {
		f, err := os.Open(filepath.Join(dir, StintsFile))
		if err != nil {
			return errors.Wrap(err, "cannot open stint data")
		}
		defer f.Close()
		stints, err = LoadStints(f)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return New(players, stints), nil
}

// New builds a dataset from already parsed rows.
func New(players []shared.Player, stints []shared.Stint) *Dataset {
	return &Dataset{
		Players: shared.NewRoster(ComputeValueScores(players, stints)),
		Stints:  stints,
	}
}

// ComputeValueScores returns a copy of players with ValueScore set to the
// goal differential per minute on court, rescaled to [-10, 10]. Stints with
// no playing time are ignored. Players without stints score 0.
func ComputeValueScores(players []shared.Player, stints []shared.Stint) []shared.Player {
	totalDiff := make(map[string]float64)
	totalMinutes := make(map[string]float64)
	for _, s := range stints {
		if s.Minutes <= 0 {
			continue
		}
		diff := float64(s.GoalDiff())
		for i := 0; i < shared.LineupSize; i++ {
			totalDiff[s.Home[i]] += diff
			totalMinutes[s.Home[i]] += s.Minutes
			totalDiff[s.Away[i]] -= diff
			totalMinutes[s.Away[i]] += s.Minutes
		}
	}

	out := make([]shared.Player, len(players))
	maxAbs := 0.0
	for i, p := range players {
		p.ValueScore = 0
		if minutes := totalMinutes[p.ID]; minutes > 0 {
			p.ValueScore = totalDiff[p.ID] / minutes
		}
		maxAbs = math.Max(maxAbs, math.Abs(p.ValueScore))
		out[i] = p
	}
	if maxAbs > 0 {
		for i := range out {
			out[i].ValueScore = out[i].ValueScore / maxAbs * valueScale
		}
	}
	return out
}

// GameIDs returns the distinct game ids in ascending order.
func (d *Dataset) GameIDs() []int {
	seen := make(map[int]struct{})
	for _, s := range d.Stints {
		seen[s.GameID] = struct{}{}
	}
	ids := maps.Keys(seen)
	sort.Ints(ids)
	return ids
}

// HasGame reports whether any stint belongs to the game.
func (d *Dataset) HasGame(gameID int) bool {
	for _, s := range d.Stints {
		if s.GameID == gameID {
			return true
		}
	}
	return false
}

// StintHistory returns the stints of one game the country took part in.
// Team labels are compared normalized. When nothing matches exactly,
// labels containing the country are accepted, which covers country codes
// recorded next to full team names.
func (d *Dataset) StintHistory(gameID int, country string) []shared.Stint {
	var game []shared.Stint
	for _, s := range d.Stints {
		if s.GameID == gameID {
			game = append(game, s)
		}
	}

	history := filterTeam(game, country, false)
	if len(history) == 0 {
		history = filterTeam(game, country, true)
	}
	return history
}

func filterTeam(stints []shared.Stint, country string, partial bool) []shared.Stint {
	var out []shared.Stint
	for _, s := range stints {
		if s.InvolvesTeam(country, partial) {
			out = append(out, s)
		}
	}
	return out
}
