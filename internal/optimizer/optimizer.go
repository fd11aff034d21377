// Package optimizer selects the lineup that maximizes the fatigue-adjusted
// value score under the disability cap.
//
// The selection is a 0/1 problem: x_j = 1 when player j is on court,
// sum(x) == size, sum(rating*x) <= cap, x_j = 1 for every preselected player.
// Team sizes are small (a dozen players gives 495 lineups of four), so the
// search enumerates every combination and is exact.
package optimizer

import (
	"context"

	"github.com/cannona/choose"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"rugby-coach/internal/shared"
)

const (
	DefaultDisabilityCap = 8.0

	// Cancellation is checked once per this many candidate lineups.
	cancelCheckInterval = 1024
	epsilon             = 1e-9
)

// Status describes how an optimization ended.
type Status string

const (
	StatusOptimal                Status = "optimal"
	StatusInsufficientPlayers    Status = "insufficient_players"
	StatusPreselectedUnavailable Status = "preselected_unavailable"
	StatusInfeasible             Status = "infeasible"
)

// Request carries everything one optimization needs.
type Request struct {
	Team          []shared.Player    `json:"team"`
	Availability  map[string]bool    `json:"availability"`   // Missing players count as available
	Fatigue       map[string]float64 `json:"fatigue_levels"` // Energy 0-100; missing players are fresh
	HomeScore     float64            `json:"home_score"`
	AwayScore     float64            `json:"away_score"`
	Preselected   []string           `json:"pre_selected"`
	DisabilityCap float64            `json:"disability_cap"` // 0 means DefaultDisabilityCap
	LineupSize    int                `json:"lineup_size"`    // 0 means shared.LineupSize
}

// Breakdown explains one selected player's contribution.
type Breakdown struct {
	PlayerID      string  `json:"player_id"`
	ValueScore    float64 `json:"value_score"`
	Multiplier    float64 `json:"t_j"`
	Alpha         float64 `json:"alpha"`
	AdjustedScore float64 `json:"adjusted_score"`
	Rating        float64 `json:"disability_score"`
	Preselected   bool    `json:"is_pre_selected"`
}

// Result is the optimizer's answer. Lineup is empty unless Status is optimal.
type Result struct {
	Status        Status      `json:"status"`
	Lineup        []string    `json:"lineup"`
	Objective     float64     `json:"objective"`
	DisabilitySum float64     `json:"disability_sum"`
	Alpha         float64     `json:"strategy_weight_alpha"`
	Breakdown     []Breakdown `json:"breakdown"`
}

// EffectiveCap returns the disability cap a request is solved with.
func EffectiveCap(limit float64) float64 {
	if limit == 0 {
		return DefaultDisabilityCap
	}
	return limit
}

// Feasible reports whether a lineup was found.
func (r Result) Feasible() bool {
	return r.Status == StatusOptimal && len(r.Lineup) > 0
}

// LineupOptimizer runs lineup optimizations.
type LineupOptimizer struct {
	log *logrus.Entry
}

// New creates an optimizer logging through log.
func New(log *logrus.Entry) *LineupOptimizer {
	return &LineupOptimizer{log: log.WithField("component", "optimizer")}
}

// candidate is an available player with the optimizer's working values.
type candidate struct {
	player      shared.Player
	t           float64
	adjusted    float64
	preselected bool
}

// Optimize finds the best lineup for the request.
func (o *LineupOptimizer) Optimize(ctx context.Context, req Request) (Result, error) {
	size := req.LineupSize
	if size == 0 {
		size = shared.LineupSize
	}
	if size < 1 {
		return Result{}, errors.Errorf("invalid lineup size %d", size)
	}
	limit := EffectiveCap(req.DisabilityCap)
	if limit < 0 {
		return Result{}, errors.Errorf("invalid disability cap %v", limit)
	}

	seen := make(map[string]bool, len(req.Team))
	for _, p := range req.Team {
		if seen[p.ID] {
			return Result{}, errors.Errorf("duplicate player %q in team", p.ID)
		}
		seen[p.ID] = true
	}

	alpha := StrategyWeight(req.HomeScore, req.AwayScore)
	empty := func(status Status) Result {
		return Result{Status: status, Lineup: []string{}, Breakdown: []Breakdown{}, Alpha: alpha}
	}

	pre := make(map[string]bool, len(req.Preselected))
	for _, id := range req.Preselected {
		pre[id] = true
	}

	var fixed, free []candidate
	for _, p := range req.Team {
		if available, ok := req.Availability[p.ID]; ok && !available {
			continue
		}
		t := shared.MaxMultiplier
		if level, ok := req.Fatigue[p.ID]; ok {
			t = shared.LevelToMultiplier(level)
		}
		c := candidate{
			player:      p,
			t:           t,
			adjusted:    AdjustedScore(p.ValueScore, t, alpha),
			preselected: pre[p.ID],
		}
		if c.preselected {
			fixed = append(fixed, c)
		} else {
			free = append(free, c)
		}
	}

	log := o.log.WithFields(logrus.Fields{
		"available":   len(fixed) + len(free),
		"preselected": len(pre),
		"alpha":       alpha,
	})

	if len(fixed)+len(free) < size {
		log.Info("Not enough available players for a lineup")
		return empty(StatusInsufficientPlayers), nil
	}
	if len(fixed) < len(pre) {
		log.Info("Preselected player is not available")
		return empty(StatusPreselectedUnavailable), nil
	}
	if len(fixed) > size {
		log.Info("More preselected players than lineup slots")
		return empty(StatusInfeasible), nil
	}

	var (
		fixedScore  float64
		fixedRating float64
	)
	for _, c := range fixed {
		fixedScore += c.adjusted
		fixedRating += float64(c.player.Rating)
	}

	pick := size - len(fixed)
	log.WithField("candidates", choose.Choose(int64(len(free)), int64(pick))).Debug("Searching lineups")

	best, bestScore, err := search(ctx, free, pick, limit-fixedRating)
	if err != nil {
		return Result{}, errors.Wrap(err, "lineup search aborted")
	}
	if best == nil {
		log.Info("No lineup satisfies the disability cap")
		return empty(StatusInfeasible), nil
	}

	selected := make(map[string]bool, size)
	for _, c := range fixed {
		selected[c.player.ID] = true
	}
	for _, i := range best {
		selected[free[i].player.ID] = true
	}

	res := Result{
		Status:    StatusOptimal,
		Lineup:    make([]string, 0, size),
		Objective: fixedScore + bestScore,
		Alpha:     alpha,
		Breakdown: make([]Breakdown, 0, size),
	}
	// Report in team order, regardless of which players were fixed.
	all := append(append([]candidate{}, fixed...), free...)
	byID := make(map[string]candidate, len(all))
	for _, c := range all {
		byID[c.player.ID] = c
	}
	for _, p := range req.Team {
		if !selected[p.ID] {
			continue
		}
		c := byID[p.ID]
		res.Lineup = append(res.Lineup, p.ID)
		res.DisabilitySum += float64(p.Rating)
		res.Breakdown = append(res.Breakdown, Breakdown{
			PlayerID:      p.ID,
			ValueScore:    p.ValueScore,
			Multiplier:    c.t,
			Alpha:         alpha,
			AdjustedScore: c.adjusted,
			Rating:        float64(p.Rating),
			Preselected:   c.preselected,
		})
	}

	log.WithFields(logrus.Fields{
		"lineup":    res.Lineup,
		"objective": res.Objective,
	}).Info("Lineup optimized")
	return res, nil
}

// search enumerates k-combinations of free in lexicographic index order and
// returns the first one with the highest total adjusted score whose rating
// sum fits within budget. A nil result means no combination fits.
func search(ctx context.Context, free []candidate, k int, budget float64) ([]int, float64, error) {
	if k == 0 {
		if budget < -epsilon {
			return nil, 0, nil
		}
		return []int{}, 0, nil
	}

	var (
		best      []int
		bestScore float64
		visited   int
	)
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		visited++
		if visited%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, 0, err
			}
		}

		var score, rating float64
		for _, i := range idx {
			score += free[i].adjusted
			rating += float64(free[i].player.Rating)
		}
		if rating <= budget+epsilon && (best == nil || score > bestScore+epsilon) {
			best = append(best[:0:0], idx...)
			bestScore = score
		}

		// Advance to the next combination.
		i := k - 1
		for i >= 0 && idx[i] == len(free)-k+i {
			i--
		}
		if i < 0 {
			break
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	return best, bestScore, nil
}
