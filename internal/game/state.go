package game

import (
	"fmt"
	"sort"
	"time"

	"rugby-coach/internal/protocol"
	"rugby-coach/internal/shared"
)

// FormatClock renders seconds as MM:SS. Negative values show as 00:00.
func FormatClock(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// runtime formats the time elapsed since start, or 00:00 when not running.
func (s *Session) runtime(start *time.Time, now time.Time) string {
	if start == nil {
		return FormatClock(0)
	}
	return FormatClock(now.Sub(*start).Seconds())
}

// Snapshot returns the session state as sent to clients.
func (s *Session) Snapshot() protocol.SessionStatePayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// snapshot builds the state payload. Assumes lock is held.
func (s *Session) snapshot() protocol.SessionStatePayload {
	now := s.now()
	team := s.team()

	rows := make([]protocol.PlayerRow, len(team))
	for i, p := range team {
		rows[i] = protocol.PlayerRow{
			Player:    p,
			Available: s.availability[p.ID],
			Fatigue:   s.fatigue[p.ID],
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Available != rows[j].Available {
			return rows[i].Available
		}
		return rows[i].ValueScore > rows[j].ValueScore
	})

	state := protocol.SessionStatePayload{
		Code:         s.Code,
		Country:      s.country,
		Countries:    s.data.Players.Countries(),
		GameID:       s.gameID,
		GameIDs:      s.data.GameIDs(),
		HomeTeam:     s.homeTeam,
		AwayTeam:     s.awayTeam,
		HomeScore:    s.homeScore,
		AwayScore:    s.awayScore,
		GameRunning:  s.gameStart != nil,
		GameRuntime:  s.runtime(s.gameStart, now),
		StintRunning: s.stintStart != nil,
		StintRuntime: s.runtime(s.stintStart, now),
		Team:         rows,
		Preselected:  append([]string{}, s.preselected...),
		Lineup:       append([]string{}, s.lineup...),
		LiveStints:   append([]protocol.LiveStint{}, s.liveStints...),
	}
	if s.lastOpt != nil {
		res := *s.lastOpt
		state.LastResult = &res
	}
	if len(s.lineup) == s.lineupSize {
		state.Summary = s.summary()
	}
	return state
}

// summary totals the current lineup. Assumes lock is held.
func (s *Session) summary() *protocol.LineupSummary {
	var onCourt []shared.Player
	for _, id := range s.lineup {
		if s.onTeam(id) {
			p, _ := s.data.Players.Find(id)
			onCourt = append(onCourt, p)
		}
	}
	total := float64(shared.SumRatings(onCourt))

	var energy float64
	for _, id := range s.lineup {
		level, ok := s.fatigue[id]
		if !ok {
			level = shared.FreshLevel
		}
		energy += level
	}
	return &protocol.LineupSummary{
		DisabilitySum: total,
		DisabilityCap: s.disabilityCap,
		OverCap:       total > s.disabilityCap,
		AvgFatigue:    energy / float64(len(s.lineup)),
	}
}
