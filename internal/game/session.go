package game

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"rugby-coach/internal/database"
	"rugby-coach/internal/dataset"
	"rugby-coach/internal/optimizer"
	"rugby-coach/internal/protocol"
	"rugby-coach/internal/shared"
)

const (
	defaultHomeTeam = "H"
	defaultAwayTeam = "A"
)

var (
	ErrUnknownCountry   = errors.New("unknown country")
	ErrUnknownGame      = errors.New("unknown game")
	ErrUnknownPlayer    = errors.New("player is not on the current team")
	ErrInvalidScore     = errors.New("scores cannot be negative")
	ErrTooManySlots     = errors.New("too many pre-selected players")
	ErrDuplicateSlot    = errors.New("player pre-selected twice")
	ErrGameRunning      = errors.New("game already started")
	ErrStintNotStarted  = errors.New("start the stint timer first")
	ErrIncompleteLineup = errors.New("need a full lineup of distinct players to save the stint, optimize first")
)

// MessageSender defines the function signature for sending messages back to clients.
// The Hub will provide an implementation of this.
type MessageSender func(clientID string, message []byte)

// Clock returns the current time.
type Clock func() time.Time

// Optimizer is the part of the lineup optimizer a session needs.
type Optimizer interface {
	Optimize(ctx context.Context, req optimizer.Request) (optimizer.Result, error)
}

// StintRecorder persists saved stints.
type StintRecorder interface {
	Insert(ctx context.Context, rec database.StintRecord) error
}

// Options configures a new Session.
type Options struct {
	Data          *dataset.Dataset
	Optimizer     Optimizer
	Recorder      StintRecorder // Optional
	DisabilityCap float64
	LineupSize    int
	Clock         Clock // Defaults to time.Now
	Log           *logrus.Entry
}

// Session is one coach's live game: availability, fatigue, scoreboard,
// timers, the suggested lineup and the stints saved so far.
type Session struct {
	Code string

	data          *dataset.Dataset
	opt           Optimizer
	recorder      StintRecorder
	disabilityCap float64
	lineupSize    int
	now           Clock
	log           *logrus.Entry

	mu          sync.Mutex
	sendMessage MessageSender
	subscribers map[string]bool

	country      string
	gameID       int
	availability map[string]bool
	fatigue      map[string]float64 // Energy 0-100 for every rostered player
	preselected  []string
	lineup       []string
	homeTeam     string
	awayTeam     string
	homeScore    int
	awayScore    int
	gameStart    *time.Time
	stintStart   *time.Time
	liveStints   []protocol.LiveStint
	lastOpt      *optimizer.Result
}

// NewSession creates a session in its initial state.
func NewSession(code string, opts Options) *Session {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.DisabilityCap == 0 {
		opts.DisabilityCap = optimizer.DefaultDisabilityCap
	}
	if opts.Log == nil {
		opts.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	if opts.LineupSize <= 0 || opts.LineupSize > shared.LineupSize {
		if opts.LineupSize != 0 {
			opts.Log.WithField("lineup_size", opts.LineupSize).Warn("Saved stints hold four players, using the default lineup size")
		}
		opts.LineupSize = shared.LineupSize
	}
	s := &Session{
		Code:          code,
		data:          opts.Data,
		opt:           opts.Optimizer,
		recorder:      opts.Recorder,
		disabilityCap: opts.DisabilityCap,
		lineupSize:    opts.LineupSize,
		now:           opts.Clock,
		log:           opts.Log.WithField("session", code),
		subscribers:   make(map[string]bool),
	}
	s.reset()
	return s
}

// reset restores every field to its initial value. Assumes lock is held.
func (s *Session) reset() {
	countries := s.data.Players.Countries()
	s.country = ""
	if len(countries) > 0 {
		s.country = countries[0]
	}
	games := s.data.GameIDs()
	s.gameID = 0
	if len(games) > 0 {
		s.gameID = games[0]
	}

	s.availability = make(map[string]bool, s.data.Players.Len())
	s.fatigue = make(map[string]float64, s.data.Players.Len())
	for _, id := range s.data.Players.IDs() {
		s.availability[id] = true
		s.fatigue[id] = shared.FreshLevel
	}
	s.preselected = []string{}
	s.lineup = []string{}
	s.homeTeam = defaultHomeTeam
	s.awayTeam = defaultAwayTeam
	s.homeScore = 0
	s.awayScore = 0
	s.gameStart = nil
	s.stintStart = nil
	s.liveStints = []protocol.LiveStint{}
	s.lastOpt = nil
}

// team returns the players of the coached country. Assumes lock is held.
func (s *Session) team() []shared.Player {
	return s.data.Players.ByCountry(s.country)
}

func (s *Session) onTeam(id string) bool {
	p, ok := s.data.Players.Find(id)
	return ok && p.Country == s.country
}

// SetCountry switches the coached country.
func (s *Session) SetCountry(country string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for _, c := range s.data.Players.Countries() {
		if c == country {
			found = true
			break
		}
	}
	if !found {
		return errors.Wrap(ErrUnknownCountry, country)
	}
	if country != s.country {
		// The selection belongs to the previous team.
		s.preselected = []string{}
		s.lineup = []string{}
		s.lastOpt = nil
	}
	s.country = country
	s.log.WithField("country", country).Info("Country selected")
	s.broadcastState()
	return nil
}

// SelectGame picks the game whose stint history is shown.
func (s *Session) SelectGame(gameID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.data.HasGame(gameID) {
		return errors.Wrapf(ErrUnknownGame, "game %d", gameID)
	}
	s.gameID = gameID
	s.broadcastState()
	return nil
}

// SetAvailability marks a player of the current team (un)available.
func (s *Session) SetAvailability(playerID string, available bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.onTeam(playerID) {
		return errors.Wrap(ErrUnknownPlayer, playerID)
	}
	s.availability[playerID] = available
	s.broadcastState()
	return nil
}

// SetScore updates the scoreboard.
func (s *Session) SetScore(home, away int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if home < 0 || away < 0 {
		return ErrInvalidScore
	}
	s.homeScore, s.awayScore = home, away
	s.broadcastState()
	return nil
}

// SetPreselected locks players into the next lineup. Empty slots are ignored.
func (s *Session) SetPreselected(slots []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	selected := []string{}
	seen := make(map[string]bool)
	for _, id := range slots {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if !s.onTeam(id) {
			return errors.Wrap(ErrUnknownPlayer, id)
		}
		if seen[id] {
			return errors.Wrap(ErrDuplicateSlot, id)
		}
		seen[id] = true
		selected = append(selected, id)
	}
	if len(selected) > s.lineupSize {
		return ErrTooManySlots
	}
	s.preselected = selected
	s.broadcastState()
	return nil
}

// StartGame starts the game clock and suggests the initial lineup.
func (s *Session) StartGame(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gameStart != nil {
		return ErrGameRunning
	}
	now := s.now()
	s.gameStart = &now
	s.log.Info("Game started")

	err := s.optimize(ctx)
	s.broadcastState()
	return err
}

// StopGame clears the game clock.
func (s *Session) StopGame() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gameStart = nil
	s.log.Info("Game stopped")
	s.broadcastState()
}

// StartStint starts the stint clock unless it is already running.
func (s *Session) StartStint() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stintStart == nil {
		now := s.now()
		s.stintStart = &now
		s.log.Debug("Stint started")
	}
	s.broadcastState()
}

// EndStint saves the running stint, updates fatigue for the whole roster
// and suggests the next lineup.
func (s *Session) EndStint(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stintStart == nil {
		return ErrStintNotStarted
	}
	if !s.lineupComplete() {
		return ErrIncompleteLineup
	}

	now := s.now()
	seconds := now.Sub(*s.stintStart).Seconds()
	stint := protocol.LiveStint{
		ID:              uuid.NewString(),
		GameID:          s.gameID,
		Country:         s.country,
		EndTimeGame:     s.runtime(s.gameStart, now),
		StintDuration:   FormatClock(seconds),
		DurationSeconds: seconds,
		HomeScore:       s.homeScore,
		AwayScore:       s.awayScore,
		Lineup:          strings.Join(s.lineup, ", "),
	}

	if s.recorder != nil {
		rec := database.StintRecord{
			ID:              stint.ID,
			CreatedAt:       now.UTC().Format(time.RFC3339Nano),
			SessionCode:     s.Code,
			GameID:          stint.GameID,
			Country:         stint.Country,
			EndTimeGame:     stint.EndTimeGame,
			StintDuration:   stint.StintDuration,
			DurationSeconds: stint.DurationSeconds,
			HomeScore:       stint.HomeScore,
			AwayScore:       stint.AwayScore,
		}
		rec.Player1, rec.Player2, rec.Player3, rec.Player4 = slot(s.lineup, 0), slot(s.lineup, 1), slot(s.lineup, 2), slot(s.lineup, 3)
		if err := s.recorder.Insert(ctx, rec); err != nil {
			return errors.Wrap(err, "cannot save stint")
		}
	}

	s.liveStints = append(s.liveStints, stint)
	s.fatigue = shared.UpdateLevels(s.fatigue, s.lineup, seconds)
	s.stintStart = nil
	s.log.WithFields(logrus.Fields{
		"stint":    stint.ID,
		"duration": stint.StintDuration,
		"lineup":   stint.Lineup,
	}).Info("Stint saved, fatigue updated")

	err := s.optimize(ctx)
	s.broadcastState()
	return err
}

// Optimize suggests a lineup for the current state.
func (s *Session) Optimize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.optimize(ctx)
	s.broadcastState()
	return err
}

// ClearSelection drops the pre-selection, the lineup and the last result.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.preselected = []string{}
	s.lineup = []string{}
	s.lastOpt = nil
	s.broadcastState()
}

// Reset returns the session to its initial state.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reset()
	s.log.Info("Session reset")
	s.broadcastState()
}

// optimize runs the optimizer and adopts a feasible lineup. Assumes lock is held.
func (s *Session) optimize(ctx context.Context) error {
	res, err := s.opt.Optimize(ctx, optimizer.Request{
		Team:          s.team(),
		Availability:  s.availability,
		Fatigue:       s.fatigue,
		HomeScore:     float64(s.homeScore),
		AwayScore:     float64(s.awayScore),
		Preselected:   s.preselected,
		DisabilityCap: s.disabilityCap,
		LineupSize:    s.lineupSize,
	})
	if err != nil {
		return errors.Wrap(err, "optimization failed")
	}
	s.lastOpt = &res
	if res.Feasible() {
		s.lineup = append([]string{}, res.Lineup...)
	}
	return nil
}

func (s *Session) lineupComplete() bool {
	if len(s.lineup) != s.lineupSize {
		return false
	}
	seen := make(map[string]bool, len(s.lineup))
	for _, id := range s.lineup {
		if seen[id] {
			return false
		}
		seen[id] = true
	}
	return true
}

func slot(lineup []string, i int) string {
	if i < len(lineup) {
		return lineup[i]
	}
	return ""
}
