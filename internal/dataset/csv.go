package dataset

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"rugby-coach/internal/shared"
)

var stintColumns = []string{
	"game_id", "h_team", "a_team", "minutes", "h_goals", "a_goals",
	"home1", "home2", "home3", "home4",
	"away1", "away2", "away3", "away4",
}

// header maps column names to their index.
type header map[string]int

func readHeader(r *csv.Reader, required []string) (header, error) {
	names, err := r.Read()
	if err == io.EOF {
		return nil, errors.New("empty file, expected a header row")
	}
	if err != nil {
		return nil, errors.Wrap(err, "cannot read header")
	}
	h := make(header, len(names))
	for i, name := range names {
		h[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, col := range required {
		if _, ok := h[col]; !ok {
			return nil, errors.Errorf("missing column %q", col)
		}
	}
	return h, nil
}

func (h header) get(record []string, col string) string {
	i := h[col]
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// LoadPlayers reads player rows with the columns player and rating.
func LoadPlayers(src io.Reader) ([]shared.Player, error) {
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	h, err := readHeader(r, []string{"player", "rating"})
	if err != nil {
		return nil, errors.Wrap(err, "players")
	}

	var players []shared.Player
	seen := make(map[string]int)
	for line := 2; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "players line %d", line)
		}
		id := h.get(record, "player")
		if id == "" {
			return nil, errors.Errorf("players line %d: empty player id", line)
		}
		if first, ok := seen[id]; ok {
			return nil, errors.Errorf("players line %d: player %q already listed on line %d", line, id, first)
		}
		seen[id] = line
		rating, err := strconv.ParseFloat(h.get(record, "rating"), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "players line %d: bad rating", line)
		}
		if !shared.ValidRating(shared.Rating(rating)) {
			return nil, errors.Errorf("players line %d: rating %v is not a classification between %v and %v",
				line, rating, shared.MinRating, shared.MaxRating)
		}
		players = append(players, shared.NewPlayer(id, shared.Rating(rating)))
	}
	return players, nil
}

// LoadStints reads stint rows. Goals and the game id may be written as
// floats ("3.0"), as spreadsheet exports often do.
func LoadStints(src io.Reader) ([]shared.Stint, error) {
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	h, err := readHeader(r, stintColumns)
	if err != nil {
		return nil, errors.Wrap(err, "stints")
	}

	var stints []shared.Stint
	for line := 2; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "stints line %d", line)
		}

		var s shared.Stint
		if s.GameID, err = parseInt(h.get(record, "game_id")); err != nil {
			return nil, errors.Wrapf(err, "stints line %d: game_id", line)
		}
		if s.Minutes, err = parseFinite(h.get(record, "minutes")); err != nil {
			return nil, errors.Wrapf(err, "stints line %d: minutes", line)
		}
		if s.HomeGoals, err = parseInt(h.get(record, "h_goals")); err != nil {
			return nil, errors.Wrapf(err, "stints line %d: h_goals", line)
		}
		if s.AwayGoals, err = parseInt(h.get(record, "a_goals")); err != nil {
			return nil, errors.Wrapf(err, "stints line %d: a_goals", line)
		}
		s.HomeTeam = h.get(record, "h_team")
		s.AwayTeam = h.get(record, "a_team")
		for i := 0; i < shared.LineupSize; i++ {
			s.Home[i] = h.get(record, "home"+strconv.Itoa(i+1))
			s.Away[i] = h.get(record, "away"+strconv.Itoa(i+1))
		}
		stints = append(stints, s)
	}
	return stints, nil
}

// parseInt accepts integers and integral floats such as "3.0".
func parseInt(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := parseFinite(s)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, errors.Errorf("%q is not a whole number", s)
	}
	return int(f), nil
}

func parseFinite(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.Errorf("%q is not a finite number", s)
	}
	return f, nil
}
