package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"rugby-coach/internal/database"
	"rugby-coach/internal/dataset"
	"rugby-coach/internal/game"
	"rugby-coach/internal/optimizer"
	"rugby-coach/internal/shared"
)

const requestTimeout = 15 * time.Second

// API serves the read-only dataset views, the stateless optimizer and
// the persisted live stints.
type API struct {
	Data          *dataset.Dataset
	Optimizer     game.Optimizer
	Store         database.Store
	DisabilityCap float64
	LineupSize    int
	Log           *logrus.Entry
}

// OptimizeRequest is the body of POST /api/optimize. Players missing from
// Availability are available and players missing from Fatigue are fresh.
type OptimizeRequest struct {
	Country       string             `json:"country"`
	Availability  map[string]bool    `json:"availability"`
	Fatigue       map[string]float64 `json:"fatigue"`
	HomeScore     float64            `json:"home_score"`
	AwayScore     float64            `json:"away_score"`
	Preselected   []string           `json:"pre_selected"`
	DisabilityCap float64            `json:"disability_cap"`
}

// HandleRoutes registers the REST routes on mux.
func (a *API) HandleRoutes(mux *http.ServeMux) {
	routes := map[string]http.HandlerFunc{
		"GET /api/players":            a.GetPlayersHandler,
		"GET /api/countries":          a.GetCountriesHandler,
		"GET /api/games":              a.GetGamesHandler,
		"GET /api/stints/history":     a.GetStintHistoryHandler,
		"POST /api/optimize":          a.OptimizeHandler,
		"GET /api/stints":             a.GetStintsHandler,
		"GET /api/stints/player/{id}": a.GetStintsByPlayerHandler,
		"GET /healthz":                a.HealthHandler,
	}
	for pattern, handler := range routes {
		mux.HandleFunc(pattern, handler)
		a.Log.WithField("route", pattern).Debug("Registered route")
	}
}

func (a *API) GetPlayersHandler(w http.ResponseWriter, r *http.Request) {
	country := strings.TrimSpace(r.URL.Query().Get("country"))
	if country == "" {
		writeJSON(w, a.Data.Players.Players)
		return
	}
	players := a.Data.Players.ByCountry(country)
	if len(players) == 0 {
		http.Error(w, "Unknown country", http.StatusNotFound)
		return
	}
	writeJSON(w, players)
}

func (a *API) GetCountriesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, a.Data.Players.Countries())
}

func (a *API) GetGamesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, a.Data.GameIDs())
}

func (a *API) GetStintHistoryHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	gameID, err := strconv.Atoi(q.Get("game"))
	if err != nil {
		http.Error(w, "game must be a game id", http.StatusBadRequest)
		return
	}
	country := strings.TrimSpace(q.Get("country"))
	if country == "" {
		http.Error(w, "country is required", http.StatusBadRequest)
		return
	}
	if !a.Data.HasGame(gameID) {
		http.Error(w, "Unknown game", http.StatusNotFound)
		return
	}

	history := a.Data.StintHistory(gameID, country)
	if history == nil {
		history = []shared.Stint{}
	}
	writeJSON(w, history)
}

func (a *API) OptimizeHandler(w http.ResponseWriter, r *http.Request) {
	var body OptimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	team := a.Data.Players.ByCountry(body.Country)
	if len(team) == 0 {
		http.Error(w, "Unknown country", http.StatusBadRequest)
		return
	}
	if body.HomeScore < 0 || body.AwayScore < 0 || body.DisabilityCap < 0 {
		http.Error(w, "Scores and cap cannot be negative", http.StatusBadRequest)
		return
	}
	limit := body.DisabilityCap
	if limit == 0 {
		limit = a.DisabilityCap
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	res, err := a.Optimizer.Optimize(ctx, optimizer.Request{
		Team:          team,
		Availability:  body.Availability,
		Fatigue:       body.Fatigue,
		HomeScore:     body.HomeScore,
		AwayScore:     body.AwayScore,
		Preselected:   body.Preselected,
		DisabilityCap: limit,
		LineupSize:    a.LineupSize,
	})
	if err != nil {
		a.Log.WithError(err).Warn("Optimization request failed")
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, res)
}

// GetStintsHandler lists persisted live stints, optionally for one game.
func (a *API) GetStintsHandler(w http.ResponseWriter, r *http.Request) {
	var (
		stints []database.StintRecord
		err    error
	)
	if g := r.URL.Query().Get("game"); g != "" {
		gameID, convErr := strconv.Atoi(g)
		if convErr != nil {
			http.Error(w, "game must be a game id", http.StatusBadRequest)
			return
		}
		stints, err = a.Store.GetByGame(r.Context(), gameID)
	} else {
		stints, err = a.Store.GetAll(r.Context())
	}
	if err != nil {
		a.Log.WithError(err).Error("Failed to fetch stints")
		http.Error(w, "Failed to fetch stints", http.StatusInternalServerError)
		return
	}
	if stints == nil {
		stints = []database.StintRecord{}
	}
	writeJSON(w, stints)
}

func (a *API) GetStintsByPlayerHandler(w http.ResponseWriter, r *http.Request) {
	player := r.PathValue("id")
	if player == "" {
		http.Error(w, "Player id is required", http.StatusBadRequest)
		return
	}

	stints, err := a.Store.GetByPlayer(r.Context(), player)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			http.Error(w, "No stints found for player", http.StatusNotFound)
			return
		}
		a.Log.WithError(err).WithField("player", player).Error("Failed to fetch stints")
		http.Error(w, "Failed to fetch stints", http.StatusInternalServerError)
		return
	}
	writeJSON(w, stints)
}

func (a *API) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"status":  "ok",
		"players": a.Data.Players.Len(),
		"games":   len(a.Data.GameIDs()),
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
