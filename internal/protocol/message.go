package protocol

import (
	"encoding/json"

	"rugby-coach/internal/optimizer"
	"rugby-coach/internal/shared"
)

// Message represents a generic WebSocket message structure.
type Message struct {
	Type    string          `json:"type"`              // Type of the message (e.g., "start_game", "optimize")
	Payload json.RawMessage `json:"payload,omitempty"` // Raw JSON payload, allows flexible structures
}

// Client -> server message types.
const (
	TypeCreateSession   = "create_session"
	TypeJoinSession     = "join_session"
	TypeSetCountry      = "set_country"
	TypeSelectGame      = "select_game"
	TypeSetAvailability = "set_availability"
	TypeSetScore        = "set_score"
	TypeSetPreselected  = "set_preselected"
	TypeStartGame       = "start_game"
	TypeStopGame        = "stop_game"
	TypeStartStint      = "start_stint"
	TypeEndStint        = "end_stint"
	TypeOptimize        = "optimize"
	TypeClearSelection  = "clear_selection"
	TypeReset           = "reset"
	TypePing            = "ping"
)

// Server -> client message types.
const (
	TypeSessionCreated = "session_created"
	TypeSessionState   = "session_state"
	TypeError          = "error"
	TypeJoinError      = "join_error"
	TypePong           = "pong"
)

// --- Client -> Server Payload Structs ---

type CreateSessionPayload struct {
	Country string `json:"country"` // Optional; defaults to the first country
}

type JoinSessionPayload struct {
	Code string `json:"code"`
}

type SetCountryPayload struct {
	Country string `json:"country"`
}

type SelectGamePayload struct {
	GameID int `json:"game_id"`
}

type SetAvailabilityPayload struct {
	PlayerID  string `json:"player_id"`
	Available bool   `json:"available"`
}

type SetScorePayload struct {
	HomeScore int `json:"home_score"`
	AwayScore int `json:"away_score"`
}

type SetPreselectedPayload struct {
	Slots []string `json:"slots"` // Empty strings are unused slots
}

// --- Server -> Client Payload Structs ---

type SessionCreatedPayload struct {
	Code string `json:"code"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type JoinErrorPayload struct {
	Message string `json:"message"`
}

// PlayerRow is one line of the team table.
type PlayerRow struct {
	shared.Player
	Available bool    `json:"available"`
	Fatigue   float64 `json:"fatigue"`
}

// LiveStint is a stint saved during the current session.
type LiveStint struct {
	ID              string  `json:"id"`
	GameID          int     `json:"game_id"`
	Country         string  `json:"country"`
	EndTimeGame     string  `json:"end_time_game"`
	StintDuration   string  `json:"stint_duration"`
	DurationSeconds float64 `json:"duration_seconds"`
	HomeScore       int     `json:"home_score"`
	AwayScore       int     `json:"away_score"`
	Lineup          string  `json:"lineup"`
}

// LineupSummary describes the current lineup's totals.
type LineupSummary struct {
	DisabilitySum float64 `json:"disability_sum"`
	DisabilityCap float64 `json:"disability_cap"`
	OverCap       bool    `json:"over_cap"`
	AvgFatigue    float64 `json:"avg_fatigue"`
}

type SessionStatePayload struct {
	Code         string            `json:"code"`
	Country      string            `json:"country"`
	Countries    []string          `json:"countries"`
	GameID       int               `json:"game_id"`
	GameIDs      []int             `json:"game_ids"`
	HomeTeam     string            `json:"home_team"`
	AwayTeam     string            `json:"away_team"`
	HomeScore    int               `json:"home_score"`
	AwayScore    int               `json:"away_score"`
	GameRunning  bool              `json:"game_running"`
	GameRuntime  string            `json:"game_runtime"`
	StintRunning bool              `json:"stint_running"`
	StintRuntime string            `json:"stint_runtime"`
	Team         []PlayerRow       `json:"team"`
	Preselected  []string          `json:"pre_selected"`
	Lineup       []string          `json:"lineup"`
	Summary      *LineupSummary    `json:"summary,omitempty"` // Set when the lineup is complete
	LastResult   *optimizer.Result `json:"last_result,omitempty"`
	LiveStints   []LiveStint       `json:"live_stints"`
}

// Helper function to create a JSON message
func NewMessage(msgType string, payload interface{}) ([]byte, error) {
	if payload == nil {
		return json.Marshal(Message{Type: msgType})
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	msg := Message{
		Type:    msgType,
		Payload: payloadBytes,
	}
	return json.Marshal(msg)
}

// Decode unmarshals the payload of msg into v.
func Decode(msg Message, v interface{}) error {
	if len(msg.Payload) == 0 {
		return json.Unmarshal([]byte("{}"), v)
	}
	return json.Unmarshal(msg.Payload, v)
}
