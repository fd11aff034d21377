package database

import (
	"context"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when a query matches no stints.
var ErrNotFound = errors.New("no stints found")

// StintRecord is a stint saved from a live coaching session.
type StintRecord struct {
	ID              string  `json:"id" bson:"_id"`
	CreatedAt       string  `json:"created_at" bson:"created_at"`
	SessionCode     string  `json:"session_code" bson:"session_code"`
	GameID          int     `json:"game_id" bson:"game_id"`
	Country         string  `json:"country" bson:"country"`
	EndTimeGame     string  `json:"end_time_game" bson:"end_time_game"`
	StintDuration   string  `json:"stint_duration" bson:"stint_duration"`
	DurationSeconds float64 `json:"duration_seconds" bson:"duration_seconds"`
	HomeScore       int     `json:"home_score" bson:"home_score"`
	AwayScore       int     `json:"away_score" bson:"away_score"`
	Player1         string  `json:"player1" bson:"player1"`
	Player2         string  `json:"player2" bson:"player2"`
	Player3         string  `json:"player3" bson:"player3"`
	Player4         string  `json:"player4" bson:"player4"`
}

// Store persists live stints.
type Store interface {
	Insert(ctx context.Context, rec StintRecord) error
	GetAll(ctx context.Context) ([]StintRecord, error)
	GetByGame(ctx context.Context, gameID int) ([]StintRecord, error)
	GetByPlayer(ctx context.Context, playerID string) ([]StintRecord, error)
	Close() error
}
