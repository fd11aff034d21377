package database

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

const tableName = "live_stints"

const columns = "id, created_at, session_code, game_id, country, end_time_game, stint_duration, " +
	"duration_seconds, home_score, away_score, player1, player2, player3, player4"

// Service is the database/sql backed Store.
type Service struct {
	db         *sql.DB
	m          *sync.Mutex
	driver     string
	table_name string
	log        *logrus.Entry
}

// NewSQL opens the database with the given driver ("sqlite3" or "pgx") and
// creates the stint table when missing.
func NewSQL(driver, dsn string, log *logrus.Entry) (*Service, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open %s database", driver)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "cannot reach %s database", driver)
	}
	if driver == "sqlite3" {
		// A single connection avoids "database is locked" under concurrent writers.
		db.SetMaxOpenConns(1)
	}

	sqlStmt := `
	create table if not exists ` + tableName + ` (
		id text not null primary key,
		created_at text,
		session_code text,
		game_id integer,
		country text,
		end_time_game text,
		stint_duration text,
		duration_seconds real,
		home_score integer,
		away_score integer,
		player1 text,
		player2 text,
		player3 text,
		player4 text
	);
	`
	if _, err = db.Exec(sqlStmt); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "cannot create stint table")
	}

	log.WithFields(logrus.Fields{"component": "database", "driver": driver}).Info("Database ready")
	return &Service{
		db:         db,
		m:          &sync.Mutex{},
		driver:     driver,
		table_name: tableName,
		log:        log.WithField("component", "database"),
	}, nil
}

func (s *Service) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *Service) rebind(query string) string {
	if s.driver != "pgx" {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func (s *Service) Insert(ctx context.Context, rec StintRecord) error {
	s.m.Lock()
	defer s.m.Unlock()
	_, err := s.db.ExecContext(ctx, s.rebind("INSERT INTO "+s.table_name+
		" ("+columns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"),
		rec.ID,
		rec.CreatedAt,
		rec.SessionCode,
		rec.GameID,
		rec.Country,
		rec.EndTimeGame,
		rec.StintDuration,
		rec.DurationSeconds,
		rec.HomeScore,
		rec.AwayScore,
		rec.Player1,
		rec.Player2,
		rec.Player3,
		rec.Player4)
	if err != nil {
		return errors.Wrapf(err, "cannot insert stint %s", rec.ID)
	}
	s.log.WithField("stint", rec.ID).Debug("Stint saved")
	return nil
}

func (s *Service) GetAll(ctx context.Context) ([]StintRecord, error) {
	return s.query(ctx, "SELECT "+columns+" FROM "+s.table_name+" ORDER BY created_at")
}

func (s *Service) GetByGame(ctx context.Context, gameID int) ([]StintRecord, error) {
	return s.query(ctx, "SELECT "+columns+" FROM "+s.table_name+" WHERE game_id = ? ORDER BY created_at", gameID)
}

// GetByPlayer returns ErrNotFound when the player has no saved stints.
func (s *Service) GetByPlayer(ctx context.Context, playerID string) ([]StintRecord, error) {
	results, err := s.query(ctx, "SELECT "+columns+" FROM "+s.table_name+
		" WHERE player1 = ? OR player2 = ? OR player3 = ? OR player4 = ? ORDER BY created_at",
		playerID,
		playerID,
		playerID,
		playerID)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}
	return results, nil
}

func (s *Service) query(ctx context.Context, query string, args ...interface{}) ([]StintRecord, error) {
	s.m.Lock()
	defer s.m.Unlock()
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, errors.Wrap(err, "cannot query stints")
	}
	defer rows.Close()

	results := []StintRecord{}
	for rows.Next() {
		var rec StintRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.CreatedAt,
			&rec.SessionCode,
			&rec.GameID,
			&rec.Country,
			&rec.EndTimeGame,
			&rec.StintDuration,
			&rec.DurationSeconds,
			&rec.HomeScore,
			&rec.AwayScore,
			&rec.Player1,
			&rec.Player2,
			&rec.Player3,
			&rec.Player4); err != nil {
			return nil, errors.Wrap(err, "cannot scan stint")
		}
		results = append(results, rec)
	}
	return results, errors.Wrap(rows.Err(), "cannot read stints")
}
