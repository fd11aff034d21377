// Package config reads the server configuration from the environment.
// A .env file in the working directory is loaded first when present.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"rugby-coach/internal/shared"
)

// Config holds all runtime settings.
type Config struct {
	ListenAddr    string
	DataDir       string
	StaticDir     string
	DBDriver      string // sqlite3, pgx or mongo
	DBDSN         string
	MongoDatabase string
	DisabilityCap float64
	LineupSize    int // 1 to shared.LineupSize
	LogLevel      logrus.Level
	LogFormat     string // text or json
}

var drivers = map[string]bool{"sqlite3": true, "pgx": true, "mongo": true}

// Load reads .env (if any) and the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(errors.Cause(err)) {
		return Config{}, errors.Wrap(err, "cannot read .env")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function, applying defaults.
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		ListenAddr:    get("LISTEN_ADDR", ":8080"),
		DataDir:       get("DATA_DIR", "Data"),
		StaticDir:     get("STATIC_DIR", "web/static"),
		DBDriver:      strings.ToLower(get("DB_DRIVER", "sqlite3")),
		DBDSN:         get("DB_DSN", "./coach.db"),
		MongoDatabase: get("MONGO_DATABASE", "coach"),
		LogFormat:     strings.ToLower(get("LOG_FORMAT", "text")),
	}

	if !drivers[cfg.DBDriver] {
		return Config{}, errors.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	var err error
	if cfg.DisabilityCap, err = strconv.ParseFloat(get("DISABILITY_CAP", "8.0"), 64); err != nil || cfg.DisabilityCap <= 0 {
		return Config{}, errors.Errorf("invalid DISABILITY_CAP %q", getenv("DISABILITY_CAP"))
	}
	if cfg.LineupSize, err = strconv.Atoi(get("LINEUP_SIZE", "4")); err != nil || cfg.LineupSize < 1 || cfg.LineupSize > shared.LineupSize {
		return Config{}, errors.Errorf("invalid LINEUP_SIZE %q", getenv("LINEUP_SIZE"))
	}
	if cfg.LogLevel, err = logrus.ParseLevel(get("LOG_LEVEL", "info")); err != nil {
		return Config{}, errors.Wrap(err, "invalid LOG_LEVEL")
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return Config{}, errors.Errorf("invalid LOG_FORMAT %q", cfg.LogFormat)
	}
	return cfg, nil
}

// NewLogger builds the process logger described by the config.
func (c Config) NewLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(c.LogLevel)
	if c.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}
