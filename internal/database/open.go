package database

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Open returns the Store for driver. For "mongo" dsn is a connection URI and
// mongoDB names the database; the SQL drivers ignore mongoDB.
func Open(driver, dsn, mongoDB string, log *logrus.Entry) (Store, error) {
	switch driver {
	case "sqlite3", "pgx":
		s, err := NewSQL(driver, dsn, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "mongo":
		m, err := NewMongo(dsn, mongoDB, log)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, errors.Errorf("unsupported database driver %q", driver)
	}
}
