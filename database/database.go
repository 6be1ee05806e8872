package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/mbolis/desirability-form/config"
)

// Open connects to the configured database and brings its schema up to date.
func Open(cfg config.Config) (db *sql.DB, err error) {
	db, err = sql.Open(cfg.DBDriver, cfg.DBUrl)
	if err != nil {
		return
	}

	if cfg.DBDriver == config.DriverSQLite {
		_, err = db.Exec("PRAGMA foreign_keys = ON")
		if err != nil {
			db.Close()
			return
		}
	}

	err = db.Ping()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.DBDriver, err)
	}

	// db tuning options
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(2 * time.Hour)

	err = Migrate(db, cfg.DBDriver)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return
}
