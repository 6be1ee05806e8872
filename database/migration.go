package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/mbolis/desirability-form/config"
	"github.com/mbolis/desirability-form/log"
)

//go:embed migrations
var dbMigrations embed.FS

// Migrate applies every pending migration for the given driver. It is safe to
// call on an up to date database.
func Migrate(db *sql.DB, driver string) error {
	src, err := iofs.New(dbMigrations, "migrations/"+driver)
	if err != nil {
		return err
	}

	var dst migratedb.Driver
	switch driver {
	case config.DriverSQLite:
		dst, err = sqlite3.WithInstance(db, &sqlite3.Config{})
	case config.DriverPostgres:
		// WithInstance would pin a pooled connection for good
		var conn *sql.Conn
		conn, err = db.Conn(context.Background())
		if err != nil {
			return err
		}
		defer conn.Close()
		dst, err = postgres.WithConnection(context.Background(), conn, &postgres.Config{})
	default:
		err = fmt.Errorf("no migrations for driver %q", driver)
	}
	if err != nil {
		return err
	}

	migrator, err := migrate.NewWithInstance("iofs", src, driver, dst)
	if err != nil {
		return err
	}

	err = migrator.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		// db already up to date
		log.Debug("database.migrate: no change")
	case err != nil:
		return err
	default:
		log.Info("database.migrate: schema updated")
	}
	return nil
}
