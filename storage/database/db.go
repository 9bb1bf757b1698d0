package database

import (
	"context"
	"database/sql"
	"embed"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/trezcool/potluck/core"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

var errUnsupportedBackend = errors.New("storage backend is not an SQL database")

// driver returns the database/sql driver and goose dialect of the configured backend.
func driver(conf *core.Config) (string, string, error) {
	switch conf.Storage.Backend {
	case "postgres":
		return "postgres", "postgres", nil
	case "sqlite":
		return "sqlite", "sqlite3", nil
	default:
		return "", "", errUnsupportedBackend
	}
}

func dsn(conf *core.Config) string {
	if conf.Storage.DSN != "" || conf.Storage.Backend != "sqlite" {
		return conf.Storage.DSN
	}
	path := filepath.Join(conf.Storage.DataDir, "potluck.db")
	return "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// Open connects to the configured SQL database and waits for it to answer.
func Open(conf *core.Config) (*sqlx.DB, error) {
	drv, _, err := driver(conf)
	if err != nil {
		return nil, err
	}
	db, err := sqlx.Open(drv, dsn(conf))
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if drv == "sqlite" {
		db.SetMaxOpenConns(1)
	}
	if err = ping(db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sql.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.Ping()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

func setupGoose(conf *core.Config) error {
	_, dialect, err := driver(conf)
	if err != nil {
		return err
	}
	goose.SetBaseFS(migrations)
	return errors.Wrap(goose.SetDialect(dialect), "setting goose dialect")
}

// Migrate applies every pending migration.
func Migrate(ctx context.Context, db *sqlx.DB, conf *core.Config) error {
	if err := setupGoose(conf); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db.DB, migrationsDir); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}

// RunMigrations runs a goose command (up, down, status, version, redo, reset, up-to, down-to...).
func RunMigrations(ctx context.Context, db *sqlx.DB, conf *core.Config, command string, args ...string) error {
	if err := setupGoose(conf); err != nil {
		return err
	}
	return goose.RunContext(ctx, command, db.DB, migrationsDir, args...)
}
