// Package storage persists bills, operations, links and link runs.
//
// The same queries run on SQLite (default) and PostgreSQL: they are written
// with ? placeholders and rebound by sqlx for the active driver. The schema
// is managed by goose from the embedded migrations directory.
package storage

import (
	"context"
	"embed"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	_ "github.com/eshaffer321/bill-linker/internal/infrastructure/storage/migrations"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// goose keeps its base FS and dialect in package state.
var gooseMu sync.Mutex

// Storage provides SQL database access for the linker.
// It implements the Repository interface.
type Storage struct {
	db     *sqlx.DB
	driver string
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage creates a new storage instance with a SQLite database
func NewStorage(dbPath string) (*Storage, error) {
	return Open("sqlite3", dbPath)
}

// Open connects with the given driver ("sqlite3" or "postgres") and runs all
// pending migrations.
func Open(driver, dsn string) (*Storage, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	if driver == "sqlite3" {
		// One writer at a time keeps SQLite from returning SQLITE_BUSY,
		// and the pragma must hold on the single pooled connection.
		db.SetMaxOpenConns(1)

		// Enable foreign key constraints (SQLite-specific)
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	if err := runMigrations(context.Background(), db, driver, 0); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Storage{db: db, driver: driver}, nil
}

// runMigrations applies the embedded migrations up to target, or all of them
// when target is 0.
func runMigrations(ctx context.Context, db *sqlx.DB, driver string, target int64) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(embedMigrations)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(driver); err != nil {
		return fmt.Errorf("unsupported migration dialect %q: %w", driver, err)
	}

	var err error
	if target > 0 {
		err = goose.UpToContext(ctx, db.DB, "migrations", target)
	} else {
		err = goose.UpContext(ctx, db.DB, "migrations")
	}
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// Driver returns the name of the SQL driver in use
func (s *Storage) Driver() string {
	return s.driver
}

// inTx runs fn in a transaction, rolling back when it fails.
func (s *Storage) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
