// Package sqlite provides persistent storage for settlements.
// It owns the schema and all SQL; upper layers speak domain types only.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure-Go sqlite driver
)

// DB wraps the sqlite handle.
type DB struct {
	db *sql.DB
}

// Open opens (creating if needed) the settlement database at path and runs
// migrations. Use ":memory:" for tests.
func Open(path string) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Single writer; sqlite serializes writes anyway and this avoids
	// SQLITE_BUSY under concurrent settlements.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		`PRAGMA journal_mode = WAL`,
		`PRAGMA busy_timeout = 5000`,
		`PRAGMA foreign_keys = ON`,
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma: %w", err)
		}
	}

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the underlying handle.
func (d *DB) Close() error { return d.db.Close() }

// migrate applies the schema. Each string is a single SQL statement
// (sqlite executes one at a time).
func (d *DB) migrate() error {
	for _, stmt := range Migrations() {
		if _, err := d.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Migrations returns the schema migration statements.
func Migrations() []string {
	return []string{
		// Idempotency reservations. The PRIMARY KEY makes INSERT OR IGNORE
		// the atomic check-and-reserve.
		`CREATE TABLE IF NOT EXISTS payment_reservations (
			payment_id  TEXT PRIMARY KEY,
			reserved_at TEXT NOT NULL DEFAULT (datetime('now')),
			expires_at  TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_expiry ON payment_reservations(expires_at)`,

		// One row per orchestration call.
		`CREATE TABLE IF NOT EXISTS settlements (
			payment_id  TEXT PRIMARY KEY,
			amount      TEXT NOT NULL,
			currency    TEXT NOT NULL,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			deduped     INTEGER NOT NULL DEFAULT 0,
			created_at  TEXT NOT NULL
		)`,

		// One row per channel leg of a settlement.
		`CREATE TABLE IF NOT EXISTS settlement_legs (
			payment_id  TEXT NOT NULL REFERENCES settlements(payment_id),
			channel     TEXT NOT NULL,
			amount      TEXT NOT NULL DEFAULT '',
			result_kind TEXT NOT NULL,
			reason      TEXT NOT NULL DEFAULT '',
			note        TEXT NOT NULL DEFAULT '',
			external_id TEXT NOT NULL DEFAULT '',
			status      TEXT NOT NULL DEFAULT '',
			error       TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (payment_id, channel)
		)`,
	}
}
