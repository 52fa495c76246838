// Package sqlite provides SQLite-based persistent storage for Stillpoint.
// Uses WAL mode for concurrent reads and crash-safe writes.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)

	"github.com/stillpoint-app/stillpoint/internal/domain"
)

// DB wraps a SQLite connection with WAL mode and migrations.
type DB struct {
	db *sql.DB
}

// Open creates or opens the SQLite database at dir/stillpoint.db.
// Enables WAL mode, foreign keys, and 5-second busy timeout.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "stillpoint.db")
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// Connection pool settings for SQLite
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks database connectivity.
func (d *DB) Ping() error {
	return d.db.Ping()
}

// migrate runs idempotent schema migrations.
func (d *DB) migrate() error {
	migrations := []string{
		// User aggregates. streak_count and total_minutes change only
		// inside a session-recording transaction; streak_touched_at
		// guards the sweep against racing a live insert.
		`CREATE TABLE IF NOT EXISTS users (
			id                TEXT PRIMARY KEY,
			handle            TEXT NOT NULL UNIQUE,
			display_name      TEXT NOT NULL DEFAULT '',
			streak_count      INTEGER NOT NULL DEFAULT 0,
			total_minutes     INTEGER NOT NULL DEFAULT 0,
			streak_touched_at INTEGER NOT NULL DEFAULT 0,
			created_at        INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_minutes ON users(total_minutes DESC, id ASC)`,

		// Meditation sessions — immutable after insert.
		`CREATE TABLE IF NOT EXISTS sessions (
			id           TEXT PRIMARY KEY,
			user_id      TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			duration_min INTEGER NOT NULL CHECK (duration_min >= 1),
			completed_at INTEGER NOT NULL,
			kind         TEXT NOT NULL DEFAULT '',
			notes        TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_user_time ON sessions(user_id, completed_at)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_time ON sessions(completed_at)`,

		// Unlocked achievements, one row per (user, milestone).
		`CREATE TABLE IF NOT EXISTS user_achievements (
			user_id        TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			achievement_id TEXT NOT NULL,
			unlocked_at    INTEGER NOT NULL,
			PRIMARY KEY (user_id, achievement_id)
		)`,

		// Mentions fanned out from session notes.
		`CREATE TABLE IF NOT EXISTS mentions (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id   TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			author_id    TEXT NOT NULL,
			mentioned_id TEXT NOT NULL,
			created_at   INTEGER NOT NULL,
			UNIQUE (session_id, mentioned_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_mentions_user ON mentions(mentioned_id, created_at)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// ─── Transactions ───────────────────────────────────────────────────────────

// Tx exposes the per-user read-modify-write primitives used by the
// streak engine. All methods run on the same underlying transaction, so
// the engine's window checks and updates are serialized per commit.
type Tx struct {
	tx *sql.Tx
}

// InTx runs fn inside a transaction. A locked database surfaces as
// domain.ErrTxConflict so callers can retry; any error rolls back.
func (d *DB) InTx(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return mapBusy(err)
	}

	if err := fn(&Tx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return mapBusy(err)
	}

	if err := tx.Commit(); err != nil {
		return mapBusy(err)
	}
	return nil
}

// mapBusy converts SQLite lock contention into the domain conflict
// sentinel. Other errors pass through unchanged.
func mapBusy(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked") {
		return fmt.Errorf("%w: %s", domain.ErrTxConflict, msg)
	}
	return err
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}
