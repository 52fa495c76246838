package sqlite

import (
	"database/sql"
	"strings"
	"time"

	"github.com/stillpoint-app/stillpoint/internal/domain"
)

// ─── User Repository ────────────────────────────────────────────────────────

// CreateUser inserts a new user aggregate with zeroed streak state.
func (d *DB) CreateUser(u domain.UserProfile) error {
	_, err := d.db.Exec(
		`INSERT INTO users (id, handle, display_name, streak_count, total_minutes, streak_touched_at, created_at)
		 VALUES (?, ?, ?, 0, 0, 0, ?)`,
		u.ID, u.Handle, u.DisplayName, u.CreatedAt.Unix(),
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: users.handle") {
		return domain.ErrHandleTaken
	}
	return err
}

// GetUser retrieves a user aggregate by ID.
func (d *DB) GetUser(id string) (*domain.UserProfile, error) {
	row := d.db.QueryRow(
		`SELECT id, handle, display_name, streak_count, total_minutes, streak_touched_at, created_at
		 FROM users WHERE id = ?`, id,
	)
	return scanUser(row)
}

// UsersByHandles resolves handles to user IDs in one query. Unknown
// handles are simply absent from the result.
func (d *DB) UsersByHandles(handles []string) (map[string]string, error) {
	if len(handles) == 0 {
		return map[string]string{}, nil
	}

	placeholders := strings.Repeat("?,", len(handles))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(handles))
	for i, h := range handles {
		args[i] = h
	}

	rows, err := d.db.Query(
		`SELECT handle, id FROM users WHERE handle IN (`+placeholders+`)`, args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string, len(handles))
	for rows.Next() {
		var handle, id string
		if err := rows.Scan(&handle, &id); err != nil {
			return nil, err
		}
		out[handle] = id
	}
	return out, rows.Err()
}

// CountUsers returns the total number of user aggregates.
func (d *DB) CountUsers() (int, error) {
	var n int
	err := d.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

// ─── Sweep ──────────────────────────────────────────────────────────────────

// ResetInactiveStreaks zeroes the streak of every user with an active
// streak, no session inside [windowStart, windowEnd), and no streak
// write since windowEnd. The touched-at guard keeps the sweep from
// undoing a session recorded concurrently with the scan.
func (d *DB) ResetInactiveStreaks(windowStart, windowEnd time.Time) (int64, error) {
	res, err := d.db.Exec(
		`UPDATE users SET streak_count = 0
		 WHERE streak_count > 0
		   AND streak_touched_at < ?
		   AND id NOT IN (
			SELECT DISTINCT user_id FROM sessions
			WHERE completed_at >= ? AND completed_at < ?
		   )`,
		windowEnd.Unix(), windowStart.Unix(), windowEnd.Unix(),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ─── Transactional User Access ──────────────────────────────────────────────

// GetUser loads the user aggregate inside the transaction.
func (t *Tx) GetUser(id string) (*domain.UserProfile, error) {
	row := t.tx.QueryRow(
		`SELECT id, handle, display_name, streak_count, total_minutes, streak_touched_at, created_at
		 FROM users WHERE id = ?`, id,
	)
	return scanUser(row)
}

// UpdateStreak writes the new streak state and stamps streak_touched_at.
func (t *Tx) UpdateStreak(userID string, streakCount, totalMinutes int, touchedAt time.Time) error {
	_, err := t.tx.Exec(
		`UPDATE users SET streak_count = ?, total_minutes = ?, streak_touched_at = ?
		 WHERE id = ?`,
		streakCount, totalMinutes, touchedAt.Unix(), userID,
	)
	return err
}

// ─── Scanners ───────────────────────────────────────────────────────────────

func scanUser(s scanner) (*domain.UserProfile, error) {
	var u domain.UserProfile
	var touchedAt, createdAt int64

	err := s.Scan(&u.ID, &u.Handle, &u.DisplayName,
		&u.StreakCount, &u.TotalMinutes, &touchedAt, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil // Not found, no error
	}
	if err != nil {
		return nil, err
	}

	if touchedAt > 0 {
		u.StreakTouchedAt = time.Unix(touchedAt, 0)
	}
	u.CreatedAt = time.Unix(createdAt, 0)
	return &u, nil
}
