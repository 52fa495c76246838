package sqlite

import (
	"database/sql"
	"time"

	"github.com/stillpoint-app/stillpoint/internal/domain"
)

// ─── Leaderboard Queries ────────────────────────────────────────────────────
// Ranking is computed in SQL: rank = 1 + users strictly ahead. Ties on
// minutes are broken by ascending user ID so ranks are deterministic.

// AllTimeMinutes returns the user's lifetime total minutes.
func (d *DB) AllTimeMinutes(userID string) (int, error) {
	u, err := d.GetUser(userID)
	if err != nil {
		return 0, err
	}
	if u == nil {
		return 0, domain.ErrUserNotFound
	}
	return u.TotalMinutes, nil
}

// WindowedMinutes returns the sum of the user's session durations with
// completed_at >= since.
func (d *DB) WindowedMinutes(userID string, since time.Time) (int, error) {
	var n int
	err := d.db.QueryRow(
		`SELECT COALESCE(SUM(duration_min), 0) FROM sessions
		 WHERE user_id = ? AND completed_at >= ?`, userID, since.Unix(),
	).Scan(&n)
	return n, err
}

// AllTimeRank returns the 1-based rank of the user among all users by
// total_minutes. Zero-minute users are ranked too.
func (d *DB) AllTimeRank(userID string, minutes int) (int, error) {
	var ahead int
	err := d.db.QueryRow(
		`SELECT COUNT(*) FROM users
		 WHERE total_minutes > ?
		    OR (total_minutes = ? AND id < ?)`,
		minutes, minutes, userID,
	).Scan(&ahead)
	return 1 + ahead, err
}

// WindowedRank returns the 1-based rank among users with any activity in
// the window. Users with a zero windowed sum are not counted.
func (d *DB) WindowedRank(userID string, minutes int, since time.Time) (int, error) {
	var ahead int
	err := d.db.QueryRow(
		`SELECT COUNT(*) FROM (
			SELECT user_id, SUM(duration_min) AS total FROM sessions
			WHERE completed_at >= ?
			GROUP BY user_id
			HAVING total > 0
		 ) WHERE total > ? OR (total = ? AND user_id < ?)`,
		since.Unix(), minutes, minutes, userID,
	).Scan(&ahead)
	return 1 + ahead, err
}

// TopAllTime returns a page of the all-time leaderboard ordered by
// total_minutes descending, user ID ascending. Ranks are filled in by
// the caller from the page offset.
func (d *DB) TopAllTime(limit, offset int) ([]domain.LeaderboardEntry, error) {
	rows, err := d.db.Query(
		`SELECT id, handle, display_name, total_minutes FROM users
		 ORDER BY total_minutes DESC, id ASC
		 LIMIT ? OFFSET ?`, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows, offset)
}

// TopWindow returns a page of the windowed leaderboard. Only users with
// activity in the window appear.
func (d *DB) TopWindow(since time.Time, limit, offset int) ([]domain.LeaderboardEntry, error) {
	rows, err := d.db.Query(
		`SELECT u.id, u.handle, u.display_name, SUM(s.duration_min) AS total
		 FROM sessions s JOIN users u ON u.id = s.user_id
		 WHERE s.completed_at >= ?
		 GROUP BY u.id
		 HAVING total > 0
		 ORDER BY total DESC, u.id ASC
		 LIMIT ? OFFSET ?`, since.Unix(), limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows, offset)
}

// CountActiveSince returns how many users have at least one session in
// the window.
func (d *DB) CountActiveSince(since time.Time) (int, error) {
	var n int
	err := d.db.QueryRow(
		`SELECT COUNT(DISTINCT user_id) FROM sessions WHERE completed_at >= ?`,
		since.Unix(),
	).Scan(&n)
	return n, err
}

func scanEntries(rows *sql.Rows, offset int) ([]domain.LeaderboardEntry, error) {
	var entries []domain.LeaderboardEntry
	rank := offset
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Handle, &e.DisplayName, &e.Minutes); err != nil {
			return nil, err
		}
		rank++
		e.Rank = rank
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
