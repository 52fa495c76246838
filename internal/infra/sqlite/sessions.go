package sqlite

import (
	"time"

	"github.com/stillpoint-app/stillpoint/internal/domain"
)

// ─── Session Repository ─────────────────────────────────────────────────────

// ListSessions returns the user's sessions, most recent first, up to limit.
func (d *DB) ListSessions(userID string, limit int) ([]domain.MeditationSession, error) {
	rows, err := d.db.Query(
		`SELECT id, user_id, duration_min, completed_at, kind, notes
		 FROM sessions WHERE user_id = ?
		 ORDER BY completed_at DESC LIMIT ?`, userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.MeditationSession
	for rows.Next() {
		var s domain.MeditationSession
		var completedAt int64
		if err := rows.Scan(&s.ID, &s.UserID, &s.DurationMin, &completedAt, &s.Kind, &s.Notes); err != nil {
			return nil, err
		}
		s.CompletedAt = time.Unix(completedAt, 0)
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// SessionHistory returns duration, completion time, and kind for every
// session of the user, oldest first. Input to the stats aggregator.
func (d *DB) SessionHistory(userID string) ([]domain.MeditationSession, error) {
	rows, err := d.db.Query(
		`SELECT id, user_id, duration_min, completed_at, kind, notes
		 FROM sessions WHERE user_id = ?
		 ORDER BY completed_at ASC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.MeditationSession
	for rows.Next() {
		var s domain.MeditationSession
		var completedAt int64
		if err := rows.Scan(&s.ID, &s.UserID, &s.DurationMin, &completedAt, &s.Kind, &s.Notes); err != nil {
			return nil, err
		}
		s.CompletedAt = time.Unix(completedAt, 0)
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// ─── Transactional Session Access ───────────────────────────────────────────

// HasSessionBetween reports whether the user has any session with
// completed_at in [from, to).
func (t *Tx) HasSessionBetween(userID string, from, to time.Time) (bool, error) {
	var n int
	err := t.tx.QueryRow(
		`SELECT COUNT(*) FROM sessions
		 WHERE user_id = ? AND completed_at >= ? AND completed_at < ?`,
		userID, from.Unix(), to.Unix(),
	).Scan(&n)
	return n > 0, err
}

// InsertSession stores a new immutable session row.
func (t *Tx) InsertSession(s domain.MeditationSession) error {
	_, err := t.tx.Exec(
		`INSERT INTO sessions (id, user_id, duration_min, completed_at, kind, notes)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID, s.DurationMin, s.CompletedAt.Unix(), s.Kind, s.Notes,
	)
	return err
}

// SessionAggregates returns session count, distinct-kind count, and the
// longest single session for the user, all within the transaction. Used
// to build achievement snapshots against pre-insert history.
func (t *Tx) SessionAggregates(userID string) (count, variety, longest int, err error) {
	err = t.tx.QueryRow(
		`SELECT COUNT(*),
		        COUNT(DISTINCT CASE WHEN kind != '' THEN kind END),
		        COALESCE(MAX(duration_min), 0)
		 FROM sessions WHERE user_id = ?`, userID,
	).Scan(&count, &variety, &longest)
	return count, variety, longest, err
}

// HasKind reports whether the user already has a session of this kind.
func (t *Tx) HasKind(userID, kind string) (bool, error) {
	if kind == "" {
		return true, nil
	}
	var n int
	err := t.tx.QueryRow(
		`SELECT COUNT(*) FROM sessions WHERE user_id = ? AND kind = ?`,
		userID, kind,
	).Scan(&n)
	return n > 0, err
}
