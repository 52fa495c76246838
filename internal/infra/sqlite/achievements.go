package sqlite

import (
	"time"

	"github.com/stillpoint-app/stillpoint/internal/domain"
)

// ─── Achievements ───────────────────────────────────────────────────────────

// UnlockAchievements records the given milestones as unlocked for the
// user. Already-unlocked rows are ignored (idempotent).
func (d *DB) UnlockAchievements(userID string, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	for _, id := range ids {
		_, err := d.db.Exec(
			`INSERT OR IGNORE INTO user_achievements (user_id, achievement_id, unlocked_at)
			 VALUES (?, ?, ?)`,
			userID, id, at.Unix(),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// ListUnlockedAchievements returns the user's earned milestones, most
// recent first.
func (d *DB) ListUnlockedAchievements(userID string) ([]domain.UnlockedAchievement, error) {
	rows, err := d.db.Query(
		`SELECT user_id, achievement_id, unlocked_at FROM user_achievements
		 WHERE user_id = ? ORDER BY unlocked_at DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var unlocked []domain.UnlockedAchievement
	for rows.Next() {
		var a domain.UnlockedAchievement
		var at int64
		if err := rows.Scan(&a.UserID, &a.AchievementID, &at); err != nil {
			return nil, err
		}
		a.UnlockedAt = time.Unix(at, 0)
		unlocked = append(unlocked, a)
	}
	return unlocked, rows.Err()
}

// ─── Mentions ───────────────────────────────────────────────────────────────

// Mention is one fan-out row: author mentioned another user in a
// session note.
type Mention struct {
	SessionID   string
	AuthorID    string
	MentionedID string
	CreatedAt   time.Time
}

// InsertMentions bulk-inserts mention rows. Duplicate (session,
// mentioned) pairs are ignored.
func (d *DB) InsertMentions(mentions []Mention) error {
	if len(mentions) == 0 {
		return nil
	}
	for _, m := range mentions {
		_, err := d.db.Exec(
			`INSERT OR IGNORE INTO mentions (session_id, author_id, mentioned_id, created_at)
			 VALUES (?, ?, ?, ?)`,
			m.SessionID, m.AuthorID, m.MentionedID, m.CreatedAt.Unix(),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// MentionsOf returns the most recent mentions of the given user.
func (d *DB) MentionsOf(userID string, limit int) ([]Mention, error) {
	rows, err := d.db.Query(
		`SELECT session_id, author_id, mentioned_id, created_at FROM mentions
		 WHERE mentioned_id = ? ORDER BY created_at DESC LIMIT ?`, userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Mention
	for rows.Next() {
		var m Mention
		var at int64
		if err := rows.Scan(&m.SessionID, &m.AuthorID, &m.MentionedID, &at); err != nil {
			return nil, err
		}
		m.CreatedAt = time.Unix(at, 0)
		out = append(out, m)
	}
	return out, rows.Err()
}
