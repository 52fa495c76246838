// Package domain holds the core types for Stillpoint.
// The streak, achievement, and leaderboard logic operates only on these
// types; persistence and transport live in their own packages.
package domain

import "time"

// ─── User Types ─────────────────────────────────────────────────────────────

// UserProfile is the long-lived per-user aggregate. StreakCount and
// TotalMinutes are mutated only through the streak engine, inside a
// transaction together with the session insert.
type UserProfile struct {
	ID           string `json:"id"`
	Handle       string `json:"handle"`
	DisplayName  string `json:"display_name"`
	StreakCount  int    `json:"streak_count"`
	TotalMinutes int    `json:"total_minutes"`
	// StreakTouchedAt is the last instant the streak fields were written.
	// The inactive-streak sweep only resets rows untouched since the
	// window it evaluates, so it cannot race a live session insert.
	StreakTouchedAt time.Time `json:"streak_touched_at"`
	CreatedAt       time.Time `json:"created_at"`
}

// ─── Session Types ──────────────────────────────────────────────────────────

// MeditationSession is immutable once created. Duration is whole minutes.
type MeditationSession struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	DurationMin int       `json:"duration_min"`
	CompletedAt time.Time `json:"completed_at"`
	Kind        string    `json:"kind,omitempty"` // breathing, body_scan, ... (free-form)
	Notes       string    `json:"notes,omitempty"`
}

// SessionStats are read-only statistics derived from a user's full
// session history.
type SessionStats struct {
	TotalSessions     int       `json:"total_sessions"`
	TotalMinutes      int       `json:"total_minutes"`
	AverageMinutes    float64   `json:"average_minutes"`
	LongestSessionMin int       `json:"longest_session_min"`
	MostFrequentKind  string    `json:"most_frequent_kind,omitempty"`
	LastSessionAt     time.Time `json:"last_session_at"`
	// ConsistencyRate is distinct active days in the last 30 days / 30, as
	// a percentage.
	ConsistencyRate float64 `json:"consistency_rate"`
}

// ─── Leaderboard Types ──────────────────────────────────────────────────────

// Timeframe scopes leaderboard ranking.
type Timeframe string

const (
	TimeframeWeek  Timeframe = "week"
	TimeframeMonth Timeframe = "month"
	TimeframeYear  Timeframe = "year"
	TimeframeAll   Timeframe = "all"
)

// Valid reports whether the timeframe is one of the four known values.
func (t Timeframe) Valid() bool {
	switch t {
	case TimeframeWeek, TimeframeMonth, TimeframeYear, TimeframeAll:
		return true
	}
	return false
}

// LeaderboardEntry is one row of a ranked leaderboard. Rank is 1-based.
// Ties on Minutes are broken by ascending user ID.
type LeaderboardEntry struct {
	UserID      string `json:"user_id"`
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name"`
	Minutes     int    `json:"minutes"`
	Rank        int    `json:"rank"`
}

// Standing is a single user's position on a leaderboard.
type Standing struct {
	UserID    string    `json:"user_id"`
	Timeframe Timeframe `json:"timeframe"`
	Minutes   int       `json:"minutes"`
	Rank      int       `json:"rank"`
}
