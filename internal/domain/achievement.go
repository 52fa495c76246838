package domain

import "time"

// ─── Achievement Types ──────────────────────────────────────────────────────

// AchievementType selects which snapshot metric a milestone measures.
type AchievementType string

const (
	AchieveStreak       AchievementType = "streak"
	AchieveTotalMinutes AchievementType = "total_minutes"
	AchieveSessionCount AchievementType = "session_count"
	AchieveVariety      AchievementType = "variety"
	AchieveLongSession  AchievementType = "long_session"
)

// AchievementDef defines a single milestone: reach Threshold on the
// metric selected by Type. The catalog of definitions is built once at
// startup and never mutated.
type AchievementDef struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Type        AchievementType `json:"type"`
	Threshold   int             `json:"threshold"`
	Description string          `json:"description"`
}

// Snapshot is the point-in-time user state achievements are evaluated
// against. It is ephemeral — captured, evaluated, discarded.
type Snapshot struct {
	StreakCount       int `json:"streak_count"`
	TotalMinutes      int `json:"total_minutes"`
	SessionCount      int `json:"session_count"`
	VarietyCount      int `json:"variety_count"`
	LongestSessionMin int `json:"longest_session_min"`
}

// Metric returns the snapshot value measured by the given milestone type.
func (s Snapshot) Metric(t AchievementType) int {
	switch t {
	case AchieveStreak:
		return s.StreakCount
	case AchieveTotalMinutes:
		return s.TotalMinutes
	case AchieveSessionCount:
		return s.SessionCount
	case AchieveVariety:
		return s.VarietyCount
	case AchieveLongSession:
		return s.LongestSessionMin
	}
	return 0
}

// Evaluation is the result of checking one definition against a snapshot.
type Evaluation struct {
	Def      AchievementDef `json:"definition"`
	Achieved bool           `json:"achieved"`
	Progress int            `json:"progress"` // 0..100
}

// UnlockedAchievement records when a user earned a milestone.
type UnlockedAchievement struct {
	UserID        string    `json:"user_id"`
	AchievementID string    `json:"achievement_id"`
	UnlockedAt    time.Time `json:"unlocked_at"`
}
