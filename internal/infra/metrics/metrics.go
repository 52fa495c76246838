// Package metrics provides Prometheus metrics for Stillpoint — counters
// and histograms for session recording, milestone unlocks, streak
// sweeps, and leaderboard queries.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Sessions ───────────────────────────────────────────────────────────────

// SessionsRecorded counts committed meditation sessions.
var SessionsRecorded = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "stillpoint",
	Name:      "sessions_recorded_total",
	Help:      "Total meditation sessions recorded.",
})

// MinutesRecorded counts meditation minutes accrued across all users.
var MinutesRecorded = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "stillpoint",
	Name:      "minutes_recorded_total",
	Help:      "Total meditation minutes recorded.",
})

// RecordLatency tracks session-recording duration in seconds, including
// the transaction retries.
var RecordLatency = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "stillpoint",
	Name:      "record_latency_seconds",
	Help:      "Session recording duration in seconds.",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
})

// ─── Achievements ───────────────────────────────────────────────────────────

// AchievementsUnlocked counts newly unlocked milestones.
var AchievementsUnlocked = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "stillpoint",
	Name:      "achievements_unlocked_total",
	Help:      "Total milestone unlocks recorded.",
})

// ─── Streak Sweep ───────────────────────────────────────────────────────────

// StreakSweepResets counts streaks zeroed by the inactive-streak sweep.
var StreakSweepResets = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "stillpoint",
	Name:      "streak_sweep_resets_total",
	Help:      "Streaks reset by the daily inactivity sweep.",
})

// ─── Leaderboard ────────────────────────────────────────────────────────────

// LeaderboardLatency tracks leaderboard query duration by timeframe.
var LeaderboardLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "stillpoint",
	Name:      "leaderboard_latency_seconds",
	Help:      "Leaderboard query duration in seconds.",
	Buckets:   prometheus.DefBuckets,
}, []string{"timeframe"})

// ─── Mentions ───────────────────────────────────────────────────────────────

// MentionsFannedOut counts mention rows written by the fan-out.
var MentionsFannedOut = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "stillpoint",
	Name:      "mentions_fanned_out_total",
	Help:      "Mention rows written from session notes.",
})
