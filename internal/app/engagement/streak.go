// Package engagement implements the Stillpoint streak and achievement
// engine: daily-boundary streak tracking, milestone evaluation and
// unlock diffing, leaderboard ranking, and session statistics.
package engagement

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/stillpoint-app/stillpoint/internal/domain"
	"github.com/stillpoint-app/stillpoint/internal/infra/metrics"
	"github.com/stillpoint-app/stillpoint/internal/infra/sqlite"
)

// Clock returns the current instant. Injectable so tests pin "now".
type Clock func() time.Time

// maxTxAttempts bounds local retries on transaction conflicts before the
// error surfaces to the caller.
const maxTxAttempts = 3

// Service records meditation sessions and maintains each user's streak,
// total minutes, and unlocked milestones. All streak mutation goes
// through RecordSession inside a single transaction, so two concurrent
// calls for the same user serialize on commit order.
type Service struct {
	db      *sqlite.DB
	catalog *Catalog
	loc     *time.Location
	now     Clock
}

// NewService creates the engine against the store, milestone catalog,
// and reference timezone for day boundaries.
func NewService(db *sqlite.DB, catalog *Catalog, loc *time.Location) *Service {
	return &Service{db: db, catalog: catalog, loc: loc, now: time.Now}
}

// WithClock replaces the time source. Returns the service for chaining.
func (s *Service) WithClock(c Clock) *Service {
	s.now = c
	return s
}

// RecordResult is what a session-recording call reports back.
type RecordResult struct {
	SessionID      string `json:"session_id"`
	StreakCount    int    `json:"streak"`
	TotalMinutes   int    `json:"total_minutes"`
	TodayCompleted bool   `json:"today_completed"`

	NewAchievements []domain.AchievementDef `json:"new_achievements"`
	// AchievementsUnavailable is set when the streak update committed but
	// the milestone unlock could not be recorded. The streak result is
	// still valid; the unlock will be re-detected on a later call.
	AchievementsUnavailable bool `json:"achievements_unavailable,omitempty"`
}

// RecordSession records a new session of durationMin minutes completed
// now, applies the streak transition, and reports any newly unlocked
// milestones.
//
// Transition rules, evaluated against pre-insert history:
//   - a session already exists today → streak unchanged
//   - otherwise a session exists yesterday → streak + 1
//   - otherwise → streak reset to 1
//
// Total minutes always grow by durationMin, exactly once.
func (s *Service) RecordSession(ctx context.Context, userID string, durationMin int, kind, notes string) (RecordResult, error) {
	if durationMin < 1 {
		return RecordResult{}, domain.ErrInvalidDuration
	}

	started := time.Now()
	defer func() { metrics.RecordLatency.Observe(time.Since(started).Seconds()) }()

	now := s.now()
	today := domain.StartOfDay(now, s.loc)
	yesterday := today.AddDate(0, 0, -1)
	tomorrow := today.AddDate(0, 0, 1)

	sessionID := uuid.New().String()
	var before, after domain.Snapshot

	apply := func(tx *sqlite.Tx) error {
		u, err := tx.GetUser(userID)
		if err != nil {
			return err
		}
		if u == nil {
			return domain.ErrUserNotFound
		}

		hadToday, err := tx.HasSessionBetween(userID, today, tomorrow)
		if err != nil {
			return err
		}
		hadYesterday, err := tx.HasSessionBetween(userID, yesterday, today)
		if err != nil {
			return err
		}
		count, variety, longest, err := tx.SessionAggregates(userID)
		if err != nil {
			return err
		}
		kindSeen, err := tx.HasKind(userID, kind)
		if err != nil {
			return err
		}

		before = domain.Snapshot{
			StreakCount:       u.StreakCount,
			TotalMinutes:      u.TotalMinutes,
			SessionCount:      count,
			VarietyCount:      variety,
			LongestSessionMin: longest,
		}

		newStreak := u.StreakCount
		switch {
		case hadToday:
			// Today already counted — streak stays put.
		case hadYesterday:
			newStreak = u.StreakCount + 1
		default:
			newStreak = 1
		}

		after = domain.Snapshot{
			StreakCount:       newStreak,
			TotalMinutes:      u.TotalMinutes + durationMin,
			SessionCount:      count + 1,
			VarietyCount:      variety,
			LongestSessionMin: max(longest, durationMin),
		}
		if !kindSeen {
			after.VarietyCount = variety + 1
		}

		if err := tx.InsertSession(domain.MeditationSession{
			ID:          sessionID,
			UserID:      userID,
			DurationMin: durationMin,
			CompletedAt: now,
			Kind:        kind,
			Notes:       notes,
		}); err != nil {
			return err
		}
		return tx.UpdateStreak(userID, after.StreakCount, after.TotalMinutes, now)
	}

	var txErr error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		txErr = s.db.InTx(ctx, apply)
		if !errors.Is(txErr, domain.ErrTxConflict) {
			break
		}
		time.Sleep(time.Duration(attempt) * 10 * time.Millisecond)
	}
	if txErr != nil {
		return RecordResult{}, txErr
	}

	metrics.SessionsRecorded.Inc()
	metrics.MinutesRecorded.Add(float64(durationMin))

	result := RecordResult{
		SessionID:      sessionID,
		StreakCount:    after.StreakCount,
		TotalMinutes:   after.TotalMinutes,
		TodayCompleted: true,
	}

	// Milestone detection runs against the snapshots captured inside the
	// transaction, never reconstructed after the fact.
	result.NewAchievements = s.catalog.Diff(s.catalog.Evaluate(before), s.catalog.Evaluate(after))
	if len(result.NewAchievements) > 0 {
		ids := make([]string, len(result.NewAchievements))
		for i, def := range result.NewAchievements {
			ids[i] = def.ID
		}
		if err := s.db.UnlockAchievements(userID, ids, now); err != nil {
			// The streak update is already committed; report it anyway.
			log.Printf("[engagement] record unlocks for %s: %v", userID, err)
			result.AchievementsUnavailable = true
		} else {
			metrics.AchievementsUnlocked.Add(float64(len(ids)))
		}
	}

	return result, nil
}

// Evaluations returns the full catalog evaluated against the user's
// current state, including session-history metrics.
func (s *Service) Evaluations(ctx context.Context, userID string) ([]domain.Evaluation, error) {
	var snap domain.Snapshot
	err := s.db.InTx(ctx, func(tx *sqlite.Tx) error {
		u, err := tx.GetUser(userID)
		if err != nil {
			return err
		}
		if u == nil {
			return domain.ErrUserNotFound
		}
		count, variety, longest, err := tx.SessionAggregates(userID)
		if err != nil {
			return err
		}
		snap = domain.Snapshot{
			StreakCount:       u.StreakCount,
			TotalMinutes:      u.TotalMinutes,
			SessionCount:      count,
			VarietyCount:      variety,
			LongestSessionMin: longest,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.catalog.Evaluate(snap), nil
}
