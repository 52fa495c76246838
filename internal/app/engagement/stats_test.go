package engagement_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stillpoint-app/stillpoint/internal/app/engagement"
	"github.com/stillpoint-app/stillpoint/internal/domain"
)

func session(at time.Time, min int, kind string) domain.MeditationSession {
	return domain.MeditationSession{DurationMin: min, CompletedAt: at, Kind: kind}
}

func TestComputeStats_Empty(t *testing.T) {
	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	stats := engagement.ComputeStats(nil, now, time.UTC)
	if stats != (domain.SessionStats{}) {
		t.Errorf("empty history must yield zero stats, got %+v", stats)
	}
}

func TestComputeStats_Totals(t *testing.T) {
	now := time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)
	history := []domain.MeditationSession{
		session(now.AddDate(0, 0, -3), 10, "breathing"),
		session(now.AddDate(0, 0, -2), 30, "body_scan"),
		session(now.AddDate(0, 0, -1), 20, "breathing"),
	}

	stats := engagement.ComputeStats(history, now, time.UTC)
	if stats.TotalSessions != 3 {
		t.Errorf("expected 3 sessions, got %d", stats.TotalSessions)
	}
	if stats.TotalMinutes != 60 {
		t.Errorf("expected 60 minutes, got %d", stats.TotalMinutes)
	}
	if stats.AverageMinutes != 20 {
		t.Errorf("expected average 20, got %v", stats.AverageMinutes)
	}
	if stats.LongestSessionMin != 30 {
		t.Errorf("expected longest 30, got %d", stats.LongestSessionMin)
	}
	if stats.MostFrequentKind != "breathing" {
		t.Errorf("expected 'breathing' as mode, got %q", stats.MostFrequentKind)
	}
	if !stats.LastSessionAt.Equal(now.AddDate(0, 0, -1)) {
		t.Errorf("wrong last session time: %v", stats.LastSessionAt)
	}
}

func TestComputeStats_ModeTieGoesToFirstSeen(t *testing.T) {
	now := time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)
	history := []domain.MeditationSession{
		session(now.Add(-3*time.Hour), 10, "walking"),
		session(now.Add(-2*time.Hour), 10, "breathing"),
		session(now.Add(-1*time.Hour), 10, "breathing"),
		session(now.Add(-30*time.Minute), 10, "walking"),
	}

	stats := engagement.ComputeStats(history, now, time.UTC)
	if stats.MostFrequentKind != "walking" {
		t.Errorf("tie should go to first kind in history order, got %q", stats.MostFrequentKind)
	}
}

func TestComputeStats_ConsistencyWindow(t *testing.T) {
	now := time.Date(2025, 7, 31, 12, 0, 0, 0, time.UTC)

	// 3 distinct days inside the 30-day window, one far outside it.
	// Two sessions on the same day count once.
	history := []domain.MeditationSession{
		session(now.AddDate(0, 0, -60), 10, ""),
		session(now.AddDate(0, 0, -5), 10, ""),
		session(now.AddDate(0, 0, -5).Add(time.Hour), 10, ""),
		session(now.AddDate(0, 0, -2), 10, ""),
		session(now, 10, ""),
	}

	stats := engagement.ComputeStats(history, now, time.UTC)
	if stats.ConsistencyRate != 10.0 { // 3/30 = 10%
		t.Errorf("expected 10.0%% consistency, got %v", stats.ConsistencyRate)
	}
}

func TestComputeStats_UntaggedKindsIgnoredForMode(t *testing.T) {
	now := time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)
	history := []domain.MeditationSession{
		session(now.Add(-3*time.Hour), 10, ""),
		session(now.Add(-2*time.Hour), 10, ""),
		session(now.Add(-1*time.Hour), 10, "breathing"),
	}

	stats := engagement.ComputeStats(history, now, time.UTC)
	if stats.MostFrequentKind != "breathing" {
		t.Errorf("untagged sessions must not win the mode, got %q", stats.MostFrequentKind)
	}
}

func TestAggregator_Stats(t *testing.T) {
	db := testDB(t)
	user := newUser(t, db, "u1")
	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	svc := testService(db, &now)

	if _, err := svc.RecordSession(context.Background(), user, 25, "breathing", ""); err != nil {
		t.Fatalf("record: %v", err)
	}

	agg := engagement.NewAggregator(db, time.UTC).WithClock(func() time.Time { return now })
	stats, err := agg.Stats(user)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalSessions != 1 || stats.TotalMinutes != 25 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestAggregator_UnknownUser(t *testing.T) {
	db := testDB(t)
	agg := engagement.NewAggregator(db, time.UTC)

	if _, err := agg.Stats("ghost"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAggregator_NoSessionsIsZeroStats(t *testing.T) {
	db := testDB(t)
	user := newUser(t, db, "u1")
	agg := engagement.NewAggregator(db, time.UTC)

	stats, err := agg.Stats(user)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats != (domain.SessionStats{}) {
		t.Errorf("sessionless user must get zero stats, got %+v", stats)
	}
}
