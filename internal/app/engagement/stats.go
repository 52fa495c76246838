package engagement

import (
	"math"
	"time"

	"github.com/stillpoint-app/stillpoint/internal/domain"
	"github.com/stillpoint-app/stillpoint/internal/infra/sqlite"
)

// Aggregator derives read-only statistics from a user's full session
// history. Pure computation over the history; the only I/O is the
// history read itself.
type Aggregator struct {
	db  *sqlite.DB
	loc *time.Location
	now Clock
}

// NewAggregator creates a stats aggregator with the reference timezone
// used for active-day grouping.
func NewAggregator(db *sqlite.DB, loc *time.Location) *Aggregator {
	return &Aggregator{db: db, loc: loc, now: time.Now}
}

// WithClock replaces the time source. Returns the aggregator for chaining.
func (a *Aggregator) WithClock(c Clock) *Aggregator {
	a.now = c
	return a
}

// Stats computes the user's session statistics. A user with no sessions
// gets all-zero stats, not an error.
func (a *Aggregator) Stats(userID string) (domain.SessionStats, error) {
	u, err := a.db.GetUser(userID)
	if err != nil {
		return domain.SessionStats{}, err
	}
	if u == nil {
		return domain.SessionStats{}, domain.ErrUserNotFound
	}

	history, err := a.db.SessionHistory(userID)
	if err != nil {
		return domain.SessionStats{}, err
	}

	return ComputeStats(history, a.now(), a.loc), nil
}

// ComputeStats derives statistics from an oldest-first session history.
// Exposed as a pure function so it is testable without a store.
func ComputeStats(history []domain.MeditationSession, now time.Time, loc *time.Location) domain.SessionStats {
	var stats domain.SessionStats
	if len(history) == 0 {
		return stats
	}

	kindCounts := make(map[string]int)
	kindOrder := make([]string, 0, 8)
	activeDays := make(map[time.Time]struct{})
	windowStart := now.AddDate(0, 0, -30)

	for _, s := range history {
		stats.TotalSessions++
		stats.TotalMinutes += s.DurationMin
		if s.DurationMin > stats.LongestSessionMin {
			stats.LongestSessionMin = s.DurationMin
		}
		if s.CompletedAt.After(stats.LastSessionAt) {
			stats.LastSessionAt = s.CompletedAt
		}
		if s.Kind != "" {
			if _, seen := kindCounts[s.Kind]; !seen {
				kindOrder = append(kindOrder, s.Kind)
			}
			kindCounts[s.Kind]++
		}
		if !s.CompletedAt.Before(windowStart) {
			activeDays[domain.StartOfDay(s.CompletedAt, loc)] = struct{}{}
		}
	}

	stats.AverageMinutes = float64(stats.TotalMinutes) / float64(stats.TotalSessions)

	// Mode over kind; ties go to the first kind encountered in history order.
	best := 0
	for _, kind := range kindOrder {
		if kindCounts[kind] > best {
			best = kindCounts[kind]
			stats.MostFrequentKind = kind
		}
	}

	stats.ConsistencyRate = math.Round(float64(len(activeDays))/30*100*10) / 10
	return stats
}
