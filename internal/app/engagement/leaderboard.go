package engagement

import (
	"time"

	"github.com/stillpoint-app/stillpoint/internal/domain"
	"github.com/stillpoint-app/stillpoint/internal/infra/metrics"
	"github.com/stillpoint-app/stillpoint/internal/infra/sqlite"
)

// Ranker computes leaderboard positions by meditation minutes, either
// lifetime ("all") or summed over a recent calendar window. Read-only:
// it never writes, so it runs unsynchronized against the latest
// committed state.
type Ranker struct {
	db  *sqlite.DB
	now Clock
}

// NewRanker creates a leaderboard ranker.
func NewRanker(db *sqlite.DB) *Ranker {
	return &Ranker{db: db, now: time.Now}
}

// WithClock replaces the time source. Returns the ranker for chaining.
func (r *Ranker) WithClock(c Clock) *Ranker {
	r.now = c
	return r
}

// windowStart returns the inclusive lower bound for a windowed
// timeframe. Calendar arithmetic, not fixed-length windows: a "month" is
// one calendar month back, not 30 days.
func windowStart(tf domain.Timeframe, now time.Time) time.Time {
	switch tf {
	case domain.TimeframeWeek:
		return now.AddDate(0, 0, -7)
	case domain.TimeframeMonth:
		return now.AddDate(0, -1, 0)
	case domain.TimeframeYear:
		return now.AddDate(-1, 0, 0)
	}
	return time.Time{}
}

// Rank returns the user's 1-based standing for the timeframe.
//
// All-time ranks include every user, zero-minute users too. Windowed
// ranks only count users with activity in the window; a user with no
// windowed activity gets Rank 0 (unranked).
func (r *Ranker) Rank(userID string, tf domain.Timeframe) (domain.Standing, error) {
	if !tf.Valid() {
		return domain.Standing{}, domain.ErrInvalidTimeframe
	}

	start := time.Now()
	defer func() {
		metrics.LeaderboardLatency.WithLabelValues(string(tf)).Observe(time.Since(start).Seconds())
	}()

	standing := domain.Standing{UserID: userID, Timeframe: tf}

	if tf == domain.TimeframeAll {
		minutes, err := r.db.AllTimeMinutes(userID)
		if err != nil {
			return domain.Standing{}, err
		}
		rank, err := r.db.AllTimeRank(userID, minutes)
		if err != nil {
			return domain.Standing{}, err
		}
		standing.Minutes = minutes
		standing.Rank = rank
		return standing, nil
	}

	// Windowed: verify the user exists, then sum the window.
	if u, err := r.db.GetUser(userID); err != nil {
		return domain.Standing{}, err
	} else if u == nil {
		return domain.Standing{}, domain.ErrUserNotFound
	}

	since := windowStart(tf, r.now())
	minutes, err := r.db.WindowedMinutes(userID, since)
	if err != nil {
		return domain.Standing{}, err
	}
	standing.Minutes = minutes
	if minutes == 0 {
		return standing, nil // Unranked: excluded from windowed boards
	}

	rank, err := r.db.WindowedRank(userID, minutes, since)
	if err != nil {
		return domain.Standing{}, err
	}
	standing.Rank = rank
	return standing, nil
}

// Top returns a page of the leaderboard for the timeframe. Entries carry
// 1-based ranks derived from the page offset.
func (r *Ranker) Top(tf domain.Timeframe, limit, offset int) ([]domain.LeaderboardEntry, error) {
	if !tf.Valid() {
		return nil, domain.ErrInvalidTimeframe
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	start := time.Now()
	defer func() {
		metrics.LeaderboardLatency.WithLabelValues(string(tf)).Observe(time.Since(start).Seconds())
	}()

	if tf == domain.TimeframeAll {
		return r.db.TopAllTime(limit, offset)
	}
	return r.db.TopWindow(windowStart(tf, r.now()), limit, offset)
}

// AroundMe returns up to 2*rng+1 entries centered on the user's rank,
// clipped at the top of the board. A user unranked in a windowed
// timeframe gets an empty slice.
func (r *Ranker) AroundMe(userID string, tf domain.Timeframe, rng int) ([]domain.LeaderboardEntry, error) {
	if rng < 0 {
		rng = 0
	}

	standing, err := r.Rank(userID, tf)
	if err != nil {
		return nil, err
	}
	if standing.Rank == 0 {
		return nil, nil
	}

	// Slice [rank-rng-1, rank+rng) of the full board, clipped at 0.
	offset := standing.Rank - rng - 1
	if offset < 0 {
		offset = 0
	}
	limit := standing.Rank + rng - offset
	return r.Top(tf, limit, offset)
}
