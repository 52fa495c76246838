package engagement

import (
	"context"
	"log"
	"time"

	"github.com/stillpoint-app/stillpoint/internal/domain"
	"github.com/stillpoint-app/stillpoint/internal/infra/metrics"
	"github.com/stillpoint-app/stillpoint/internal/infra/sqlite"
)

// Sweeper zeroes the streak of users who missed a day. It runs shortly
// after each day boundary and may overlap live session recording: the
// store's touched-at guard makes a concurrently recorded session win
// over the reset.
type Sweeper struct {
	db  *sqlite.DB
	loc *time.Location
	now Clock
}

// NewSweeper creates the inactive-streak sweeper.
func NewSweeper(db *sqlite.DB, loc *time.Location) *Sweeper {
	return &Sweeper{db: db, loc: loc, now: time.Now}
}

// WithClock replaces the time source. Returns the sweeper for chaining.
func (s *Sweeper) WithClock(c Clock) *Sweeper {
	s.now = c
	return s
}

// SweepOnce resets every user with an active streak and no session
// during yesterday's window. Returns how many streaks were reset.
func (s *Sweeper) SweepOnce() (int64, error) {
	now := s.now()
	today := domain.StartOfDay(now, s.loc)
	yesterday := today.AddDate(0, 0, -1)

	reset, err := s.db.ResetInactiveStreaks(yesterday, today)
	if err != nil {
		return 0, err
	}
	if reset > 0 {
		metrics.StreakSweepResets.Add(float64(reset))
	}
	return reset, nil
}

// Run sweeps immediately, then once shortly after every day boundary,
// until the context is cancelled. Call in a goroutine.
func (s *Sweeper) Run(ctx context.Context) {
	const boundaryGrace = 5 * time.Minute

	if n, err := s.SweepOnce(); err != nil {
		log.Printf("[sweep] initial sweep: %v", err)
	} else if n > 0 {
		log.Printf("[sweep] reset %d inactive streaks", n)
	}

	for {
		now := s.now()
		next := domain.StartOfDay(now, s.loc).AddDate(0, 0, 1).Add(boundaryGrace)

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if n, err := s.SweepOnce(); err != nil {
			log.Printf("[sweep] daily sweep: %v", err)
		} else if n > 0 {
			log.Printf("[sweep] reset %d inactive streaks", n)
		}
	}
}
