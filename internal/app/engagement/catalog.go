package engagement

import (
	"math"
	"sort"

	"github.com/stillpoint-app/stillpoint/internal/domain"
)

// Catalog is the immutable set of milestone definitions. Built once at
// startup and shared read-only; evaluation is a pure function of the
// snapshot.
type Catalog struct {
	defs []domain.AchievementDef
}

// NewCatalog wraps a definition list. The slice is not copied; callers
// must not mutate it afterwards.
func NewCatalog(defs []domain.AchievementDef) *Catalog {
	return &Catalog{defs: defs}
}

// Definitions returns the catalog in definition order.
func (c *Catalog) Definitions() []domain.AchievementDef {
	return c.defs
}

// Len returns the number of defined milestones.
func (c *Catalog) Len() int { return len(c.defs) }

// Evaluate checks every definition against the snapshot.
// progress = min(100, round(metric/threshold*100)); achieved at metric >=
// threshold. Output: achieved first, then unachieved, each group by
// descending progress; ties keep catalog order (stable sort).
func (c *Catalog) Evaluate(snap domain.Snapshot) []domain.Evaluation {
	evals := make([]domain.Evaluation, len(c.defs))
	for i, def := range c.defs {
		metric := snap.Metric(def.Type)
		progress := 100
		if def.Threshold > 0 {
			progress = int(math.Round(float64(metric) / float64(def.Threshold) * 100))
			if progress > 100 {
				progress = 100
			}
		}
		evals[i] = domain.Evaluation{
			Def:      def,
			Achieved: metric >= def.Threshold,
			Progress: progress,
		}
	}

	sort.SliceStable(evals, func(i, j int) bool {
		if evals[i].Achieved != evals[j].Achieved {
			return evals[i].Achieved
		}
		return evals[i].Progress > evals[j].Progress
	})
	return evals
}

// ─── Milestone Definitions ──────────────────────────────────────────────────

// DefaultCatalog returns the full milestone catalog: streak days,
// lifetime minutes, session counts, technique variety, and single-session
// length.
func DefaultCatalog() *Catalog {
	return NewCatalog([]domain.AchievementDef{
		// ── Streaks ────────────────────────────────────────────────────
		{
			ID: "days_1", Name: "First Light", Type: domain.AchieveStreak, Threshold: 1,
			Description: "Meditate on one day.",
		},
		{
			ID: "days_3", Name: "Finding Rhythm", Type: domain.AchieveStreak, Threshold: 3,
			Description: "Meditate three days in a row.",
		},
		{
			ID: "days_7", Name: "Week of Stillness", Type: domain.AchieveStreak, Threshold: 7,
			Description: "Meditate seven days in a row.",
		},
		{
			ID: "days_30", Name: "Moon Cycle", Type: domain.AchieveStreak, Threshold: 30,
			Description: "Meditate thirty days in a row.",
		},
		{
			ID: "days_100", Name: "Centered Century", Type: domain.AchieveStreak, Threshold: 100,
			Description: "Meditate one hundred days in a row.",
		},

		// ── Lifetime Minutes ───────────────────────────────────────────
		{
			ID: "total_time_60", Name: "Hour Marker", Type: domain.AchieveTotalMinutes, Threshold: 60,
			Description: "Accumulate one hour of meditation.",
		},
		{
			ID: "total_time_600", Name: "Deep Reservoir", Type: domain.AchieveTotalMinutes, Threshold: 600,
			Description: "Accumulate ten hours of meditation.",
		},
		{
			ID: "total_time_3000", Name: "Still Lake", Type: domain.AchieveTotalMinutes, Threshold: 3000,
			Description: "Accumulate fifty hours of meditation.",
		},

		// ── Session Counts ─────────────────────────────────────────────
		{
			ID: "sessions_10", Name: "Regular Visitor", Type: domain.AchieveSessionCount, Threshold: 10,
			Description: "Complete ten sessions.",
		},
		{
			ID: "sessions_100", Name: "Devoted Practice", Type: domain.AchieveSessionCount, Threshold: 100,
			Description: "Complete one hundred sessions.",
		},

		// ── Variety ────────────────────────────────────────────────────
		{
			ID: "variety_3", Name: "Explorer", Type: domain.AchieveVariety, Threshold: 3,
			Description: "Try three different techniques.",
		},
		{
			ID: "variety_5", Name: "Open Mind", Type: domain.AchieveVariety, Threshold: 5,
			Description: "Try five different techniques.",
		},

		// ── Long Sessions ──────────────────────────────────────────────
		{
			ID: "long_30", Name: "Deep Dive", Type: domain.AchieveLongSession, Threshold: 30,
			Description: "Sit for thirty minutes in one session.",
		},
		{
			ID: "long_60", Name: "Unbroken Hour", Type: domain.AchieveLongSession, Threshold: 60,
			Description: "Sit for a full hour in one session.",
		},
	})
}
