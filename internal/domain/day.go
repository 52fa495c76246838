package domain

import (
	"math"
	"time"
)

// ─── Day-Boundary Arithmetic ────────────────────────────────────────────────
// Streaks are counted in calendar days of a single reference timezone.
// All boundary math lives here so the engine and the sweep agree exactly.

// StartOfDay returns the midnight that begins t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// DaysBetween returns the number of calendar-day boundaries in loc crossed
// going from a to b. Same day → 0, b on the day after a → 1, negative if
// b's day precedes a's.
func DaysBetween(a, b time.Time, loc *time.Location) int {
	sa := StartOfDay(a, loc)
	sb := StartOfDay(b, loc)
	// Round, don't truncate: DST shifts make some local days 23 or 25 hours.
	return int(math.Round(sb.Sub(sa).Hours() / 24))
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	return StartOfDay(a, loc).Equal(StartOfDay(b, loc))
}
