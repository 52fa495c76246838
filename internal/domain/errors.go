package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency.

var (
	// User errors
	ErrUserNotFound = errors.New("user not found")
	ErrHandleTaken  = errors.New("handle already taken")
	ErrEmptyHandle  = errors.New("handle must not be empty")

	// Session errors
	ErrInvalidDuration = errors.New("session duration must be at least 1 minute")

	// Leaderboard errors
	ErrInvalidTimeframe = errors.New("timeframe must be week, month, year, or all")

	// Persistence errors
	ErrTxConflict = errors.New("transaction conflict, retry the operation")
)
