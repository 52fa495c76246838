package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stillpoint-app/stillpoint/internal/domain"
	"github.com/stillpoint-app/stillpoint/internal/infra/sqlite"
)

func testDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func mustCreateUser(t *testing.T, db *sqlite.DB, id, handle string) {
	t.Helper()
	err := db.CreateUser(domain.UserProfile{
		ID:        id,
		Handle:    handle,
		CreatedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create user %s: %v", id, err)
	}
}

func insertSession(t *testing.T, db *sqlite.DB, s domain.MeditationSession) {
	t.Helper()
	err := db.InTx(context.Background(), func(tx *sqlite.Tx) error {
		return tx.InsertSession(s)
	})
	if err != nil {
		t.Fatalf("insert session %s: %v", s.ID, err)
	}
}

func TestOpen_Reopenable(t *testing.T) {
	dir := t.TempDir()

	db, err := sqlite.Open(dir)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	mustCreateUser(t, db, "u1", "u1")
	db.Close()

	// Migrations are idempotent and data survives reopen.
	db2, err := sqlite.Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db2.Close()

	u, err := db2.GetUser("u1")
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if u == nil || u.Handle != "u1" {
		t.Errorf("user did not survive reopen: %+v", u)
	}
}

func TestCreateUser_DuplicateHandle(t *testing.T) {
	db := testDB(t)
	mustCreateUser(t, db, "u1", "ana")

	err := db.CreateUser(domain.UserProfile{
		ID: "u2", Handle: "ana", CreatedAt: time.Now(),
	})
	if !errors.Is(err, domain.ErrHandleTaken) {
		t.Errorf("expected ErrHandleTaken, got %v", err)
	}
}

func TestGetUser_Missing(t *testing.T) {
	db := testDB(t)

	u, err := db.GetUser("nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u != nil {
		t.Errorf("expected nil for missing user, got %+v", u)
	}
}

func TestUsersByHandles(t *testing.T) {
	db := testDB(t)
	mustCreateUser(t, db, "u1", "ana")
	mustCreateUser(t, db, "u2", "ben")

	out, err := db.UsersByHandles([]string{"ana", "ben", "ghost"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(out) != 2 || out["ana"] != "u1" || out["ben"] != "u2" {
		t.Errorf("unexpected resolution: %v", out)
	}
	if _, ok := out["ghost"]; ok {
		t.Error("unknown handle must be absent, not empty")
	}
}

func TestUpdateStreak_RoundTrip(t *testing.T) {
	db := testDB(t)
	mustCreateUser(t, db, "u1", "u1")

	touched := time.Date(2025, 7, 1, 8, 30, 0, 0, time.UTC)
	err := db.InTx(context.Background(), func(tx *sqlite.Tx) error {
		return tx.UpdateStreak("u1", 4, 120, touched)
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	u, err := db.GetUser("u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u.StreakCount != 4 || u.TotalMinutes != 120 {
		t.Errorf("unexpected streak state: %+v", u)
	}
	if !u.StreakTouchedAt.Equal(touched) {
		t.Errorf("expected touched %v, got %v", touched, u.StreakTouchedAt)
	}
}

func TestHasSessionBetween_HalfOpenWindow(t *testing.T) {
	db := testDB(t)
	mustCreateUser(t, db, "u1", "u1")

	day := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	insertSession(t, db, domain.MeditationSession{
		ID: "s1", UserID: "u1", DurationMin: 10, CompletedAt: day,
	})

	check := func(from, to time.Time) bool {
		var has bool
		err := db.InTx(context.Background(), func(tx *sqlite.Tx) error {
			var err error
			has, err = tx.HasSessionBetween("u1", from, to)
			return err
		})
		if err != nil {
			t.Fatalf("check: %v", err)
		}
		return has
	}

	if !check(day, day.AddDate(0, 0, 1)) {
		t.Error("session at window start must be included")
	}
	if check(day.AddDate(0, 0, -1), day) {
		t.Error("session at window end must be excluded")
	}
}

func TestSessionAggregates(t *testing.T) {
	db := testDB(t)
	mustCreateUser(t, db, "u1", "u1")

	base := time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC)
	rows := []domain.MeditationSession{
		{ID: "s1", UserID: "u1", DurationMin: 10, CompletedAt: base, Kind: "breathing"},
		{ID: "s2", UserID: "u1", DurationMin: 45, CompletedAt: base.Add(time.Hour), Kind: "body_scan"},
		{ID: "s3", UserID: "u1", DurationMin: 5, CompletedAt: base.Add(2 * time.Hour), Kind: "breathing"},
		{ID: "s4", UserID: "u1", DurationMin: 20, CompletedAt: base.Add(3 * time.Hour)},
	}
	for _, s := range rows {
		insertSession(t, db, s)
	}

	err := db.InTx(context.Background(), func(tx *sqlite.Tx) error {
		count, variety, longest, err := tx.SessionAggregates("u1")
		if err != nil {
			return err
		}
		if count != 4 {
			t.Errorf("expected 4 sessions, got %d", count)
		}
		if variety != 2 {
			t.Errorf("untagged kind must not count toward variety: got %d", variety)
		}
		if longest != 45 {
			t.Errorf("expected longest 45, got %d", longest)
		}

		if has, err := tx.HasKind("u1", "breathing"); err != nil || !has {
			t.Errorf("expected breathing kind present: has=%v err=%v", has, err)
		}
		if has, err := tx.HasKind("u1", "walking"); err != nil || has {
			t.Errorf("expected walking kind absent: has=%v err=%v", has, err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}
}

func TestListSessions_RecentFirstWithLimit(t *testing.T) {
	db := testDB(t)
	mustCreateUser(t, db, "u1", "u1")

	base := time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		insertSession(t, db, domain.MeditationSession{
			ID: string(rune('a' + i)), UserID: "u1", DurationMin: 10,
			CompletedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}

	sessions, err := db.ListSessions("u1", 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("expected 3, got %d", len(sessions))
	}
	if sessions[0].ID != "e" || sessions[2].ID != "c" {
		t.Errorf("expected newest first, got %s..%s", sessions[0].ID, sessions[2].ID)
	}
}

func TestResetInactiveStreaks_TouchedAtGuard(t *testing.T) {
	db := testDB(t)
	mustCreateUser(t, db, "lapsed", "lapsed")
	mustCreateUser(t, db, "live", "live")

	windowStart := time.Date(2025, 7, 5, 0, 0, 0, 0, time.UTC)
	windowEnd := windowStart.AddDate(0, 0, 1)

	err := db.InTx(context.Background(), func(tx *sqlite.Tx) error {
		// lapsed: streak last touched before the window closed.
		if err := tx.UpdateStreak("lapsed", 3, 30, windowStart.AddDate(0, 0, -2)); err != nil {
			return err
		}
		// live: a session landed after the boundary, touching the streak.
		return tx.UpdateStreak("live", 1, 10, windowEnd.Add(2*time.Minute))
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	reset, err := db.ResetInactiveStreaks(windowStart, windowEnd)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if reset != 1 {
		t.Errorf("expected 1 reset, got %d", reset)
	}

	if u, _ := db.GetUser("lapsed"); u.StreakCount != 0 {
		t.Errorf("lapsed should be reset, got %d", u.StreakCount)
	}
	if u, _ := db.GetUser("live"); u.StreakCount != 1 {
		t.Errorf("live streak touched after the window must survive, got %d", u.StreakCount)
	}
}

func TestUnlockAchievements_Idempotent(t *testing.T) {
	db := testDB(t)
	mustCreateUser(t, db, "u1", "u1")

	at := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		if err := db.UnlockAchievements("u1", []string{"days_1", "long_30"}, at); err != nil {
			t.Fatalf("unlock %d: %v", i, err)
		}
	}

	unlocked, err := db.ListUnlockedAchievements("u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(unlocked) != 2 {
		t.Errorf("expected 2 unique unlocks, got %d", len(unlocked))
	}
}

func TestInTx_RollbackOnError(t *testing.T) {
	db := testDB(t)
	mustCreateUser(t, db, "u1", "u1")

	boom := errors.New("boom")
	err := db.InTx(context.Background(), func(tx *sqlite.Tx) error {
		if err := tx.UpdateStreak("u1", 9, 900, time.Now()); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	u, _ := db.GetUser("u1")
	if u.StreakCount != 0 || u.TotalMinutes != 0 {
		t.Errorf("failed tx must roll back, got %+v", u)
	}
}
