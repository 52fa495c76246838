package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stillpoint-app/stillpoint/internal/domain"
)

// --- POST /api/users ---

type createUserRequest struct {
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	handle := strings.ToLower(strings.TrimSpace(req.Handle))
	if handle == "" {
		writeError(w, http.StatusBadRequest, domain.ErrEmptyHandle.Error())
		return
	}

	user := domain.UserProfile{
		ID:          uuid.New().String(),
		Handle:      handle,
		DisplayName: req.DisplayName,
		CreatedAt:   time.Now(),
	}
	if err := s.db.CreateUser(user); err != nil {
		if errors.Is(err, domain.ErrHandleTaken) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// --- GET /api/users/{id} ---

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.db.GetUser(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, domain.ErrUserNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// --- POST /api/users/{id}/sessions ---

type recordSessionRequest struct {
	DurationMin int    `json:"duration_min"`
	Kind        string `json:"kind,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

func (s *Server) handleRecordSession(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	var req recordSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := s.engine.RecordSession(r.Context(), userID, req.DurationMin, req.Kind, req.Notes)
	switch {
	case errors.Is(err, domain.ErrInvalidDuration):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, domain.ErrUserNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, domain.ErrTxConflict):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Mention fan-out is best-effort: a failure never undoes the session.
	if req.Notes != "" {
		if _, err := s.mentions.FanOut(result.SessionID, userID, req.Notes, time.Now()); err != nil {
			log.Printf("[api] mention fan-out for session %s: %v", result.SessionID, err)
		}
	}

	writeJSON(w, http.StatusCreated, result)
}

// --- GET /api/users/{id}/sessions ---

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	sessions, err := s.db.ListSessions(chi.URLParam(r, "id"), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if sessions == nil {
		sessions = []domain.MeditationSession{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

// --- GET /api/users/{id}/stats ---

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.stats.Stats(chi.URLParam(r, "id"))
	if errors.Is(err, domain.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// --- GET /api/users/{id}/achievements ---

func (s *Server) handleAchievements(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	evals, err := s.engine.Evaluations(r.Context(), userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	unlocked, err := s.db.ListUnlockedAchievements(userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if unlocked == nil {
		unlocked = []domain.UnlockedAchievement{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"evaluations": evals,
		"unlocked":    unlocked,
	})
}

// --- GET /api/users/{id}/mentions ---

func (s *Server) handleMentions(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	mentions, err := s.db.MentionsOf(chi.URLParam(r, "id"), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	type mentionOut struct {
		SessionID string    `json:"session_id"`
		AuthorID  string    `json:"author_id"`
		CreatedAt time.Time `json:"created_at"`
	}
	out := make([]mentionOut, len(mentions))
	for i, m := range mentions {
		out[i] = mentionOut{SessionID: m.SessionID, AuthorID: m.AuthorID, CreatedAt: m.CreatedAt}
	}
	writeJSON(w, http.StatusOK, map[string]any{"mentions": out})
}

// --- GET /api/users/{id}/leaderboard ---

func (s *Server) handleStanding(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	tf := timeframeParam(r)
	rng := queryInt(r, "range", 2)

	standing, err := s.ranker.Rank(userID, tf)
	switch {
	case errors.Is(err, domain.ErrInvalidTimeframe):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, domain.ErrUserNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	around, err := s.ranker.AroundMe(userID, tf, rng)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if around == nil {
		around = []domain.LeaderboardEntry{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"standing": standing,
		"around":   around,
	})
}

// --- GET /api/leaderboard ---

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	tf := timeframeParam(r)
	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	entries, err := s.ranker.Top(tf, limit, offset)
	if errors.Is(err, domain.ErrInvalidTimeframe) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"timeframe": tf,
		"entries":   entries,
	})
}

// --- GET /api/overview ---

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	total, err := s.db.CountUsers()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	active, err := s.db.CountActiveSince(time.Now().AddDate(0, 0, -7))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total_users":       total,
		"active_users_week": active,
	})
}

// ─── Query Helpers ──────────────────────────────────────────────────────────

func timeframeParam(r *http.Request) domain.Timeframe {
	tf := r.URL.Query().Get("timeframe")
	if tf == "" {
		return domain.TimeframeAll
	}
	return domain.Timeframe(tf)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
