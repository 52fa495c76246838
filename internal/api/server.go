// Package api provides the HTTP server for Stillpoint. It exposes the
// session/streak/achievement engine, the leaderboard, and user CRUD as
// a JSON REST API.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stillpoint-app/stillpoint/internal/app/engagement"
	"github.com/stillpoint-app/stillpoint/internal/app/social"
	"github.com/stillpoint-app/stillpoint/internal/health"
	"github.com/stillpoint-app/stillpoint/internal/infra/sqlite"
)

// Server is the Stillpoint HTTP API server.
type Server struct {
	db             *sqlite.DB
	engine         *engagement.Service
	ranker         *engagement.Ranker
	stats          *engagement.Aggregator
	mentions       *social.Fanout
	health         *health.Checker
	metricsEnabled bool
}

// NewServer creates a new API server over the wired services.
func NewServer(db *sqlite.DB, engine *engagement.Service, ranker *engagement.Ranker, stats *engagement.Aggregator, mentions *social.Fanout) *Server {
	return &Server{
		db:       db,
		engine:   engine,
		ranker:   ranker,
		stats:    stats,
		mentions: mentions,
	}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetHealth sets the health checker surfaced at /health.
func (s *Server) SetHealth(h *health.Checker) { s.health = h }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(corsMiddleware)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/users", s.handleCreateUser)
		r.Route("/users/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetUser)
			r.Post("/sessions", s.handleRecordSession)
			r.Get("/sessions", s.handleListSessions)
			r.Get("/stats", s.handleStats)
			r.Get("/achievements", s.handleAchievements)
			r.Get("/mentions", s.handleMentions)
			r.Get("/leaderboard", s.handleStanding)
		})
		r.Get("/leaderboard", s.handleLeaderboard)
		r.Get("/overview", s.handleOverview)
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	status := http.StatusOK
	if !s.health.IsHealthy() {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"healthy": s.health.IsHealthy(),
		"checks":  s.health.Statuses(),
	})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    "error",
		},
	})
}

// corsMiddleware adds CORS headers for app clients.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
