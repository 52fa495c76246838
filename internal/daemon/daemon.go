package daemon

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stillpoint-app/stillpoint/internal/api"
	"github.com/stillpoint-app/stillpoint/internal/app/engagement"
	"github.com/stillpoint-app/stillpoint/internal/app/social"
	"github.com/stillpoint-app/stillpoint/internal/health"
	_ "github.com/stillpoint-app/stillpoint/internal/infra/metrics" // Register Prometheus metrics
	"github.com/stillpoint-app/stillpoint/internal/infra/sqlite"
)

// Daemon is the core Stillpoint runtime. It wires together all services.
type Daemon struct {
	Config Config
	DB     *sqlite.DB
	Server *api.Server

	Engine   *engagement.Service
	Ranker   *engagement.Ranker
	Stats    *engagement.Aggregator
	Sweeper  *engagement.Sweeper
	Mentions *social.Fanout
	Health   *health.Checker

	cancel context.CancelFunc
}

// New creates and initializes a Daemon with all services wired.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config) (*Daemon, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	db, err := sqlite.Open(cfg.Data.Dir)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	catalog := engagement.DefaultCatalog()

	d := &Daemon{
		Config:   cfg,
		DB:       db,
		Engine:   engagement.NewService(db, catalog, loc),
		Ranker:   engagement.NewRanker(db),
		Stats:    engagement.NewAggregator(db, loc),
		Sweeper:  engagement.NewSweeper(db, loc),
		Mentions: social.NewFanout(db),
		Health:   health.NewChecker(db, cfg.Data.Dir),
	}

	srv := api.NewServer(db, d.Engine, d.Ranker, d.Stats, d.Mentions)
	srv.SetHealth(d.Health)
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}
	d.Server = srv

	return d, nil
}

// Serve starts the HTTP server and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	// Background services
	go d.Health.Run(ctx)
	if d.Config.Engagement.SweepEnabled {
		go d.Sweeper.Run(ctx)
	}

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		_ = httpServer.Shutdown(shutdownCtx)
		_ = d.DB.Close()
	}()

	fmt.Printf("Stillpoint serving on http://%s\n", addr)
	if d.Config.Telemetry.Prometheus {
		fmt.Printf("  Metrics: http://%s/metrics\n", addr)
	}

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
}
