// Command spotfenced is the spotfence service: it runs the geofence
// synchronization engine against a Postgres-backed spot list and exposes
// the location/auth/toggle input streams and engine diagnostics over HTTP.
//
// Usage:
//
//	spotfenced
//	API_PORT=8080 MONITOR_CAP=20 spotfenced
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/quietfield/spotfence/internal/api"
	"github.com/quietfield/spotfence/internal/config"
	"github.com/quietfield/spotfence/internal/engine"
	"github.com/quietfield/spotfence/internal/geo"
	"github.com/quietfield/spotfence/internal/monitor"
	"github.com/quietfield/spotfence/internal/notify"
	"github.com/quietfield/spotfence/internal/store"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Monitoring boundary: the software evaluator fed by reported locations.
	evaluator := monitor.NewEvaluator(cfg.EventQueueSize, logger)

	// Notification sink, rate limited.
	notifier := notify.NewRateLimited(
		notify.NewSlogNotifier(logger), cfg.NotifyPerMinute, cfg.NotifyBurst, logger)

	eng := engine.New(engine.Config{
		Cap:                cfg.MonitorCap,
		MovementThresholdM: cfg.MovementThresholdM,
		SettleDelay:        cfg.SettleDelay,
		ResyncInterval:     cfg.ResyncInterval,
		QueueSize:          cfg.EventQueueSize,
	}, evaluator, notifier, nil, logger)

	go eng.Run(ctx)

	// Pump boundary crossings into the engine's serialized queue.
	go func() {
		for {
			select {
			case c := <-evaluator.Events():
				eng.ObserveCrossing(c)
			case <-ctx.Done():
				return
			}
		}
	}()

	// Spot source: Postgres snapshot + LISTEN/NOTIFY change feed.
	var st *store.Store
	if cfg.DatabaseURL != "" {
		logger.Info("Connecting to database...")
		st, err = store.New(ctx, cfg)
		if err != nil {
			logger.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer st.Close()
		if err := st.EnsureSchema(ctx); err != nil {
			logger.Error("Failed to apply schema", "error", err)
			os.Exit(1)
		}
		logger.Info("Database connected",
			"min_conns", cfg.DBPoolMinConns,
			"max_conns", cfg.DBPoolMaxConns)

		go store.Watch(ctx, cfg.DatabaseURL, func(ctx context.Context) {
			spots, err := st.Snapshot(ctx)
			if err != nil {
				logger.Warn("spot snapshot failed", "error", err)
				return
			}
			eng.UpdateSpots(spots)
		}, logger)
	} else {
		logger.Warn("No database configured; spot list is empty until ingested")
	}

	// Seed the initial stored state.
	eng.SetToggle(cfg.ToggleEnabled)
	if cfg.AssumeAlwaysAuth {
		eng.SetAuth(engine.AuthAlways)
	}

	// HTTP surface. Location samples fan out to both the engine (ranking)
	// and the evaluator (crossing detection).
	handler := api.NewHandler(eng, st, func(s geo.Sample) {
		eng.UpdateLocation(s)
		evaluator.Observe(s)
	})
	router := api.NewRouter(handler, cfg)

	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting spotfence service",
			"addr", addr,
			"environment", cfg.Environment,
			"cap", cfg.MonitorCap)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
