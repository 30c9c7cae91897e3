package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"winery/internal/appstate"
	"winery/internal/config"
	"winery/internal/db"
	"winery/internal/game"
	"winery/internal/metrics"
)

// The worker runs the simulation unattended: it restores the session
// from the database, advances one week per tick and persists as it goes.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadAPIFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	pool, err := db.Connect(ctx, cfg.DatabaseURL, db.DefaultPoolOptions())
	if err != nil {
		logger.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := db.EnsureSchema(ctx, pool); err != nil {
		logger.Error("schema init failed", "err", err)
		os.Exit(1)
	}

	svc := game.NewService(game.NewPGStore(pool), logger, game.Options{
		StartingPhase: cfg.StartingPhase,
		Seed:          cfg.RandomSeed,
		Workers:       cfg.ValuationWorkers,
		BaseLoanRate:  cfg.BaseLoanRate,
		ToastTTL:      cfg.ToastTTL,
	})
	if err := svc.Load(ctx); err != nil {
		logger.Error("session load failed", "err", err)
		os.Exit(1)
	}

	if cfg.WorkerRunOnce {
		report, err := svc.AdvanceWeek(ctx)
		if err != nil {
			logger.Error("week failed", "err", err)
			os.Exit(1)
		}
		logger.Info("worker run-once completed", "date", report.Date.String(), "phase", report.Phase)
		return
	}

	metricsServer := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           metrics.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", "err", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	sched := appstate.NewScheduler(ctx, logger)
	defer sched.Stop()
	sched.Every("toast-refresh", cfg.ToastRefreshEvery, svc.ExpireToasts)

	ticker := time.NewTicker(cfg.WeekTickEvery)
	defer ticker.Stop()

	logger.Info("worker started", "tick_every", cfg.WeekTickEvery.String(), "metrics_addr", cfg.MetricsAddr)
	for {
		select {
		case <-ctx.Done():
			logger.Info("worker shutdown")
			return
		case <-ticker.C:
			report, err := svc.AdvanceWeek(ctx)
			if err != nil {
				logger.Error("week failed", "err", err)
				continue
			}
			logger.Info("week complete", "date", report.Date.String(), "phase", report.Phase, "warnings", len(report.Warnings))
		}
	}
}
