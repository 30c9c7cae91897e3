package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"winery/internal/api"
	"winery/internal/appstate"
	"winery/internal/config"
	"winery/internal/db"
	"winery/internal/game"
)

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

	gameSvc := game.NewService(game.NewPGStore(pool), logger, game.Options{
		StartingPhase: cfg.StartingPhase,
		Seed:          cfg.RandomSeed,
		Workers:       cfg.ValuationWorkers,
		BaseLoanRate:  cfg.BaseLoanRate,
		ToastTTL:      cfg.ToastTTL,
	})
	if err := gameSvc.Load(ctx); err != nil {
		logger.Error("session load failed", "err", err)
		os.Exit(1)
	}

	sched := appstate.NewScheduler(ctx, logger)
	defer sched.Stop()
	sched.Every("toast-refresh", cfg.ToastRefreshEvery, gameSvc.ExpireToasts)
	sched.Every("warning-check", cfg.WarningCheckEvery, gameSvc.CheckWarnings)

	server := api.New(cfg, logger, gameSvc)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("winery api listening", "addr", cfg.Addr, "phase", gameSvc.Economy().Phase)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}
