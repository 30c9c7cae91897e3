package config

import (
	"testing"
	"time"

	"winery/internal/economy"
)

func TestLoadAPIFromEnvDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/winery")
	t.Setenv("PORT", "")
	t.Setenv("WINERY_API_ADDR", "")
	t.Setenv("WINERY_TOAST_REFRESH_EVERY", "")
	t.Setenv("WINERY_WARNING_CHECK_EVERY", "")
	t.Setenv("WINERY_STARTING_PHASE", "")

	cfg, err := LoadAPIFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("addr=%q", cfg.Addr)
	}
	if cfg.ToastRefreshEvery != 100*time.Millisecond || cfg.WarningCheckEvery != 2*time.Second {
		t.Fatalf("poll intervals %v/%v", cfg.ToastRefreshEvery, cfg.WarningCheckEvery)
	}
	if cfg.StartingPhase != economy.Recovery {
		t.Fatalf("starting phase %q", cfg.StartingPhase)
	}
}

func TestLoadAPIFromEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/winery")
	t.Setenv("PORT", "9000")
	t.Setenv("WINERY_STARTING_PHASE", "Boom")
	t.Setenv("WINERY_WARNING_CHECK_EVERY", "500ms")
	t.Setenv("WINERY_VALUATION_WORKERS", "0")
	t.Setenv("WINERY_RANDOM_SEED", "99")

	cfg, err := LoadAPIFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Addr != ":9000" || cfg.StartingPhase != economy.Boom || cfg.WarningCheckEvery != 500*time.Millisecond {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if cfg.ValuationWorkers != 1 || cfg.RandomSeed != 99 {
		t.Fatalf("workers=%d seed=%d", cfg.ValuationWorkers, cfg.RandomSeed)
	}
}

func TestLoadAPIFromEnvRequiresDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := LoadAPIFromEnv(); err == nil {
		t.Fatalf("expected error without DATABASE_URL")
	}
}

func TestLoadAPIFromEnvRejectsZeroInterval(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/winery")
	t.Setenv("WINERY_TOAST_REFRESH_EVERY", "0s")
	if _, err := LoadAPIFromEnv(); err == nil {
		t.Fatalf("expected error for zero toast interval")
	}
}
