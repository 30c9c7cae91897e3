package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"winery/internal/appstate"
	"winery/internal/economy"
)

type APIConfig struct {
	Addr              string
	DatabaseURL       string
	MetricsAddr       string
	WeekTickEvery     time.Duration
	ToastRefreshEvery time.Duration
	WarningCheckEvery time.Duration
	ToastTTL          time.Duration
	StartingPhase     economy.Phase
	RandomSeed        int64
	ValuationWorkers  int
	BaseLoanRate      float64
	WorkerRunOnce     bool
}

type CLIConfig struct {
	APIBaseURL string
}

// LoadAPIFromEnv reads the server and worker configuration. A .env file in
// the working directory is loaded first when present; real environment
// variables win over it.
func LoadAPIFromEnv() (APIConfig, error) {
	_ = godotenv.Load()

	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("WINERY_API_ADDR", ":8080")
	}

	cfg := APIConfig{
		Addr:              addr,
		DatabaseURL:       strings.TrimSpace(os.Getenv("DATABASE_URL")),
		MetricsAddr:       envDefault("WINERY_METRICS_ADDR", ":9090"),
		WeekTickEvery:     envDurationDefault("WINERY_WEEK_TICK_EVERY", time.Minute),
		ToastRefreshEvery: envDurationDefault("WINERY_TOAST_REFRESH_EVERY", appstate.DefaultToastRefreshEvery),
		WarningCheckEvery: envDurationDefault("WINERY_WARNING_CHECK_EVERY", appstate.DefaultWarningCheckEvery),
		ToastTTL:          envDurationDefault("WINERY_TOAST_TTL", 5*time.Second),
		StartingPhase:     envPhaseDefault("WINERY_STARTING_PHASE", economy.StartingPhase),
		RandomSeed:        envInt64Default("WINERY_RANDOM_SEED", time.Now().UnixNano()),
		ValuationWorkers:  int(envInt64Default("WINERY_VALUATION_WORKERS", 4)),
		BaseLoanRate:      envFloatDefault("WINERY_BASE_LOAN_RATE", 0.08),
		WorkerRunOnce:     envBoolDefault("WINERY_WORKER_RUN_ONCE", false),
	}
	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.WeekTickEvery <= 0 || cfg.ToastRefreshEvery <= 0 || cfg.WarningCheckEvery <= 0 {
		return cfg, fmt.Errorf("tick and poll intervals must be > 0")
	}
	if cfg.ValuationWorkers < 1 {
		cfg.ValuationWorkers = 1
	}
	return cfg, nil
}

func LoadCLIFromEnv() CLIConfig {
	_ = godotenv.Load()
	return CLIConfig{
		APIBaseURL: strings.TrimRight(envDefault("VIN_API_BASE_URL", "http://localhost:8080"), "/"),
	}
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envFloatDefault(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envInt64Default(key string, fallback int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func envBoolDefault(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envPhaseDefault(key string, fallback economy.Phase) economy.Phase {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	p, err := economy.ParsePhase(v)
	if err != nil {
		return fallback
	}
	return p
}
