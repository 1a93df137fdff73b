// internal/config/config.go
package config

import (
	"os"
	"strconv"
	"time"
)

// WorkerSettings are the worker control knobs. They are loaded from env
// defaults, overridden from the settings table before every cycle, and
// passed into each cycle by value so the engine never reads mutable
// globals.
type WorkerSettings struct {
	Paused          bool
	DryRun          bool
	RateLimitHourly int
	RateLimitDaily  int
	BatchSize       int
	MaxAttempts     int
	SendTimeout     time.Duration
	DefaultTimezone string
	CycleInterval   time.Duration
}

// Settings table keys recognized by ApplyOverrides.
const (
	KeyPaused          = "worker.paused"
	KeyDryRun          = "worker.dry_run"
	KeyRateLimitHourly = "worker.rate_limit_hourly"
	KeyRateLimitDaily  = "worker.rate_limit_daily"
	KeyBatchSize       = "worker.batch_size"
)

// FromEnv builds the default settings from the process environment.
func FromEnv() WorkerSettings {
	return WorkerSettings{
		Paused:          os.Getenv("WORKER_PAUSED") == "true",
		DryRun:          os.Getenv("DRY_RUN") == "true",
		RateLimitHourly: envInt("RATE_LIMIT_HOURLY", 50),
		RateLimitDaily:  envInt("RATE_LIMIT_DAILY", 300),
		BatchSize:       envInt("WORKER_BATCH_SIZE", 10),
		MaxAttempts:     envInt("WORKER_MAX_ATTEMPTS", 3),
		SendTimeout:     time.Duration(envInt("SEND_TIMEOUT_SEC", 60)) * time.Second,
		DefaultTimezone: envStr("DEFAULT_TIMEZONE", "America/Los_Angeles"),
		CycleInterval:   time.Duration(envInt("QUEUE_INTERVAL_SEC", 30)) * time.Second,
	}
}

// ApplyOverrides layers persisted settings-table values over the defaults.
// Unknown keys are ignored; malformed values keep the default.
func (s WorkerSettings) ApplyOverrides(values map[string]string) WorkerSettings {
	if v, ok := values[KeyPaused]; ok {
		s.Paused = v == "true"
	}
	if v, ok := values[KeyDryRun]; ok {
		s.DryRun = v == "true"
	}
	if v, ok := values[KeyRateLimitHourly]; ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			s.RateLimitHourly = n
		}
	}
	if v, ok := values[KeyRateLimitDaily]; ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			s.RateLimitDaily = n
		}
	}
	if v, ok := values[KeyBatchSize]; ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			s.BatchSize = n
		}
	}
	return s
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
