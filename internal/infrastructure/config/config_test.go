package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/iho/bookkeeper/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("ACCRUAL_CRON", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL == "" {
		t.Fatalf("expected default database URL to be set")
	}

	if cfg.AccrualCron != "@daily" {
		t.Fatalf("expected accrual cron default @daily, got %q", cfg.AccrualCron)
	}

	if cfg.AccrualBatchLimit != 500 || cfg.ReportConcurrency != 4 {
		t.Fatalf("unexpected worker defaults: batch=%d reports=%d", cfg.AccrualBatchLimit, cfg.ReportConcurrency)
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}

	if cfg.OutboxRetention != 7*24*time.Hour || cfg.OutboxStream != "bookkeeper:events" {
		t.Fatalf("unexpected outbox defaults: retention=%s stream=%q", cfg.OutboxRetention, cfg.OutboxStream)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("ACCRUAL_CRON", "0 2 * * *")
	t.Setenv("RATE_LIMIT_RPS", "12.5")
	t.Setenv("RUN_MIGRATIONS", "false")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("expected custom database URL, got %s", cfg.DatabaseURL)
	}

	if cfg.RedisURL != "redis://example" {
		t.Fatalf("expected custom redis URL, got %s", cfg.RedisURL)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}

	if cfg.DatabaseTimeout != 45*time.Second {
		t.Fatalf("expected database timeout override, got %s", cfg.DatabaseTimeout)
	}

	if cfg.AccrualCron != "0 2 * * *" || cfg.RateLimitRPS != 12.5 || cfg.RunMigrations {
		t.Fatalf("expected worker overrides, got cron=%q rps=%v migrations=%v", cfg.AccrualCron, cfg.RateLimitRPS, cfg.RunMigrations)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	original := os.Getenv("HTTP_READ_TIMEOUT")
	t.Setenv("HTTP_READ_TIMEOUT", "not-a-duration")
	t.Cleanup(func() {
		t.Setenv("HTTP_READ_TIMEOUT", original)
	})

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}
