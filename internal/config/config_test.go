package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("QUEUE_BACKEND", "")
	t.Setenv("DISPATCH_WORKERS", "")
	t.Setenv("PUSH_TIMEOUT", "")

	cfg := Load()

	if cfg.QueueBackend != QueueBackendRedis {
		t.Errorf("Expected redis backend, got %s", cfg.QueueBackend)
	}
	if cfg.DispatchWorkers != 4 {
		t.Errorf("Expected 4 workers, got %d", cfg.DispatchWorkers)
	}
	if cfg.PushTimeout != 15*time.Second {
		t.Errorf("Expected 15s push timeout, got %s", cfg.PushTimeout)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("QUEUE_BACKEND", "MEMORY")
	t.Setenv("DISPATCH_WORKERS", "9")
	t.Setenv("RETRY_SWEEP_INTERVAL", "5s")
	t.Setenv("CHANNEL_RATE_PER_SEC", "2.5")
	t.Setenv("CORS_ORIGINS", "https://admin.example.com, ,https://book.example.com")
	t.Setenv("SCHEDULED_SYNC_HORIZON_DAYS", "not-a-number")

	cfg := Load()

	if cfg.QueueBackend != QueueBackendMemory {
		t.Errorf("Expected memory backend, got %s", cfg.QueueBackend)
	}
	if cfg.DispatchWorkers != 9 {
		t.Errorf("Expected 9 workers, got %d", cfg.DispatchWorkers)
	}
	if cfg.RetrySweepInterval != 5*time.Second {
		t.Errorf("Expected 5s, got %s", cfg.RetrySweepInterval)
	}
	if cfg.ChannelRatePerSec != 2.5 {
		t.Errorf("Expected 2.5, got %v", cfg.ChannelRatePerSec)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Errorf("Expected 2 origins, got %v", cfg.CORSOrigins)
	}
	if cfg.ScheduledSyncHorizonDays != 365 {
		t.Errorf("Expected fallback 365, got %d", cfg.ScheduledSyncHorizonDays)
	}
}

func TestPostgresDSN(t *testing.T) {
	cfg := Config{PGUser: "u", PGPassword: "p", PGHost: "h", PGPort: "5432", PGDB: "d", PGSSLMode: "disable"}
	want := "postgres://u:p@h:5432/d?sslmode=disable"
	if got := cfg.PostgresDSN(); got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}
