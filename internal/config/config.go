package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	QueueBackendRedis  = "redis"
	QueueBackendMemory = "memory"
)

// Config holds application configuration.
type Config struct {
	AppEnv     string
	AppVersion string
	HTTPPort   string

	PGHost     string
	PGPort     string
	PGUser     string
	PGDB       string
	PGPassword string
	PGSSLMode  string

	RedisHost     string
	RedisPort     string
	RedisPassword string

	// QueueBackend selects the dispatch hand-off: redis streams or an
	// in-process channel.
	QueueBackend       string
	MemoryQueueSize    int
	DispatchWorkers    int
	PushTimeout        time.Duration
	ChannelRatePerSec  float64
	ChannelRateBurst   int
	RetrySweepInterval time.Duration
	RetrySweepGrace    time.Duration

	ScheduledSyncInterval    time.Duration
	ScheduledSyncHorizonDays int
	ScheduledSyncConcurrency int

	SnapshotTTL time.Duration

	PropertyID          string
	AdminJWTSecret      string
	ChannelSecretPrefix string
	CORSOrigins         []string

	// Inbound admin API limit per client IP.
	HTTPRatePerSec float64
	HTTPRateBurst  int
	HTTPRateAllow  []string
}

// Load reads configuration from environment variables and an optional .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppEnv:     getenv("APP_ENV", "development"),
		AppVersion: getenv("APP_VERSION", "0.1.0"),
		HTTPPort:   getenv("HTTP_PORT", "8080"),

		PGHost:     getenv("PG_HOST", "localhost"),
		PGPort:     getenv("PG_PORT", "5432"),
		PGUser:     getenv("PG_USER", "postgres"),
		PGDB:       getenv("PG_DB", "roomsync"),
		PGPassword: os.Getenv("PG_PASSWORD"),
		PGSSLMode:  getenv("PG_SSLMODE", "disable"),

		RedisHost:     getenv("REDIS_HOST", "localhost"),
		RedisPort:     getenv("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		QueueBackend:       strings.ToLower(getenv("QUEUE_BACKEND", QueueBackendRedis)),
		MemoryQueueSize:    getenvInt("MEMORY_QUEUE_SIZE", 1024),
		DispatchWorkers:    getenvInt("DISPATCH_WORKERS", 4),
		PushTimeout:        getenvDuration("PUSH_TIMEOUT", 15*time.Second),
		ChannelRatePerSec:  getenvFloat("CHANNEL_RATE_PER_SEC", 5),
		ChannelRateBurst:   getenvInt("CHANNEL_RATE_BURST", 10),
		RetrySweepInterval: getenvDuration("RETRY_SWEEP_INTERVAL", 30*time.Second),
		RetrySweepGrace:    getenvDuration("RETRY_SWEEP_GRACE", 2*time.Minute),

		ScheduledSyncInterval:    getenvDuration("SCHEDULED_SYNC_INTERVAL", 6*time.Hour),
		ScheduledSyncHorizonDays: getenvInt("SCHEDULED_SYNC_HORIZON_DAYS", 365),
		ScheduledSyncConcurrency: getenvInt("SCHEDULED_SYNC_CONCURRENCY", 4),

		SnapshotTTL: getenvDuration("SNAPSHOT_TTL", 24*time.Hour),

		PropertyID:          os.Getenv("PROPERTY_ID"),
		AdminJWTSecret:      strings.TrimSpace(os.Getenv("ADMIN_JWT_SECRET")),
		ChannelSecretPrefix: getenv("CHANNEL_SECRET_PREFIX", "CHANNEL_SECRET_"),
		CORSOrigins:         splitList(getenv("CORS_ORIGINS", "http://localhost:5173")),

		HTTPRatePerSec: getenvFloat("HTTP_RATE_PER_SEC", 10),
		HTTPRateBurst:  getenvInt("HTTP_RATE_BURST", 20),
		HTTPRateAllow:  splitList(getenv("HTTP_RATE_ALLOW", "127.0.0.1")),
	}
}

// PostgresDSN builds the connection string shared by sqlx and GORM.
func (c Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDB, c.PGSSLMode)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
