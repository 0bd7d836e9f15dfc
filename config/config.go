package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Logger   LoggerConfig
	Cache    CacheConfig
	Breaker  BreakerConfig
}

type DatabaseConfig struct {
	Path          string
	BusyTimeout   time.Duration
	MaxOpenConns  int
	MaxIdleConns  int
	ConnMaxIdle   time.Duration
	RunMigrations bool
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type CacheConfig struct {
	// RetentionWindow bounds how long rows survive before the janitor sweeps
	// them; SweepInterval is how often the sweep runs.
	RetentionWindow time.Duration
	SweepInterval   time.Duration

	// DefaultLimit caps query results when the caller passes limit <= 0.
	DefaultLimit int

	// CenterTolerance drops stores sitting exactly on the search center
	// (known bad upstream data). Zero disables the filter.
	CenterTolerance float64

	// SyncReadTimeout bounds the synchronous point-read path.
	SyncReadTimeout time.Duration
}

type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

func LoadEnv() *Config {
	_ = godotenv.Load() // Load .env file if it exists

	return &Config{
		Database: DatabaseConfig{
			Path:          getEnv("CACHE_DB_PATH", "data/catalog-cache.db"),
			BusyTimeout:   time.Duration(getEnvInt("CACHE_BUSY_TIMEOUT_MS", 5000)) * time.Millisecond,
			MaxOpenConns:  getEnvInt("CACHE_MAX_OPEN_CONNS", 1),
			MaxIdleConns:  getEnvInt("CACHE_MAX_IDLE_CONNS", 1),
			ConnMaxIdle:   time.Duration(getEnvInt("CACHE_CONN_MAX_IDLE_SEC", 300)) * time.Second,
			RunMigrations: getEnvBool("CACHE_RUN_MIGRATIONS", true),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "info"),
			Encoding:          getEnv("LOGGER_ENCODING", "json"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Cache: CacheConfig{
			RetentionWindow: time.Duration(getEnvInt("CACHE_RETENTION_HOURS", 72)) * time.Hour,
			SweepInterval:   time.Duration(getEnvInt("CACHE_SWEEP_MINUTES", 60)) * time.Minute,
			DefaultLimit:    getEnvInt("CACHE_DEFAULT_LIMIT", 50),
			CenterTolerance: getEnvFloat("CACHE_CENTER_TOLERANCE", 0.0001),
			SyncReadTimeout: time.Duration(getEnvInt("CACHE_SYNC_READ_TIMEOUT_MS", 250)) * time.Millisecond,
		},
		Breaker: BreakerConfig{
			MaxRequests:      uint32(getEnvInt("BREAKER_MAX_REQUESTS", 5)),
			Interval:         time.Duration(getEnvInt("BREAKER_INTERVAL_SEC", 30)) * time.Second,
			Timeout:          time.Duration(getEnvInt("BREAKER_TIMEOUT_SEC", 60)) * time.Second,
			FailureThreshold: getEnvFloat("BREAKER_FAILURE_THRESHOLD", 0.8),
			MinRequests:      uint32(getEnvInt("BREAKER_MIN_REQUESTS", 5)),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}
