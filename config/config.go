// Package config loads the service configuration from the environment.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the runtime configuration of the tarefas service.
type Config struct {
	// Port is the HTTP listen port.
	Port int

	// DBDriver selects the GORM dialector: "sqlite", "postgres" or "mysql".
	DBDriver string

	// DBDSN is the driver DSN. For sqlite it is the database file path.
	DBDSN string

	// DBDebug enables verbose GORM query logging.
	DBDebug bool

	// RedisAddr enables the cache and the Redis-backed rate limiter when set.
	RedisAddr string

	CacheTTL    time.Duration
	CachePrefix string

	// CORSOrigins is a comma separated list of allowed origins.
	CORSOrigins string

	// RateLimit is the number of requests per minute per client IP (0 disables).
	RateLimit int

	// MaxPageSize caps the porPagina query parameter.
	MaxPageSize int

	ShutdownTimeout time.Duration

	// LogLevel is "info" or "error".
	LogLevel string
}

// DefaultConfig returns a config with the defaults used when a variable is unset.
func DefaultConfig() Config {
	return Config{
		Port:            3333,
		DBDriver:        "sqlite",
		DBDSN:           "tarefas.db",
		DBDebug:         false,
		RedisAddr:       "",
		CacheTTL:        5 * time.Minute,
		CachePrefix:     "tarefas:",
		CORSOrigins:     "*",
		RateLimit:       0,
		MaxPageSize:     100,
		ShutdownTimeout: 30 * time.Second,
		LogLevel:        "info",
	}
}

// Load reads an optional .env file and then the process environment.
// A missing .env file is not an error.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not load .env file: %v", err)
	}
	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv builds a Config from environment variables on top of DefaultConfig.
func FromEnv() Config {
	def := DefaultConfig()
	return Config{
		Port:            getEnvInt("PORT", def.Port),
		DBDriver:        strings.ToLower(getEnv("DB_DRIVER", def.DBDriver)),
		DBDSN:           getEnv("DB_DSN", def.DBDSN),
		DBDebug:         getEnvBool("DB_DEBUG", def.DBDebug),
		RedisAddr:       getEnv("REDIS_ADDR", def.RedisAddr),
		CacheTTL:        getEnvDuration("CACHE_TTL", def.CacheTTL),
		CachePrefix:     getEnv("CACHE_PREFIX", def.CachePrefix),
		CORSOrigins:     getEnv("CORS_ALLOWED_ORIGINS", def.CORSOrigins),
		RateLimit:       getEnvInt("RATE_LIMIT", def.RateLimit),
		MaxPageSize:     getEnvInt("MAX_PAGE_SIZE", def.MaxPageSize),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", def.ShutdownTimeout),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", def.LogLevel)),
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT: %d", c.Port)
	}
	switch c.DBDriver {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %q", c.DBDriver)
	}
	if c.DBDSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if c.MaxPageSize < 1 {
		return fmt.Errorf("invalid MAX_PAGE_SIZE: %d", c.MaxPageSize)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("invalid RATE_LIMIT: %d", c.RateLimit)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("invalid CACHE_TTL: %s", c.CacheTTL)
	}
	return nil
}

// CacheEnabled reports whether a Redis address was configured.
func (c Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}

// getEnv returns environment variable value or default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns environment variable as int or default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Warning: invalid int value for %s: %s, using default: %d", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvBool returns environment variable as bool or default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
		log.Printf("Warning: invalid bool value for %s: %s, using default: %t", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvDuration returns environment variable as duration or default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		log.Printf("Warning: invalid duration value for %s: %s, using default: %s", key, value, defaultValue)
	}
	return defaultValue
}
