// Package config loads server configuration from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config holds server configuration.
type Config struct {
	Port       string
	StaticPath string

	StorageBackend string
	DBPath         string
	RedisURL       string
	RedisPrefix    string
	WriteTimeout   time.Duration

	JWTSecret               string
	SessionTTL              time.Duration
	UnlockAttemptsPerMinute int

	CORSAllowedOrigins []string
	MetricsEnabled     bool
	Timezone           *time.Location

	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		Port:       valueOrDefault(k.String("PORT"), "8080"),
		StaticPath: valueOrDefault(k.String("STATIC_PATH"), "./static"),

		StorageBackend: strings.ToLower(valueOrDefault(k.String("STORAGE_BACKEND"), BackendSQLite)),
		DBPath:         valueOrDefault(k.String("DB_PATH"), "./data/weighbill.db"),
		RedisURL:       strings.TrimSpace(k.String("REDIS_URL")),
		RedisPrefix:    valueOrDefault(k.String("REDIS_PREFIX"), "weighbill:"),
		WriteTimeout:   parseDuration(k.String("WRITE_TIMEOUT"), "2s"),

		JWTSecret:               strings.TrimSpace(k.String("JWT_SECRET")),
		SessionTTL:              parseDuration(k.String("SESSION_TTL"), "12h"),
		UnlockAttemptsPerMinute: parseInt(k.String("UNLOCK_ATTEMPTS_PER_MINUTE"), 5),

		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		MetricsEnabled:     parseBool(k.String("METRICS_ENABLED"), true),

		LogLevel:  strings.ToLower(valueOrDefault(k.String("LOG_LEVEL"), "info")),
		LogFormat: strings.ToLower(valueOrDefault(k.String("LOG_FORMAT"), "text")),
	}

	loc, err := time.LoadLocation(valueOrDefault(k.String("TZ_DISPLAY"), "Local"))
	if err != nil {
		return nil, fmt.Errorf("TZ_DISPLAY: %w", err)
	}
	cfg.Timezone = loc

	switch cfg.StorageBackend {
	case BackendSQLite, BackendMemory:
	case BackendRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("REDIS_URL is required when STORAGE_BACKEND=%s", BackendRedis)
		}
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func parseBool(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
