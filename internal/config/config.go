package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Session store backends.
const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Backend API
	BackendAPIURL string
	HTTPTimeout   time.Duration

	// Resilience. Writes are never retried; MaxRetries applies to reads.
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Registration wizard
	WizardTTL time.Duration

	// Sessions
	SessionStore  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SessionSecret string
	SessionTTL    time.Duration
	CookieSecure  bool
	JWTSecret     string // empty: token signatures are not checked

	// Frontend
	CORSAllowedOrigins  []string
	ClientDashboardPath string
	ClientLoginPath     string
	BackofficeLoginPath string

	// Observability
	OTLPEndpoint string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		BackendAPIURL: getEnv("BACKEND_API_URL", "http://localhost:3000"),
		HTTPTimeout:   getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 0),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),

		WizardTTL: getEnvDuration("WIZARD_TTL", 2*time.Hour),

		SessionStore:  strings.ToLower(getEnv("SESSION_STORE", SessionStoreMemory)),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		SessionSecret: getEnv("SESSION_SECRET", ""),
		SessionTTL:    getEnvDuration("SESSION_TTL", 12*time.Hour),
		CookieSecure:  getEnvBool("COOKIE_SECURE", false),
		JWTSecret:     getEnv("JWT_SECRET", ""),

		CORSAllowedOrigins:  getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		ClientDashboardPath: getEnv("CLIENT_DASHBOARD_PATH", "/dashboard"),
		ClientLoginPath:     getEnv("CLIENT_LOGIN_PATH", "/login"),
		BackofficeLoginPath: getEnv("BACKOFFICE_LOGIN_PATH", "/backoffice/login"),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList splits a comma-separated value, dropping blanks.
func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
