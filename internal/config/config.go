package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port        int
	LogLevel    string
	ServiceName string

	// CORS
	AllowedOrigins []string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Cache
	CacheTTL time.Duration

	// Observability
	OTLPEndpoint string

	// Supabase
	SupabaseURL        string
	SupabaseAnonKey    string
	SupabaseServiceKey string
	SupabaseJWTSecret  string

	// Gemini (empty key = simulated model)
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	// Dev login
	DevAuth             bool
	DevUserEmail        string
	DevUserID           string
	DevUserPasswordHash string
	JWTAccessTTL        time.Duration

	// Jobs and insights
	OverdueSweepInterval time.Duration
	ChurnWindowDays      int
}

// LoadDotEnv loads a .env file into the environment without overriding
// variables that are already set. A missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

// DevJWTSecret signs tokens when DEV_AUTH is on and no secret is configured.
// Validate rejects it outside dev auth.
const DevJWTSecret = "gestorcoop-dev-secret-change-me"

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	cfg := &Config{
		Port:        getEnvInt("PORT", 8080),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		ServiceName: getEnv("SERVICE_NAME", "gestorcoop-bff"),

		AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 10),

		CacheTTL: getEnvDuration("CACHE_TTL", 2*time.Minute),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseAnonKey:    getEnv("SUPABASE_ANON_KEY", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
		SupabaseJWTSecret:  getEnv("SUPABASE_JWT_SECRET", ""),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),

		DevAuth:             getEnv("DEV_AUTH", "false") == "true",
		DevUserEmail:        getEnv("DEV_USER_EMAIL", "dev@gestorcoop.local"),
		DevUserID:           getEnv("DEV_USER_ID", ""),
		DevUserPasswordHash: getEnv("DEV_USER_PASSWORD_HASH", ""),
		JWTAccessTTL:        getEnvDuration("JWT_ACCESS_TTL", time.Hour),

		OverdueSweepInterval: getEnvDuration("OVERDUE_SWEEP_INTERVAL", 15*time.Minute),
		ChurnWindowDays:      getEnvInt("CHURN_WINDOW_DAYS", 60),
	}
	if cfg.SupabaseJWTSecret == "" && cfg.DevAuth {
		cfg.SupabaseJWTSecret = DevJWTSecret
	}
	return cfg
}

// Validate reports configuration that would make the server useless.
func (c *Config) Validate() error {
	if c.SupabaseURL == "" || c.SupabaseServiceKey == "" {
		return errors.New("SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY are required")
	}
	if c.DevAuth && (c.DevUserID == "" || c.DevUserPasswordHash == "") {
		return errors.New("DEV_AUTH requires DEV_USER_ID and DEV_USER_PASSWORD_HASH")
	}
	if c.DevAuth {
		if c.SupabaseJWTSecret == "" {
			return errors.New("SUPABASE_JWT_SECRET is required")
		}
		return nil
	}
	if c.SupabaseJWTSecret == "" || c.SupabaseJWTSecret == DevJWTSecret {
		return errors.New("SUPABASE_JWT_SECRET is required unless DEV_AUTH is enabled")
	}
	return nil
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

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
