package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gestorcoop/gestorcoop-bff-go/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := config.Load()

	if cfg.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Port)
	}
	if cfg.GeminiModel != "gemini-2.5-flash" {
		t.Errorf("expected default gemini model, got %s", cfg.GeminiModel)
	}
	if cfg.ChurnWindowDays != 60 {
		t.Errorf("expected churn window 60, got %d", cfg.ChurnWindowDays)
	}
	if cfg.OverdueSweepInterval != 15*time.Minute {
		t.Errorf("expected 15m sweep, got %s", cfg.OverdueSweepInterval)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.gestorcoop.com.br, http://localhost:5173 ,")
	t.Setenv("CHURN_WINDOW_DAYS", "30")
	t.Setenv("JWT_ACCESS_TTL", "30m")

	cfg := config.Load()

	if cfg.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Port)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[0] != "https://app.gestorcoop.com.br" {
		t.Errorf("unexpected origins: %v", cfg.AllowedOrigins)
	}
	if cfg.ChurnWindowDays != 30 {
		t.Errorf("expected 30, got %d", cfg.ChurnWindowDays)
	}
	if cfg.JWTAccessTTL != 30*time.Minute {
		t.Errorf("expected 30m, got %s", cfg.JWTAccessTTL)
	}
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "GESTORCOOP_TEST_A=from-file\nGESTORCOOP_TEST_B=\"quoted\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GESTORCOOP_TEST_A", "from-env")
	t.Cleanup(func() { os.Unsetenv("GESTORCOOP_TEST_B") })

	if err := config.LoadDotEnv(path); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := os.Getenv("GESTORCOOP_TEST_A"); got != "from-env" {
		t.Errorf("expected env to win, got %s", got)
	}
	if got := os.Getenv("GESTORCOOP_TEST_B"); got != "quoted" {
		t.Errorf("expected quoted value from file, got %s", got)
	}
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	if err := config.LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("expected missing file to be ignored, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	cfg := &config.Config{}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error without Supabase settings")
	}

	cfg.SupabaseURL = "https://x.supabase.co"
	cfg.SupabaseServiceKey = "service"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error without a JWT secret")
	}

	cfg.SupabaseJWTSecret = config.DevJWTSecret
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected the dev secret to be rejected outside dev auth")
	}

	cfg.SupabaseJWTSecret = "project-secret"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	cfg.DevAuth = true
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for DEV_AUTH without credentials")
	}

	cfg.DevUserID = "dev-user"
	cfg.DevUserPasswordHash = "$2a$10$hash"
	cfg.SupabaseJWTSecret = config.DevJWTSecret
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected dev auth to accept the dev secret, got %v", err)
	}
}

func TestLoad_JWTSecretDefaults(t *testing.T) {
	t.Setenv("SUPABASE_JWT_SECRET", "")
	t.Setenv("DEV_AUTH", "")
	if got := config.Load().SupabaseJWTSecret; got != "" {
		t.Errorf("expected no secret outside dev auth, got %q", got)
	}

	t.Setenv("DEV_AUTH", "true")
	if got := config.Load().SupabaseJWTSecret; got != config.DevJWTSecret {
		t.Errorf("expected dev secret with DEV_AUTH, got %q", got)
	}
}
