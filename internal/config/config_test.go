package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.MaxRetries != 0 {
		t.Errorf("reads must not be retried by default, got MaxRetries=%d", cfg.MaxRetries)
	}
	if cfg.SessionStore != SessionStoreMemory {
		t.Errorf("SessionStore = %q", cfg.SessionStore)
	}
	if cfg.ClientLoginPath != "/login" || cfg.BackofficeLoginPath != "/backoffice/login" {
		t.Errorf("unexpected login paths %q %q", cfg.ClientLoginPath, cfg.BackofficeLoginPath)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("WIZARD_TTL", "45m")
	t.Setenv("SESSION_STORE", "Redis")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com, ,https://admin.example.com")
	t.Setenv("MAX_RETRIES", "not-a-number")

	cfg := Load()

	if cfg.Port != 9090 {
		t.Errorf("Port = %d", cfg.Port)
	}
	if cfg.WizardTTL != 45*time.Minute {
		t.Errorf("WizardTTL = %s", cfg.WizardTTL)
	}
	if cfg.SessionStore != SessionStoreRedis {
		t.Errorf("SessionStore = %q", cfg.SessionStore)
	}
	if !cfg.CookieSecure {
		t.Error("CookieSecure not parsed")
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://admin.example.com" {
		t.Errorf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
	if cfg.MaxRetries != 0 {
		t.Errorf("invalid MAX_RETRIES must fall back, got %d", cfg.MaxRetries)
	}
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "BFA_TEST_KEPT=from-file\nBFA_TEST_NEW=\"quoted value\"\n# comment\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BFA_TEST_KEPT", "from-env")
	t.Cleanup(func() { os.Unsetenv("BFA_TEST_NEW") })

	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}

	if got := os.Getenv("BFA_TEST_KEPT"); got != "from-env" {
		t.Errorf("existing var overridden: %q", got)
	}
	if got := os.Getenv("BFA_TEST_NEW"); got != "quoted value" {
		t.Errorf("BFA_TEST_NEW = %q", got)
	}
}
