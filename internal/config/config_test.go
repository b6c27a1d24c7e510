package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.AppPort != 8080 {
		t.Errorf("expected default AppPort 8080, got %d", cfg.AppPort)
	}
	if cfg.DataDir != "./data" {
		t.Errorf("expected default DataDir ./data, got %s", cfg.DataDir)
	}
	if cfg.LegacyDir != cfg.DataDir {
		t.Errorf("expected LegacyDir to default to DataDir, got %s", cfg.LegacyDir)
	}
	if cfg.TokenTTL != 7*24*time.Hour {
		t.Errorf("expected default TokenTTL 168h, got %v", cfg.TokenTTL)
	}
	if cfg.BcryptCost != 10 {
		t.Errorf("expected default BcryptCost 10, got %d", cfg.BcryptCost)
	}
	if cfg.AuthCookieName != "auth_token" {
		t.Errorf("expected default cookie auth_token, got %s", cfg.AuthCookieName)
	}
	if cfg.LogFormat != "json" || cfg.LogLevel != "info" {
		t.Errorf("unexpected log defaults: %s %s", cfg.LogFormat, cfg.LogLevel)
	}
	if cfg.MaxRequestBodySize != 1<<20 {
		t.Errorf("expected 1MiB body limit, got %d", cfg.MaxRequestBodySize)
	}
	if cfg.JWTSecret != DevJWTSecret || !cfg.JWTSecretDefaulted {
		t.Errorf("expected development secret to be substituted")
	}
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("expected JWT_SECRET error, got %v", err)
	}
}

func TestLoad_ProductionRejectsDevSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", DevJWTSecret)

	if _, err := Load(); err == nil {
		t.Fatal("expected error for development secret in production")
	}
}

func TestLoad_ProductionWithSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "a-real-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.JWTSecretDefaulted {
		t.Error("secret must not be marked as defaulted")
	}
}

func TestLoad_EnvFile(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "")

	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("JWT_SECRET=from-file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	// godotenv never overrides variables that are already set.
	os.Unsetenv("JWT_SECRET")
	t.Cleanup(func() { os.Unsetenv("JWT_SECRET") })

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.JWTSecret != "from-file" {
		t.Errorf("expected secret from env file, got %q", cfg.JWTSecret)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			AppEnv:             "development",
			DataDir:            "./data",
			JWTSecret:          "s",
			TokenTTL:           time.Hour,
			BcryptCost:         10,
			AuthCookieName:     "auth_token",
			MaxRequestBodySize: 1024,
			RateLimitAuthRPM:   30,
			RateLimitAuthBurst: 10,
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bcrypt cost too low", func(c *Config) { c.BcryptCost = 3 }},
		{"bcrypt cost too high", func(c *Config) { c.BcryptCost = 32 }},
		{"zero ttl", func(c *Config) { c.TokenTTL = 0 }},
		{"empty data dir", func(c *Config) { c.DataDir = "" }},
		{"empty cookie name", func(c *Config) { c.AuthCookieName = "" }},
		{"zero body size", func(c *Config) { c.MaxRequestBodySize = 0 }},
		{"zero burst", func(c *Config) { c.RateLimitAuthEnabled = true; c.RateLimitAuthBurst = 0 }},
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestConfig_GetCORSAllowedOrigins(t *testing.T) {
	cfg := &Config{CORSAllowedOrigins: " https://a.example.com, ,https://b.example.com "}
	got := cfg.GetCORSAllowedOrigins()
	if len(got) != 2 || got[0] != "https://a.example.com" || got[1] != "https://b.example.com" {
		t.Fatalf("unexpected origins: %v", got)
	}
	if (&Config{}).GetCORSAllowedOrigins() != nil {
		t.Fatal("expected nil for empty origins")
	}
}

func TestConfig_NormalizedAPIPrefix(t *testing.T) {
	tests := map[string]string{
		"":       "",
		"/":      "",
		"api":    "/api",
		"/api/":  "/api",
		" /v1 ":  "/v1",
		"/a/b/":  "/a/b",
	}
	for in, want := range tests {
		if got := (&Config{APIPrefix: in}).NormalizedAPIPrefix(); got != want {
			t.Errorf("NormalizedAPIPrefix(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestConfig_Environment(t *testing.T) {
	cfg := &Config{AppEnv: "development"}
	if !cfg.IsDevelopment() || cfg.IsProduction() {
		t.Error("expected development mode")
	}

	cfg.AppEnv = "production"
	if cfg.IsDevelopment() || !cfg.IsProduction() {
		t.Error("expected production mode")
	}
}
