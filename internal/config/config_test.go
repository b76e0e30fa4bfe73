package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_NAME", "APP_ENV", "APP_HOST", "APP_PORT", "APP_VERSION", "HTTP_REQUEST_TIMEOUT_SECONDS",
		"API_BASE_URL", "API_TIMEOUT_SECONDS", "POLL_INTERVAL_SECONDS", "PAGE_SIZE",
		"TOKEN_STORE", "TOKEN_FILE", "TOKEN_REDIS_KEY", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
		"LOG_LEVEL", "AUTH_ADMIN_CODE", "AUTH_AGENT_CODE", "AUTH_BCRYPT_COST",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.API.BaseURL != "http://localhost:5454/" {
		t.Fatalf("expected default API base url, got %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout() != 15*time.Second {
		t.Fatalf("expected default api timeout 15s, got %v", cfg.API.Timeout())
	}
	if cfg.Poll.Interval() != 30*time.Second {
		t.Fatalf("expected default poll interval 30s, got %v", cfg.Poll.Interval())
	}
	if cfg.View.PageSize != 10 {
		t.Fatalf("expected default page size 10, got %d", cfg.View.PageSize)
	}
	if cfg.Token.Store != TokenStoreFile {
		t.Fatalf("expected default token store file, got %q", cfg.Token.Store)
	}
	if cfg.App.Addr() != "127.0.0.1:3000" {
		t.Fatalf("expected default addr 127.0.0.1:3000, got %q", cfg.App.Addr())
	}
	if cfg.Auth.AdminCode != "ADMIN2024" || cfg.Auth.AgentCode != "AGENT2024" {
		t.Fatalf("unexpected default access codes %q/%q", cfg.Auth.AdminCode, cfg.Auth.AgentCode)
	}
}

func TestLoadNormalizesBaseURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_BASE_URL", "https://tickets.example.com/backend")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.API.BaseURL != "https://tickets.example.com/backend/" {
		t.Fatalf("expected trailing slash, got %q", cfg.API.BaseURL)
	}
}

func TestLoadRejectsUnknownTokenStore(t *testing.T) {
	clearEnv(t)
	t.Setenv("TOKEN_STORE", "cookie")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown token store")
	}
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	clearEnv(t)
	t.Setenv("REDIS_DB", "zero")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid REDIS_DB")
	}
}

func TestPollIntervalFloor(t *testing.T) {
	if got := (PollConfig{IntervalSeconds: 0}).Interval(); got != time.Second {
		t.Fatalf("expected 1s floor, got %v", got)
	}
}
