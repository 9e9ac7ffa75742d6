package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("QUIZ_URL", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Provider.URL != DefaultProviderURL || cfg.View.Countdown != 3 {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := "provider:\n  url: https://quiz.example/quiz\nquiz:\n  ttl: 5m\nredis:\n  addr: localhost:6379\n"
	t.Setenv("QUIZ_URL", "")
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Provider.URL != "https://quiz.example/quiz" || cfg.Redis.Addr != "localhost:6379" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Server.Port != "8080" {
		t.Fatalf("expected default port kept, got %q", cfg.Server.Port)
	}
	if got := TTLDuration(cfg.Quiz.TTL, 0); got != 5*time.Minute {
		t.Fatalf("expected 5m ttl, got %s", got)
	}
}

func TestLoadEnvOverridesURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("provider:\n  url: https://file.example/quiz\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("QUIZ_URL", "https://env.example/quiz")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Provider.URL != "https://env.example/quiz" {
		t.Fatalf("expected env url, got %q", cfg.Provider.URL)
	}
}

func TestTTLDurationFallsBack(t *testing.T) {
	if got := TTLDuration("", time.Second); got != time.Second {
		t.Fatalf("expected fallback for empty, got %s", got)
	}
	if got := TTLDuration("soon", time.Second); got != time.Second {
		t.Fatalf("expected fallback for garbage, got %s", got)
	}
}
