package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefaults(t *testing.T) {
	cfg, err := FromViper(viper.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ListenAddr != ":8080" {
		t.Errorf("expected listen addr ':8080', got '%s'", cfg.ListenAddr)
	}
	if cfg.AlertTTL != 5*time.Second {
		t.Errorf("expected alert ttl 5s, got %v", cfg.AlertTTL)
	}
	if cfg.BackendTimeout != 0 {
		t.Errorf("expected no backend timeout, got %v", cfg.BackendTimeout)
	}
	if cfg.Shell.URL != DefaultShellURL {
		t.Errorf("expected shell url '%s', got '%s'", DefaultShellURL, cfg.Shell.URL)
	}
	if !cfg.Shell.JavaScript || !cfg.Shell.DOMStorage || !cfg.Shell.WideViewport {
		t.Errorf("expected all shell settings enabled, got %+v", cfg.Shell)
	}
	if !cfg.AllowsAllOrigins() {
		t.Error("expected CORS to allow all origins by default")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BACKEND_URL", "http://api.internal:9000")
	t.Setenv("ALERT_TTL", "2s")
	t.Setenv("SHELL_JAVASCRIPT", "false")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := FromViper(viper.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.BackendURL != "http://api.internal:9000" {
		t.Errorf("unexpected backend url '%s'", cfg.BackendURL)
	}
	if cfg.AlertTTL != 2*time.Second {
		t.Errorf("expected alert ttl 2s, got %v", cfg.AlertTTL)
	}
	if cfg.Shell.JavaScript {
		t.Error("expected javascript to be disabled")
	}
	if len(cfg.AllowOrigins) != 2 || cfg.AllowsAllOrigins() {
		t.Errorf("unexpected origins %v", cfg.AllowOrigins)
	}
	loc, err := cfg.Location()
	if err != nil || loc != time.UTC {
		t.Errorf("expected UTC location, got %v (%v)", loc, err)
	}
}

func TestFileValues(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yml")
	if err := v.ReadConfig(strings.NewReader("listen_addr: \":9999\"\nsession_idle_ttl: 10m\n")); err != nil {
		t.Fatalf("failed to read config: %v", err)
	}

	cfg, err := FromViper(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ListenAddr != ":9999" {
		t.Errorf("expected listen addr ':9999', got '%s'", cfg.ListenAddr)
	}
	if cfg.SessionIdleTTL != 10*time.Minute {
		t.Errorf("expected session idle ttl 10m, got %v", cfg.SessionIdleTTL)
	}
}

func TestInvalidAlertTTL(t *testing.T) {
	t.Setenv("ALERT_TTL", "0s")
	if _, err := FromViper(viper.New()); err == nil {
		t.Error("expected error for zero alert ttl")
	}
}

func TestInvalidTimezone(t *testing.T) {
	t.Setenv("TIMEZONE", "Mars/Olympus")
	if _, err := FromViper(viper.New()); err == nil {
		t.Error("expected error for unknown timezone")
	}
}
