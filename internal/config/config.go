package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const DefaultShellURL = "https://your-jobhunter-app.onrender.com"

type Config struct {
	ListenAddr     string
	BackendURL     string
	BackendTimeout time.Duration
	AlertTTL       time.Duration
	SessionIdleTTL time.Duration
	Timezone       string
	AllowOrigins   []string

	Shell ShellConfig
}

type ShellConfig struct {
	URL          string
	ListenAddr   string
	JavaScript   bool
	DOMStorage   bool
	WideViewport bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("backend_url", "http://localhost:8000")
	v.SetDefault("backend_timeout", "0s")
	v.SetDefault("alert_ttl", "5s")
	v.SetDefault("session_idle_ttl", "30m")
	v.SetDefault("timezone", "Local")
	v.SetDefault("cors_allow_origins", "*")
	v.SetDefault("shell_url", DefaultShellURL)
	v.SetDefault("shell_listen_addr", ":8090")
	v.SetDefault("shell_javascript", true)
	v.SetDefault("shell_dom_storage", true)
	v.SetDefault("shell_wide_viewport", true)
}

// Load reads .env (if present), an optional configs/config.yml and the
// environment. Environment variables win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	v := viper.New()
	v.AddConfigPath("configs")
	v.SetConfigName("config")
	v.SetConfigType("yml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		ListenAddr:     v.GetString("listen_addr"),
		BackendURL:     v.GetString("backend_url"),
		BackendTimeout: v.GetDuration("backend_timeout"),
		AlertTTL:       v.GetDuration("alert_ttl"),
		SessionIdleTTL: v.GetDuration("session_idle_ttl"),
		Timezone:       v.GetString("timezone"),
		AllowOrigins:   splitList(v.GetString("cors_allow_origins")),
		Shell: ShellConfig{
			URL:          v.GetString("shell_url"),
			ListenAddr:   v.GetString("shell_listen_addr"),
			JavaScript:   v.GetBool("shell_javascript"),
			DOMStorage:   v.GetBool("shell_dom_storage"),
			WideViewport: v.GetBool("shell_wide_viewport"),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.BackendURL == "" {
		return errors.New("BACKEND_URL is empty")
	}
	if c.AlertTTL <= 0 {
		return fmt.Errorf("ALERT_TTL must be positive, got %v", c.AlertTTL)
	}
	if c.BackendTimeout < 0 {
		return fmt.Errorf("BACKEND_TIMEOUT must not be negative, got %v", c.BackendTimeout)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone; "Local" and "" mean the host zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// AllowsAllOrigins reports whether CORS is open to every origin.
func (c *Config) AllowsAllOrigins() bool {
	return len(c.AllowOrigins) == 0 || (len(c.AllowOrigins) == 1 && c.AllowOrigins[0] == "*")
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
