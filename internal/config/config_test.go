package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("default port = %d, want 8000", cfg.Server.Port)
	}
	if cfg.Session.RefreshInterval != 5*time.Second {
		t.Errorf("default refresh interval = %v", cfg.Session.RefreshInterval)
	}
	if cfg.Session.NotificationTTL != 5*time.Second {
		t.Errorf("default notification TTL = %v", cfg.Session.NotificationTTL)
	}
	if cfg.Session.MaxNotifications != 3 {
		t.Errorf("default max notifications = %d", cfg.Session.MaxNotifications)
	}
	if cfg.Session.NotificationChance != 0.6 {
		t.Errorf("default notification chance = %v", cfg.Session.NotificationChance)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("default log level = %q", cfg.Log.Level)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vigia.yaml")
	content := `
server:
  port: 9090
upstream:
  monitoring_url: http://collector.local:8000/api
session:
  refresh_interval: 2s
  max_notifications: 5
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Upstream.MonitoringURL != "http://collector.local:8000/api" {
		t.Errorf("monitoring url = %q", cfg.Upstream.MonitoringURL)
	}
	if cfg.Session.RefreshInterval != 2*time.Second {
		t.Errorf("refresh interval = %v", cfg.Session.RefreshInterval)
	}
	if cfg.Session.MaxNotifications != 5 {
		t.Errorf("max notifications = %d", cfg.Session.MaxNotifications)
	}
	// Unset fields still get defaults.
	if cfg.Session.NotificationTTL != 5*time.Second {
		t.Errorf("notification TTL = %v, want default", cfg.Session.NotificationTTL)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected an error for a missing explicit config path")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		cfg.applyDefaults()
		return cfg
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port too large", func(c *Config) { c.Server.Port = 70000 }},
		{"tls without cert", func(c *Config) { c.Server.TLSEnabled = true }},
		{"inverted notification periods", func(c *Config) {
			c.Session.NotificationMinPeriod = 30 * time.Second
			c.Session.NotificationMaxPeriod = 10 * time.Second
		}},
		{"chance above one", func(c *Config) { c.Session.NotificationChance = 1.5 }},
		{"zero queue cap", func(c *Config) { c.Session.MaxNotifications = -1 }},
	}
	for _, tc := range cases {
		cfg := base()
		tc.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected a validation error", tc.name)
		}
	}

	if err := base().Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}
