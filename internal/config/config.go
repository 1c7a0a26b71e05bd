// Package config loads the Vigia service configuration from a YAML file
// and applies defaults and validation.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Auth     AuthConfig     `yaml:"auth"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Session  SessionConfig  `yaml:"session"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	TLSEnabled  bool   `yaml:"tls_enabled"`
	TLSCertPath string `yaml:"tls_cert"`
	TLSKeyPath  string `yaml:"tls_key"`
}

type AuthConfig struct {
	JWTSecret   string        `yaml:"jwt_secret"`
	TokenExpiry time.Duration `yaml:"token_expiry"`
}

// UpstreamConfig points at the monitoring collector consumed by dashboard
// sessions. Any failure talking to it is absorbed by the local synthesizer.
type UpstreamConfig struct {
	MonitoringURL string        `yaml:"monitoring_url"`
	Timeout       time.Duration `yaml:"timeout"`
}

// SessionConfig tunes the per-company dashboard session loops.
type SessionConfig struct {
	RefreshInterval       time.Duration `yaml:"refresh_interval"`
	NotificationDelay     time.Duration `yaml:"notification_delay"`
	NotificationMinPeriod time.Duration `yaml:"notification_min_period"`
	NotificationMaxPeriod time.Duration `yaml:"notification_max_period"`
	NotificationTTL       time.Duration `yaml:"notification_ttl"`
	NotificationChance    float64       `yaml:"notification_chance"`
	MaxNotifications      int           `yaml:"max_notifications"`
}

type StorageConfig struct {
	UsersFile       string `yaml:"users_file"`
	PreferencesFile string `yaml:"preferences_file"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads the configuration file at path. A missing path yields the
// defaults, so the demo runs with no configuration at all.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Auth.JWTSecret == "" {
		c.Auth.JWTSecret = "vigia-demo-secret-change-in-production"
	}
	if c.Auth.TokenExpiry == 0 {
		c.Auth.TokenExpiry = 24 * time.Hour
	}
	if c.Upstream.Timeout == 0 {
		c.Upstream.Timeout = 4 * time.Second
	}
	if c.Session.RefreshInterval == 0 {
		c.Session.RefreshInterval = 5 * time.Second
	}
	if c.Session.NotificationDelay == 0 {
		c.Session.NotificationDelay = 3 * time.Second
	}
	if c.Session.NotificationMinPeriod == 0 {
		c.Session.NotificationMinPeriod = 15 * time.Second
	}
	if c.Session.NotificationMaxPeriod == 0 {
		c.Session.NotificationMaxPeriod = 25 * time.Second
	}
	if c.Session.NotificationTTL == 0 {
		c.Session.NotificationTTL = 5 * time.Second
	}
	if c.Session.NotificationChance == 0 {
		c.Session.NotificationChance = 0.6
	}
	if c.Session.MaxNotifications == 0 {
		c.Session.MaxNotifications = 3
	}
	if c.Storage.UsersFile == "" {
		c.Storage.UsersFile = "data/users.json"
	}
	if c.Storage.PreferencesFile == "" {
		c.Storage.PreferencesFile = "data/preferences.json"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate rejects configurations the session loops cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Server.TLSEnabled && (c.Server.TLSCertPath == "" || c.Server.TLSKeyPath == "") {
		return fmt.Errorf("server.tls_cert and server.tls_key are required when TLS is enabled")
	}
	if c.Session.NotificationMinPeriod > c.Session.NotificationMaxPeriod {
		return fmt.Errorf("session.notification_min_period must not exceed notification_max_period")
	}
	if c.Session.NotificationChance < 0 || c.Session.NotificationChance > 1 {
		return fmt.Errorf("session.notification_chance must be between 0 and 1")
	}
	if c.Session.MaxNotifications < 1 {
		return fmt.Errorf("session.max_notifications must be at least 1")
	}
	return nil
}
