package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Aanecas/Fantasy-Ciclismo-Guardianes/pkg/rider"
	"github.com/Aanecas/Fantasy-Ciclismo-Guardianes/pkg/value"
)

// Config is the root configuration.
type Config struct {
	Race     string         `yaml:"race"`
	Data     DataConfig     `yaml:"data"`
	PCS      PCSConfig      `yaml:"pcs"`
	Value    ValueConfig    `yaml:"value"`
	Sheets   SheetsConfig   `yaml:"sheets"`
	Database DatabaseConfig `yaml:"database"`
	Alerts   AlertsConfig   `yaml:"alerts"`
	Server   ServerConfig   `yaml:"server"`
}

// DataConfig locates the files passed between pipeline stages.
type DataConfig struct {
	Startlist string `yaml:"startlist"`
	Values    string `yaml:"values"`
}

// PCSConfig configures the ProCyclingStats client.
type PCSConfig struct {
	BaseURL      string `yaml:"base_url"`
	UserAgent    string `yaml:"user_agent"`
	Timeout      string `yaml:"timeout"`
	MinInterval  string `yaml:"min_interval"`
	RankingPages int    `yaml:"ranking_pages"`
}

// ParseTimeout returns the request timeout as time.Duration.
func (p PCSConfig) ParseTimeout() time.Duration {
	d, err := time.ParseDuration(p.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// ParseMinInterval returns the minimum delay between requests.
func (p PCSConfig) ParseMinInterval() time.Duration {
	d, err := time.ParseDuration(p.MinInterval)
	if err != nil {
		return 500 * time.Millisecond
	}
	return d
}

// ValueConfig tunes the valuation.
type ValueConfig struct {
	// Roles overrides the role bonus table. Order matters: the first keyword
	// contained in a role label wins.
	Roles []value.RoleBonus `yaml:"roles"`
}

// SheetsConfig configures the Google Sheets publisher.
type SheetsConfig struct {
	SpreadsheetID string `yaml:"spreadsheet_id"`
	Tab           string `yaml:"tab"`
	Credentials   string `yaml:"credentials"`
	Token         string `yaml:"token"`
}

// DatabaseConfig configures the SQLite run archive. An empty path disables it.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AlertsConfig configures publish notifications.
type AlertsConfig struct {
	Slack   SlackConfig   `yaml:"slack"`
	Discord DiscordConfig `yaml:"discord"`
	Webhook WebhookConfig `yaml:"webhook"`
}

// SlackConfig for Slack webhook notifications.
type SlackConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// DiscordConfig for Discord webhook notifications.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// WebhookConfig for generic webhook notifications.
type WebhookConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Secret  string `yaml:"secret"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Race: "race/vuelta-a-espana/2024",
		Data: DataConfig{
			Startlist: "data/startlist.json",
			Values:    "data/startlist.values.json",
		},
		PCS: PCSConfig{
			BaseURL:      rider.DefaultBaseURL,
			UserAgent:    "Mozilla/5.0 (compatible; fantasy-guardianes/1.0)",
			Timeout:      "30s",
			MinInterval:  "500ms",
			RankingPages: 1,
		},
		Sheets: SheetsConfig{
			Tab:         "Startlist",
			Credentials: "credentials.json",
			Token:       "token.json",
		},
		Database: DatabaseConfig{Path: "./fantasy.db"},
		Server:   ServerConfig{Port: 8080},
	}
}

// Load reads configuration from a YAML file and applies env var overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FANTASY_RACE"); v != "" {
		cfg.Race = v
	}
	if v, ok := os.LookupEnv("FANTASY_DB_PATH"); ok {
		cfg.Database.Path = v
	}
	if v := os.Getenv("FANTASY_SPREADSHEET_ID"); v != "" {
		cfg.Sheets.SpreadsheetID = v
	}
	if v := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); v != "" {
		cfg.Sheets.Credentials = v
	}
	if v := os.Getenv("SLACK_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Slack.WebhookURL = v
		cfg.Alerts.Slack.Enabled = true
	}
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Discord.WebhookURL = v
		cfg.Alerts.Discord.Enabled = true
	}
}
