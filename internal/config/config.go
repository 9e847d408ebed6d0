package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultLookbackWeeks = 12
	DefaultHistoryPath   = "data/cwv_history.csv"
	DefaultChartDir      = "data/charts"
	DefaultInterval      = 24 * time.Hour
	DefaultCrUXTimeout   = 30 * time.Second
)

// Config is the top-level reporter configuration.
type Config struct {
	Report ReportConfig `yaml:"report"`
	CrUX   CrUXConfig   `yaml:"crux"`
	Slack  SlackConfig  `yaml:"slack"`
}

// ReportConfig holds what to report on and where artifacts go.
type ReportConfig struct {
	// Origin is the site origin (scheme + host) the report covers.
	Origin string `yaml:"origin"`

	// SitemapURL, when set and Pages is empty, is fetched to discover
	// the target pages.
	SitemapURL string `yaml:"sitemap_url"`

	// Pages is an optional explicit list of page URLs to query. When
	// empty and no sitemap is configured, the report runs origin-level.
	Pages []string `yaml:"pages"`

	// LookbackWeeks is the rolling window of weeks kept in the chart
	// and summary.
	LookbackWeeks int `yaml:"lookback_weeks"`

	// HistoryPath is the CSV history artifact location.
	HistoryPath string `yaml:"history_path"`

	// ChartDir is where per-metric trend PNGs are written.
	ChartDir string `yaml:"chart_dir"`

	// TextfilePath, when set, enables the Prometheus textfile export.
	TextfilePath string `yaml:"textfile_path"`

	// WarnPoorPct marks metrics in the Slack summary whose Poor share
	// exceeds this percentage. Zero disables the marker.
	WarnPoorPct float64 `yaml:"warn_poor_pct"`

	// Interval is the tick between reports in scheduled mode.
	Interval time.Duration `yaml:"interval"`
}

// CrUXConfig configures the Chrome UX Report API client.
type CrUXConfig struct {
	// Endpoint overrides the production API base URL (used in tests).
	Endpoint string `yaml:"endpoint"`

	// APIKeyEnv is the name of the environment variable holding the key.
	APIKeyEnv string `yaml:"api_key_env"`

	// Timeout bounds each API request.
	Timeout time.Duration `yaml:"timeout"`
}

// APIKey returns the API key resolved from the environment. Empty when
// APIKeyEnv is unset or the variable is not found.
func (c CrUXConfig) APIKey() string {
	if c.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.APIKeyEnv)
}

// SlackConfig configures report delivery.
type SlackConfig struct {
	// WebhookURLEnv names the environment variable holding the incoming
	// webhook URL. When empty, the summary is only logged.
	WebhookURLEnv string `yaml:"webhook_url_env"`

	// BotTokenEnv names the environment variable holding the bot token
	// used for chart uploads. Optional.
	BotTokenEnv string `yaml:"bot_token_env"`

	// Channel is the channel charts are uploaded to.
	Channel string `yaml:"channel"`
}

// WebhookURL returns the webhook URL resolved from the environment.
func (c SlackConfig) WebhookURL() string {
	if c.WebhookURLEnv == "" {
		return ""
	}
	return os.Getenv(c.WebhookURLEnv)
}

// BotToken returns the bot token resolved from the environment.
func (c SlackConfig) BotToken() string {
	if c.BotTokenEnv == "" {
		return ""
	}
	return os.Getenv(c.BotTokenEnv)
}

// Load reads and parses the YAML config file at path. Missing optional
// fields are filled with sensible defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Report: ReportConfig{
			LookbackWeeks: DefaultLookbackWeeks,
			HistoryPath:   DefaultHistoryPath,
			ChartDir:      DefaultChartDir,
			Interval:      DefaultInterval,
		},
		CrUX: CrUXConfig{
			Timeout: DefaultCrUXTimeout,
		},
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	u, err := url.Parse(cfg.Report.Origin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("report.origin must be a scheme://host URL, got %q", cfg.Report.Origin)
	}
	if u.Path != "" && u.Path != "/" {
		return fmt.Errorf("report.origin must not carry a path, got %q", cfg.Report.Origin)
	}
	if cfg.Report.LookbackWeeks <= 0 {
		return fmt.Errorf("report.lookback_weeks must be positive")
	}
	if cfg.Report.HistoryPath == "" {
		return fmt.Errorf("report.history_path is required")
	}
	if cfg.Report.WarnPoorPct < 0 || cfg.Report.WarnPoorPct > 100 {
		return fmt.Errorf("report.warn_poor_pct must be within [0, 100]")
	}
	if cfg.Report.Interval <= 0 {
		return fmt.Errorf("report.interval must be positive")
	}
	for i, p := range cfg.Report.Pages {
		pu, err := url.Parse(p)
		if err != nil || pu.Scheme == "" || pu.Host == "" {
			return fmt.Errorf("report.pages[%d]: not an absolute URL: %q", i, p)
		}
	}
	if cfg.CrUX.APIKeyEnv == "" {
		return fmt.Errorf("crux.api_key_env is required")
	}
	if cfg.CrUX.Timeout <= 0 {
		return fmt.Errorf("crux.timeout must be positive")
	}
	if cfg.Slack.BotTokenEnv != "" && cfg.Slack.Channel == "" {
		return fmt.Errorf("slack.channel is required when slack.bot_token_env is set")
	}
	return nil
}
