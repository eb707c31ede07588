// Package config holds the settings shared by every bot built on core:
// Telegram access, webhook, logging and rate limiting. Values come from a
// YAML file and are overridden by environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Run modes.
const (
	RunModeWebhook  = "webhook"
	RunModeLongpoll = "longpoll"
)

// Update kinds accepted by rate_limit.exclude_updates.
const (
	UpdateCallback = "callback"
	UpdateMessage  = "message"
)

// TelegramConfig holds bot credentials and the update source.
type TelegramConfig struct {
	Token string `yaml:"token" envconfig:"BOT_TOKEN"`
	// AdminID may run admin commands anywhere, without a chat role.
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds is the getUpdates hold time; 0 means the default.
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format string `yaml:"format" envconfig:"LOG_FORMAT"`
	// Dir and File add a log file next to stdout when both are set.
	Dir  string `yaml:"dir" envconfig:"LOG_DIR"`
	File string `yaml:"file" envconfig:"LOG_FILE"`
	// Profile "debug" or "dev" switches the default format to text.
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

// RateLimitConfig throttles each user to one update per IntervalMS.
// ExcludeUpdates lists update kinds ("callback", "message") that bypass it.
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// Config aggregates the core sections. Applications embed it inline.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// Load reads and normalizes a core-only configuration.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := LoadInto(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadInto decodes the YAML file at path into dst, then overlays the
// environment. dst is any struct embedding Config; normalizing is left to
// the caller.
func LoadInto(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := envconfig.Process("", dst); err != nil {
		return fmt.Errorf("config env: %w", err)
	}
	return nil
}

// Normalize validates cfg and fills defaults in place.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		return errors.New("telegram token is required")
	}
	if err := normalizeRunMode(cfg); err != nil {
		return err
	}
	if cfg.RateLimit.IntervalMS < 0 {
		return errors.New("rate_limit.interval_ms must be >= 0")
	}
	kinds := cfg.RateLimit.ExcludeUpdates[:0]
	for _, v := range cfg.RateLimit.ExcludeUpdates {
		kind := strings.ToLower(strings.TrimSpace(v))
		switch kind {
		case "":
			continue
		case UpdateCallback, UpdateMessage:
			kinds = append(kinds, kind)
		default:
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message", v)
		}
	}
	cfg.RateLimit.ExcludeUpdates = kinds
	return nil
}

func normalizeRunMode(cfg *Config) error {
	mode := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	switch mode {
	case "", "polling", RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return errors.New("telegram.longpoll_timeout_seconds must be >= 0")
		}
		cfg.Telegram.RunMode = RunModeLongpoll
	case RunModeWebhook:
		wh := cfg.Webhook
		switch {
		case strings.TrimSpace(wh.URL) == "":
			return errors.New("webhook.url is required in webhook mode")
		case strings.TrimSpace(wh.Listen) == "":
			return errors.New("webhook.listen is required in webhook mode")
		case wh.Port <= 0:
			return errors.New("webhook.port must be > 0 in webhook mode")
		}
		cfg.Telegram.RunMode = RunModeWebhook
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	return nil
}
