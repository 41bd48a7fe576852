// Package config provides YAML-based configuration loading for Drip.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Drip configuration, loaded from drip.yaml.
type Config struct {
	Locale   string         `yaml:"locale"`
	Database DatabaseConfig `yaml:"database"`
	Sweep    SweepConfig    `yaml:"sweep"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Senders  []string       `yaml:"senders"`
	Tiers    map[string]int `yaml:"tiers"`
	Channels ChannelsConfig `yaml:"channels"`
	TextGen  TextGenConfig  `yaml:"textgen"`
}

// DatabaseConfig holds connection settings for the plant store.
// Driver "sqlite" uses Path; driver "mysql" uses Host/Port/Name.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	Name   string `yaml:"name"`
}

// SweepConfig controls the scheduling sweep cadence.
type SweepConfig struct {
	Cron     string `yaml:"cron"`
	PageSize int    `yaml:"page_size"`
}

// WebhookConfig holds settings for the inbound-reply HTTP server.
type WebhookConfig struct {
	Port int `yaml:"port"`
}

// ChannelsConfig holds credentials for the delivery channel adapters.
type ChannelsConfig struct {
	SMS     SMSConfig     `yaml:"sms"`
	Slack   SlackConfig   `yaml:"slack"`
	Discord DiscordConfig `yaml:"discord"`
}

// SMSConfig points at a self-hosted SMS gateway REST API.
type SMSConfig struct {
	GatewayURL string `yaml:"gateway_url"`
	APIKey     string `yaml:"api_key"`
}

// SlackConfig holds Slack bot credentials for DM delivery.
type SlackConfig struct {
	BotToken string `yaml:"bot_token"`
}

// DiscordConfig holds Discord bot credentials for DM delivery.
type DiscordConfig struct {
	BotToken string `yaml:"bot_token"`
}

// TextGenConfig controls message body generation.
type TextGenConfig struct {
	TimeoutSec int `yaml:"timeout_seconds"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Locale == "" {
		c.Locale = "en"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Path == "" {
		c.Database.Path = "drip.db"
	}
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.Name == "" {
		c.Database.Name = "drip"
	}
	if c.Sweep.Cron == "" {
		c.Sweep.Cron = "0 * * * *"
	}
	if c.Sweep.PageSize == 0 {
		c.Sweep.PageSize = 200
	}
	if c.Webhook.Port == 0 {
		c.Webhook.Port = 8085
	}
	if c.Tiers == nil {
		c.Tiers = map[string]int{}
	}
	if c.Tiers["free"] == 0 {
		c.Tiers["free"] = 1
	}
	if c.Tiers["plus"] == 0 {
		c.Tiers["plus"] = 3
	}
	if c.Tiers["grower"] == 0 {
		c.Tiers["grower"] = 10
	}
	if c.TextGen.TimeoutSec == 0 {
		c.TextGen.TimeoutSec = 5
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not supported (sqlite, mysql)", c.Database.Driver))
	}
	if len(c.Senders) == 0 {
		errs = append(errs, "at least one sender number is required")
	}
	for i, s := range c.Senders {
		if strings.TrimSpace(s) == "" {
			errs = append(errs, fmt.Sprintf("senders[%d] is empty", i))
		}
	}
	for tier, max := range c.Tiers {
		if max < 0 {
			errs = append(errs, fmt.Sprintf("tiers.%s must be non-negative", tier))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// MaxSlots returns the plant slot cap for a tier. Unknown tiers get the
// free tier's cap.
func (c *Config) MaxSlots(tier string) int {
	if max, ok := c.Tiers[tier]; ok {
		return max
	}
	return c.Tiers["free"]
}
