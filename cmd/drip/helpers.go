package main

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/verdant/drip/internal/config"
	"github.com/verdant/drip/internal/db"
	"github.com/verdant/drip/internal/notify"
	"github.com/verdant/drip/internal/notify/discord"
	"github.com/verdant/drip/internal/notify/slack"
	"github.com/verdant/drip/internal/notify/smsgw"
)

const defaultConfigPath = "drip.yaml"

func connectFromConfig(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}

	return cfg, gormDB, nil
}

// buildRegistry creates delivery adapters for every channel with
// credentials in the config. At least one must be configured.
func buildRegistry(cfg *config.Config) (*notify.Registry, error) {
	reg := notify.NewRegistry()

	if cfg.Channels.SMS.GatewayURL != "" {
		a, err := smsgw.New(smsgw.AdapterOpts{
			GatewayURL: cfg.Channels.SMS.GatewayURL,
			APIKey:     cfg.Channels.SMS.APIKey,
		})
		if err != nil {
			return nil, err
		}
		reg.Register(a)
	}
	if cfg.Channels.Slack.BotToken != "" {
		a, err := slack.New(slack.AdapterOpts{BotToken: cfg.Channels.Slack.BotToken})
		if err != nil {
			return nil, err
		}
		reg.Register(a)
	}
	if cfg.Channels.Discord.BotToken != "" {
		a, err := discord.New(discord.AdapterOpts{BotToken: cfg.Channels.Discord.BotToken})
		if err != nil {
			return nil, err
		}
		reg.Register(a)
	}

	if len(reg.Channels()) == 0 {
		return nil, fmt.Errorf("no delivery channel configured (channels.sms, channels.slack or channels.discord)")
	}
	return reg, nil
}

// senderForSlot maps a plant slot to its dedicated sender number.
func senderForSlot(cfg *config.Config, slot int) (string, error) {
	if slot < 0 || slot >= len(cfg.Senders) {
		return "", fmt.Errorf("no sender number configured for slot %d (%d senders)", slot, len(cfg.Senders))
	}
	return cfg.Senders[slot], nil
}
