package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/verdant/drip/internal/db"
	"github.com/verdant/drip/internal/models"
	"github.com/verdant/drip/internal/store"
)

func newAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Account management commands",
	}

	cmd.AddCommand(newAccountSeedCmd())
	cmd.AddCommand(newAccountShowCmd())
	return cmd
}

func newAccountSeedCmd() *cobra.Command {
	var (
		configPath  string
		phone       string
		tier        string
		personality string
		locale      string
		channel     string
		channelID   string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create or update an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if _, ok := cfg.Tiers[tier]; !ok {
				return fmt.Errorf("unknown tier %q", tier)
			}

			acct := models.Account{
				Phone:       phone,
				Tier:        tier,
				Personality: personality,
				Locale:      locale,
				Channel:     channel,
				ChannelID:   channelID,
			}
			if err := db.SeedAccount(gormDB, acct); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account %s ready (tier %s, %d slots)\n",
				phone, tier, cfg.MaxSlots(tier))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Drip config file")
	cmd.Flags().StringVar(&phone, "phone", "", "account phone number (required)")
	cmd.Flags().StringVar(&tier, "tier", "free", "subscription tier (free, plus, grower)")
	cmd.Flags().StringVar(&personality, "personality", "friendly", "message personality (friendly, sassy, zen)")
	cmd.Flags().StringVar(&locale, "locale", "en", "message locale")
	cmd.Flags().StringVar(&channel, "channel", "sms", "delivery channel (sms, slack, discord)")
	cmd.Flags().StringVar(&channelID, "channel-id", "", "slack/discord user ID (when channel is not sms)")
	cmd.MarkFlagRequired("phone")
	return cmd
}

func newAccountShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <phone>",
		Short: "Show an account and its plants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			acct, err := store.GetAccount(gormDB, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Phone:       %s\n", acct.Phone)
			fmt.Fprintf(out, "Tier:        %s (%d slots)\n", acct.Tier, cfg.MaxSlots(acct.Tier))
			fmt.Fprintf(out, "Personality: %s\n", acct.Personality)
			fmt.Fprintf(out, "Channel:     %s", acct.Channel)
			if acct.ChannelID != "" {
				fmt.Fprintf(out, " (%s)", acct.ChannelID)
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Drip config file")
	return cmd
}
