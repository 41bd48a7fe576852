package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/verdant/drip/internal/kb"
	"github.com/verdant/drip/internal/schedule"
	"github.com/verdant/drip/internal/textgen"
	"github.com/verdant/drip/internal/webhook"
)

func newWebhookCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Serve the inbound-reply HTTP endpoint",
		Long:  "Starts the HTTP server that the SMS gateway POSTs owner replies to.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			reg, err := buildRegistry(cfg)
			if err != nil {
				return err
			}

			if port == 0 {
				port = cfg.Webhook.Port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return webhook.Start(ctx, webhook.StartOpts{
				DB:       gormDB,
				Catalog:  kb.Builtin(),
				Texts:    textgen.NewTemplateGenerator(),
				Adapters: reg,
				Clock:    schedule.SystemClock{},
				Port:     port,
				Out:      cmd.OutOrStdout(),
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Drip config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (defaults to webhook.port from config)")
	return cmd
}
