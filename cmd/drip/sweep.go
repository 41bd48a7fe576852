package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/verdant/drip/internal/sweep"
	"github.com/verdant/drip/internal/textgen"
)

func newSweepCmd() *cobra.Command {
	var (
		configPath string
		once       bool
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Send prompts to plants whose watering check is due",
		Long:  "Runs the due-plant sweep. By default loops on the configured cron cadence; --once runs a single pass and exits.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd, configPath, once)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Drip config file")
	cmd.Flags().BoolVar(&once, "once", false, "run one pass and exit")
	return cmd
}

func runSweep(cmd *cobra.Command, configPath string, once bool) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	reg, err := buildRegistry(cfg)
	if err != nil {
		return err
	}

	deps := sweep.Deps{
		DB:       gormDB,
		Texts:    textgen.NewTemplateGenerator(),
		Adapters: reg,
		PageSize: cfg.Sweep.PageSize,
		Out:      cmd.OutOrStdout(),
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if once {
		rep, err := sweep.RunOnce(ctx, deps, time.Now())
		if err != nil {
			return err
		}
		if rep.Failed > 0 {
			return fmt.Errorf("sweep finished with %d failures", rep.Failed)
		}
		return nil
	}

	return sweep.RunDaemon(ctx, deps, cfg.Sweep.Cron)
}
