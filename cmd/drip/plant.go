package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/verdant/drip/internal/kb"
	"github.com/verdant/drip/internal/plant"
	"github.com/verdant/drip/internal/schedule"
	"github.com/verdant/drip/internal/store"
)

func newPlantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plant",
		Short: "Plant management commands",
	}

	cmd.AddCommand(newPlantCreateCmd())
	cmd.AddCommand(newPlantListCmd())
	cmd.AddCommand(newPlantShowCmd())
	cmd.AddCommand(newPlantLogCmd())
	cmd.AddCommand(newPlantRescheduleCmd())
	return cmd
}

func newPlantCreateCmd() *cobra.Command {
	var (
		configPath string
		owner      string
		slot       int
		sender     string
		name       string
		species    string
		potSize    string
		material   string
		light      string
		latitude   float64
		locale     string
		soil       string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Onboard a new plant",
		Long:  "Registers a plant on one of the owner's slots and computes its first watering due time.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			if sender == "" {
				sender, err = senderForSlot(cfg, slot)
				if err != nil {
					return err
				}
			}

			acct, err := store.GetAccount(gormDB, owner)
			if err != nil {
				return err
			}
			if locale == "" {
				locale = acct.Locale
			}

			p, err := plant.Create(gormDB, kb.Builtin(), schedule.SystemClock{}, plant.CreateOpts{
				OwnerPhone:    owner,
				Slot:          slot,
				SenderNumber:  sender,
				Name:          name,
				Species:       species,
				PotSize:       potSize,
				PotMaterial:   material,
				LightExposure: light,
				Latitude:      latitude,
				Locale:        locale,
				SoilStatus:    soil,
				MaxSlots:      cfg.MaxSlots(acct.Tier),
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created plant %s (%s)\n", p.ID, p.Species)
			fmt.Fprintf(out, "Texts from: %s\n", p.SenderNumber)
			fmt.Fprintf(out, "Watering interval: %dh (base %dh)\n", p.AdjustedHours, p.BaseHours)
			fmt.Fprintf(out, "Next check due: %s\n", p.NextDueAt.Format(time.RFC1123))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Drip config file")
	cmd.Flags().StringVar(&owner, "owner", "", "owner phone number (required)")
	cmd.Flags().IntVar(&slot, "slot", 0, "plant slot on the owner's account")
	cmd.Flags().StringVar(&sender, "sender", "", "sender number (defaults to the slot's configured sender)")
	cmd.Flags().StringVar(&name, "name", "", "plant nickname")
	cmd.Flags().StringVar(&species, "species", "", "plant species (required)")
	cmd.Flags().StringVar(&potSize, "pot-size", "", "pot size (small, large)")
	cmd.Flags().StringVar(&material, "pot-material", "", "pot material (plastic, terracotta)")
	cmd.Flags().StringVar(&light, "light", "", "window direction (north, south, east, west)")
	cmd.Flags().Float64Var(&latitude, "latitude", 0, "owner latitude")
	cmd.Flags().StringVar(&locale, "locale", "", "message locale (defaults to the account's)")
	cmd.Flags().StringVar(&soil, "soil", "just_watered", "current soil state (just_watered, damp, dry)")
	cmd.MarkFlagRequired("owner")
	cmd.MarkFlagRequired("species")
	return cmd
}

func newPlantListCmd() *cobra.Command {
	var (
		configPath string
		owner      string
		species    string
		dueOnly    bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List plants",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			plants, err := plant.List(gormDB, plant.ListFilters{
				OwnerPhone: owner,
				Species:    species,
				DueOnly:    dueOnly,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(plants) == 0 {
				fmt.Fprintln(out, "No plants found.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tOWNER\tSLOT\tNAME\tSPECIES\tINTERVAL\tNEXT DUE\tSTATE")
			for _, p := range plants {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%dh\t%s\t%s\n",
					shortID(p.ID), p.OwnerPhone, p.Slot, p.Name, p.Species,
					p.AdjustedHours, p.NextDueAt.Format("2006-01-02 15:04"), p.CycleState)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Drip config file")
	cmd.Flags().StringVar(&owner, "owner", "", "filter by owner phone")
	cmd.Flags().StringVar(&species, "species", "", "filter by species")
	cmd.Flags().BoolVar(&dueOnly, "due", false, "only plants whose check is due")
	return cmd
}

func newPlantShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a plant's schedule detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			p, err := store.Get(gormDB, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:           %s\n", p.ID)
			fmt.Fprintf(out, "Owner:        %s (slot %d, texts from %s)\n", p.OwnerPhone, p.Slot, p.SenderNumber)
			fmt.Fprintf(out, "Name:         %s\n", p.Name)
			fmt.Fprintf(out, "Species:      %s\n", p.Species)
			fmt.Fprintf(out, "Environment:  pot=%s/%s light=%s\n", p.PotSize, p.PotMaterial, p.LightExposure)
			fmt.Fprintf(out, "Interval:     %dh adjusted (base %dh, winter x%.1f, calibration %+dh)\n",
				p.AdjustedHours, p.BaseHours, p.WinterMultiplier, p.CalibrationHours)
			fmt.Fprintf(out, "Cycle state:  %s", p.CycleState)
			if p.SkipSoilCheck {
				fmt.Fprintf(out, " (next prompt skips the soil check)")
			}
			fmt.Fprintln(out)
			if !p.LastWateredAt.IsZero() {
				fmt.Fprintf(out, "Last watered: %s\n", p.LastWateredAt.Format(time.RFC1123))
			}
			fmt.Fprintf(out, "Next due:     %s\n", p.NextDueAt.Format(time.RFC1123))
			fmt.Fprintf(out, "Messages:     %d sent\n", p.MessagesSent)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Drip config file")
	return cmd
}

func newPlantLogCmd() *cobra.Command {
	var (
		configPath string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "log <id>",
		Short: "Show a plant's message history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			logs, err := store.Messages(gormDB, args[0], limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(logs) == 0 {
				fmt.Fprintln(out, "No messages yet.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "WHEN\tDIR\tKIND\tBODY")
			for _, m := range logs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					m.CreatedAt.Format("2006-01-02 15:04"), m.Direction, m.Kind, truncate(m.Body, 60))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Drip config file")
	cmd.Flags().IntVar(&limit, "limit", 20, "max messages to show")
	return cmd
}

func newPlantRescheduleCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "reschedule <id>",
		Short: "Recompute a plant's interval after a profile change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			p, err := plant.Reschedule(gormDB, kb.Builtin(), schedule.SystemClock{}, args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Plant %s now on a %dh interval (base %dh)\n",
				shortID(p.ID), p.AdjustedHours, p.BaseHours)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Drip config file")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
