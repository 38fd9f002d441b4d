package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAdhanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "adhan",
		Short: "Play or schedule the adhan",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "play",
		Short: "Play the adhan for the next prayer now",
		Args:  cobra.NoArgs,
		RunE:  runAdhanPlay,
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "watch",
		Short: "Play the adhan when each prayer is due",
		Long:  "Run in the foreground and play the adhan at each prayer time until interrupted.",
		Args:  cobra.NoArgs,
		RunE:  runAdhanWatch,
	})

	return cmd
}

func runAdhanPlay(cmd *cobra.Command, args []string) error {
	cfg, err := effectiveConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cmd, cfg, "warn")
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.load(cmd.Context(), FlagRefresh); err != nil {
		return err
	}
	trigger, err := a.newTrigger()
	if err != nil {
		return err
	}
	name, err := trigger.PlayNow(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Playing adhan for %s\n", name)
	return nil
}

func runAdhanWatch(cmd *cobra.Command, args []string) error {
	cfg, err := effectiveConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cmd, cfg, "info")
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.load(ctx, FlagRefresh); err != nil {
		return err
	}
	trigger, err := a.newTrigger()
	if err != nil {
		return err
	}

	go a.monitor.Run(ctx)
	go a.ctrl.Watch(ctx, a.monitor.Subscribe())
	go a.rollover(ctx, rolloverInterval)

	log.Info().Bool("muted", trigger.Muted()).Msg("watching for prayer times")
	trigger.Run(ctx)
	log.Info().Msg("stopped")
	return nil
}
