package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/quranlake/internal/prayer"
)

var flagFormat string

func newNextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "next",
		Short: "Show the next prayer with countdown",
		Long:  "Display the next upcoming prayer time with a countdown.\nSuited to status bars such as tmux.",
		RunE:  runNext,
	}

	cmd.Flags().StringVar(&flagFormat, "format", prayer.FormatFull,
		"Display format: "+strings.Join(prayer.Formats, ", ")+", or a custom Go template")

	return cmd
}

func runNext(cmd *cobra.Command, args []string) error {
	cfg, err := effectiveConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cmd, cfg, "error")
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	view, err := a.load(cmd.Context(), FlagRefresh)
	if err != nil {
		return err
	}

	now := nowIn(view.PrayerTimes)
	next, err := prayer.NextPrayer(view.PrayerTimes.Data.Timings, now)
	if err != nil {
		// Keep the status bar stable when the provider returned no usable times.
		fmt.Fprint(cmd.OutOrStdout(), prayer.Missing)
		return nil
	}

	fmt.Fprint(cmd.OutOrStdout(), prayer.FormatOutput(next, now, flagFormat, goTimeFormat(cfg)))
	return nil
}
