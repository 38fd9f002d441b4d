package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/quranlake/internal/prayer"
)

func newQueryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query <prayer>",
		Short: "Query a specific prayer time",
		Long:  "Query today's time for a single prayer.\n\nValid prayer names: " + strings.Join(prayer.AllPrayerNames, ", "),
		Args:  cobra.ExactArgs(1),
		RunE:  runQuery,
	}
}

// normalizePrayer returns the canonical spelling of name.
func normalizePrayer(name string) (string, error) {
	for _, n := range prayer.AllPrayerNames {
		if strings.EqualFold(n, name) {
			return n, nil
		}
	}
	return "", fmt.Errorf("unknown prayer %q; valid names: %s", name, strings.Join(prayer.AllPrayerNames, ", "))
}

func runQuery(cmd *cobra.Command, args []string) error {
	prayerName, err := normalizePrayer(args[0])
	if err != nil {
		return err
	}

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

	view, err := a.load(cmd.Context(), FlagRefresh)
	if err != nil {
		return err
	}

	resp := view.PrayerTimes
	now := nowIn(resp)
	raw, _ := resp.Data.Timings.Get(prayerName)
	at, err := prayer.ParseClock(raw, now, now.Location())
	if err != nil {
		return fmt.Errorf("no timing found for %s", prayerName)
	}
	timeStr := at.Format(goTimeFormat(cfg))

	var adhanStr string
	if slices.Contains(prayer.AdhanPrayers, prayerName) {
		if adhanAt, err := prayer.AdhanInstant(resp.Data.Timings, prayerName, now); err == nil {
			adhanStr = adhanAt.Format(goTimeFormat(cfg))
		}
	}

	out := cmd.OutOrStdout()
	if FlagJSON {
		return writeJSON(out, queryJSON{
			Prayer: strings.ToLower(prayerName),
			Arabic: prayer.ArabicName(prayerName),
			Time:   timeStr,
			Adhan:  adhanStr,
			Date:   now.Format("02 Jan 2006"),
			Hijri:  resp.Data.Date.Hijri.Format(),
		})
	}

	if adhanStr != "" && adhanStr != timeStr {
		fmt.Fprintf(out, "%s %s (adhan %s)\n", prayerName, timeStr, adhanStr)
		return nil
	}
	fmt.Fprintf(out, "%s %s\n", prayerName, timeStr)
	return nil
}

type queryJSON struct {
	Prayer string `json:"prayer"`
	Arabic string `json:"arabic,omitempty"`
	Time   string `json:"time"`
	Adhan  string `json:"adhan,omitempty"`
	Date   string `json:"date"`
	Hijri  string `json:"hijri"`
}
