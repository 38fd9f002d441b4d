package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/quranlake/internal/api"
	"github.com/smokyabdulrahman/quranlake/internal/controller"
	"github.com/smokyabdulrahman/quranlake/internal/display"
	"github.com/smokyabdulrahman/quranlake/internal/prayer"
)

func runToday(cmd *cobra.Command, args []string) error {
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
	rows := filterRows(prayer.List(resp.Data.Timings, now, goTimeFormat(cfg)), cfg.PrayerFilter())

	var remaining string
	next, nextErr := prayer.NextPrayer(resp.Data.Timings, now)
	if nextErr == nil {
		remaining = prayer.FormatRemaining(next.Remaining(now))
	}

	out := cmd.OutOrStdout()
	if FlagJSON {
		return printTodayJSON(out, view, rows, now, next, nextErr == nil, remaining)
	}

	header := display.Header{
		Location:  locationLabel(view),
		Timezone:  resp.Data.Meta.Timezone,
		Gregorian: gregorianLabel(resp.Data.Date.Gregorian, now),
		Hijri:     resp.Data.Date.Hijri.Format(),
	}
	fmt.Fprint(out, header.Render())
	fmt.Fprint(out, display.PrayerTable(rows, remaining, cfg.Language == "ar"))

	if view.Warning != "" {
		fmt.Fprintln(out)
		fmt.Fprintln(out, display.Warning(view.Warning))
	}
	if view.IsOffline {
		fmt.Fprintln(out)
		fmt.Fprintln(out, display.Offline(lastUpdated(view)))
	}
	fmt.Fprintln(out)
	return nil
}

// nowIn returns the wall clock in the timezone the timings were computed for.
func nowIn(resp *api.Response) time.Time {
	return time.Now().In(prayer.Zone(resp.Data.Meta.Timezone, time.Local))
}

// filterRows keeps the configured prayers; an empty filter keeps all.
func filterRows(rows []prayer.PrayerTime, names []string) []prayer.PrayerTime {
	if len(names) == 0 {
		return rows
	}
	out := rows[:0:0]
	for _, r := range rows {
		for _, n := range names {
			if strings.EqualFold(r.Name, n) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

func locationLabel(view controller.View) string {
	if view.Location != nil {
		return view.Location.Label()
	}
	m := view.PrayerTimes.Data.Meta
	return fmt.Sprintf("%.4f, %.4f", m.Latitude, m.Longitude)
}

// gregorianLabel prefers the provider's date and falls back to now.
func gregorianLabel(g api.GregorianDate, now time.Time) string {
	if g.Day != "" && g.Month.En != "" && g.Year != "" {
		return g.Day + " " + g.Month.En + " " + g.Year
	}
	return now.Format("02 Jan 2006")
}

func lastUpdated(view controller.View) string {
	if view.CacheStatus.LastUpdated == nil {
		return ""
	}
	return view.CacheStatus.LastUpdated.Local().Format("02 Jan 15:04")
}

// todayJSON is the JSON output structure for the root command.
type todayJSON struct {
	Location todayJSONLocation   `json:"location"`
	Date     todayJSONDate       `json:"date"`
	Prayers  []prayer.PrayerTime `json:"prayers"`
	Current  string              `json:"current,omitempty"`
	Next     *todayJSONNext      `json:"next,omitempty"`
	Warning  string              `json:"warning,omitempty"`
	Offline  bool                `json:"offline"`
}

type todayJSONLocation struct {
	City      string  `json:"city,omitempty"`
	Country   string  `json:"country,omitempty"`
	Timezone  string  `json:"timezone"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type todayJSONDate struct {
	Gregorian string `json:"gregorian"`
	Hijri     string `json:"hijri"`
}

type todayJSONNext struct {
	Prayer    string `json:"prayer"`
	Time      string `json:"time"`
	Remaining string `json:"remaining"`
	Tomorrow  bool   `json:"tomorrow,omitempty"`
}

func printTodayJSON(w io.Writer, view controller.View, rows []prayer.PrayerTime, now time.Time, next prayer.Upcoming, hasNext bool, remaining string) error {
	resp := view.PrayerTimes
	out := todayJSON{
		Location: todayJSONLocation{
			Timezone:  resp.Data.Meta.Timezone,
			Latitude:  resp.Data.Meta.Latitude,
			Longitude: resp.Data.Meta.Longitude,
		},
		Date: todayJSONDate{
			Gregorian: gregorianLabel(resp.Data.Date.Gregorian, now),
			Hijri:     resp.Data.Date.Hijri.Format(),
		},
		Prayers: rows,
		Warning: view.Warning,
		Offline: view.IsOffline,
	}
	if view.Location != nil {
		out.Location.City = view.Location.City
		out.Location.Country = view.Location.Country
	}
	if current, ok := prayer.CurrentPrayer(resp.Data.Timings, now); ok {
		out.Current = current
	}
	if hasNext {
		out.Next = &todayJSONNext{
			Prayer:    next.Name,
			Time:      next.At.Format("15:04"),
			Remaining: remaining,
			Tomorrow:  next.Tomorrow,
		}
	}

	return writeJSON(w, out)
}
