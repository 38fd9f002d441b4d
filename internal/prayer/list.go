package prayer

import (
	"time"

	"github.com/smokyabdulrahman/quranlake/internal/api"
)

// Missing is shown for a prayer the provider did not return.
const Missing = "--:--"

var icons = map[string]string{
	"Fajr":    "🌅",
	"Sunrise": "☀️",
	"Dhuhr":   "🌞",
	"Asr":     "🌤️",
	"Maghrib": "🌆",
	"Isha":    "🌙",
}

// PrayerTime is one row of the prayer list view.
type PrayerTime struct {
	Name       string `json:"name"`
	ArabicName string `json:"arabicName"`
	Time       string `json:"time"`
	AdhanTime  string `json:"adhanTime"`
	SalatTime  string `json:"salatTime"`
	IsNext     bool   `json:"isNext"`
	IsCurrent  bool   `json:"isCurrent"`
	Icon       string `json:"icon"`
}

// List builds the view rows for Order. timeFormat is a Go layout such as
// "15:04" or "3:04 PM".
func List(timings api.Timings, now time.Time, timeFormat string) []PrayerTime {
	if timeFormat == "" {
		timeFormat = "3:04 PM"
	}
	current, _ := CurrentPrayer(timings, now)
	next, err := NextPrayer(timings, now)
	nextName := ""
	if err == nil {
		nextName = next.Name
	}

	rows := make([]PrayerTime, 0, len(Order))
	for _, name := range Order {
		row := PrayerTime{
			Name:       name,
			ArabicName: ArabicName(name),
			Time:       Missing,
			AdhanTime:  Missing,
			SalatTime:  Missing,
			Icon:       icons[name],
		}

		raw, _ := timings.Get(name)
		t, err := ParseClock(raw, now, now.Location())
		if err != nil {
			rows = append(rows, row)
			continue
		}

		row.Time = t.Format(timeFormat)
		row.AdhanTime = reformat(AdhanTime(raw, timings.AdhanFor(name)), now, timeFormat)
		row.SalatTime = reformat(SalatTime(raw), now, timeFormat)
		row.IsNext = name == nextName
		row.IsCurrent = name == current
		rows = append(rows, row)
	}
	return rows
}

func reformat(hhmm string, day time.Time, layout string) string {
	t, err := ParseClock(hhmm, day, day.Location())
	if err != nil {
		return hhmm
	}
	return t.Format(layout)
}
