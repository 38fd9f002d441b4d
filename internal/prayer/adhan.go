package prayer

import (
	"time"

	"github.com/smokyabdulrahman/quranlake/internal/api"
)

const clockLayout = "15:04"

// heuristicOffset approximates how long before the prayer time the adhan
// is called, by the hour the prayer falls in.
func heuristicOffset(hour int) time.Duration {
	switch {
	case hour < 6: // Fajr
		return -10 * time.Minute
	case hour < 12: // Dhuhr
		return -7 * time.Minute
	case hour < 16: // Asr
		return -5 * time.Minute
	case hour < 19: // Maghrib
		return -4 * time.Minute
	default: // Isha
		return -6 * time.Minute
	}
}

var refDay = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// AdhanTime returns the adhan time as HH:MM. A parseable apiAdhanTime is
// used as is; otherwise the heuristic offset is applied to prayerTime.
// An unparseable prayerTime is returned unchanged.
func AdhanTime(prayerTime, apiAdhanTime string) string {
	if apiAdhanTime != "" {
		if t, err := ParseClock(apiAdhanTime, refDay, time.UTC); err == nil {
			return t.Format(clockLayout)
		}
	}

	t, err := ParseClock(prayerTime, refDay, time.UTC)
	if err != nil {
		return prayerTime
	}
	return t.Add(heuristicOffset(t.Hour())).Format(clockLayout)
}

// SalatTime returns the congregational prayer time as HH:MM, which is the
// prayer time itself.
func SalatTime(prayerTime string) string {
	t, err := ParseClock(prayerTime, refDay, time.UTC)
	if err != nil {
		return prayerTime
	}
	return t.Format(clockLayout)
}

// AdhanInstant returns the adhan for name on day's calendar date in day's location.
func AdhanInstant(timings api.Timings, name string, day time.Time) (time.Time, error) {
	raw, _ := timings.Get(name)
	return ParseClock(AdhanTime(raw, timings.AdhanFor(name)), day, day.Location())
}
