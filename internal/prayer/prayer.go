// Package prayer derives current/next prayer, countdowns and adhan times
// from a day's timings. Every function takes "now" explicitly.
package prayer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/smokyabdulrahman/quranlake/internal/api"
)

// Prayer represents a single prayer with its name and time.
type Prayer struct {
	Name string
	Time time.Time
}

// AllPrayerNames lists every prayer/event the API can return, in chronological order.
var AllPrayerNames = []string{
	"Fajr", "Sunrise", "Dhuhr", "Asr", "Sunset", "Maghrib", "Isha",
	"Imsak", "Midnight", "Firstthird", "Lastthird",
}

// Order is the fixed sequence used for current/next derivation.
var Order = []string{"Fajr", "Sunrise", "Dhuhr", "Asr", "Maghrib", "Isha"}

// AdhanPrayers are the five prayers that have an adhan.
var AdhanPrayers = []string{"Fajr", "Dhuhr", "Asr", "Maghrib", "Isha"}

// ShortNames maps full prayer names to single-character abbreviations.
var ShortNames = map[string]string{
	"Fajr":       "F",
	"Sunrise":    "S",
	"Dhuhr":      "D",
	"Asr":        "A",
	"Sunset":     "St",
	"Maghrib":    "M",
	"Isha":       "I",
	"Imsak":      "Im",
	"Midnight":   "Mi",
	"Firstthird": "F3",
	"Lastthird":  "L3",
}

var arabicNames = map[string]string{
	"Fajr":    "الفجر",
	"Sunrise": "الشروق",
	"Dhuhr":   "الظهر",
	"Asr":     "العصر",
	"Maghrib": "المغرب",
	"Isha":    "العشاء",
}

// ArabicName returns the Arabic name of a prayer, or name itself if unknown.
func ArabicName(name string) string {
	if ar, ok := arabicNames[name]; ok {
		return ar
	}
	return name
}

// ParseTimings converts API timings into a slice of Prayer structs for the given date.
// It filters to only include the specified prayer names.
// The location is used to construct proper time.Time values in the correct timezone.
func ParseTimings(timings api.Timings, date time.Time, loc *time.Location, selected []string) ([]Prayer, error) {
	var prayers []Prayer
	for _, name := range selected {
		raw, ok := timings.Get(name)
		if !ok {
			return nil, fmt.Errorf("unknown prayer name: %s", name)
		}

		t, err := ParseClock(raw, date, loc)
		if err != nil {
			return nil, fmt.Errorf("failed to parse time for %s (%q): %w", name, raw, err)
		}

		prayers = append(prayers, Prayer{Name: name, Time: t})
	}

	return prayers, nil
}

// parseAvailable is ParseTimings for Order that skips empty or unparseable
// entries instead of failing, so a polar day without Isha still derives.
// An entry that is not after its predecessor belongs to the following day.
func parseAvailable(timings api.Timings, date time.Time) []Prayer {
	var prayers []Prayer
	for _, name := range Order {
		raw, _ := timings.Get(name)
		t, err := ParseClock(raw, date, date.Location())
		if err != nil {
			continue
		}
		if n := len(prayers); n > 0 {
			for !t.After(prayers[n-1].Time) {
				t = t.AddDate(0, 0, 1)
			}
		}
		prayers = append(prayers, Prayer{Name: name, Time: t})
	}
	return prayers
}

// TimeRemaining returns the duration until the given prayer time.
func TimeRemaining(prayer Prayer, now time.Time) time.Duration {
	return prayer.Time.Sub(now)
}

// FormatRemaining formats a duration as "Xh Ym" or "Ym" if less than an hour.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		return "0m"
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60

	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

// ParseClock parses "15:02", "15:02:30" or "15:02 (BST)" into a time.Time
// on the given date in the given location.
func ParseClock(raw string, date time.Time, loc *time.Location) (time.Time, error) {
	// Strip timezone suffix like " (BST)" that the API sometimes appends.
	s := strings.TrimSpace(raw)
	if idx := strings.Index(s, " "); idx != -1 {
		s = s[:idx]
	}

	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return time.Time{}, fmt.Errorf("invalid time format: %q", raw)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return time.Time{}, fmt.Errorf("invalid hour in %q", raw)
	}
	min, err := strconv.Atoi(parts[1])
	if err != nil || min < 0 || min > 59 {
		return time.Time{}, fmt.Errorf("invalid minute in %q", raw)
	}
	sec := 0
	if len(parts) == 3 {
		sec, err = strconv.Atoi(parts[2])
		if err != nil || sec < 0 || sec > 59 {
			return time.Time{}, fmt.Errorf("invalid second in %q", raw)
		}
	}

	if loc == nil {
		loc = date.Location()
	}
	return time.Date(date.Year(), date.Month(), date.Day(), hour, min, sec, 0, loc), nil
}

// Zone loads the IANA timezone the timings are expressed in, falling back
// to fallback when tz is empty or unknown.
func Zone(tz string, fallback *time.Location) *time.Location {
	if fallback == nil {
		fallback = time.Local
	}
	if tz == "" {
		return fallback
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fallback
	}
	return loc
}
