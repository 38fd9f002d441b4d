package prayer

import (
	"errors"
	"slices"
	"time"

	"github.com/smokyabdulrahman/quranlake/internal/api"
)

// ErrNoTimings means none of the requested prayers could be parsed.
var ErrNoTimings = errors.New("no parseable prayer times")

// Upcoming is a fully qualified next prayer.
type Upcoming struct {
	Name     string    `json:"name"`
	At       time.Time `json:"at"`
	Tomorrow bool      `json:"tomorrow"`
}

// Remaining is the time from now until the prayer.
func (u Upcoming) Remaining(now time.Time) time.Duration {
	return u.At.Sub(now)
}

// Prayer converts u for FormatOutput.
func (u Upcoming) Prayer() Prayer {
	return Prayer{Name: u.Name, Time: u.At}
}

// slot is one prayer instant in the three-day window around now. cycle is
// -1, 0 or 1 for the schedule anchored on yesterday, today or tomorrow.
type slot struct {
	Prayer
	cycle int
}

// schedule lays yesterday's, today's and tomorrow's timings end to end.
// Each day's entries are chronological, so an Isha past midnight sits after
// its own Maghrib rather than before that day's Fajr.
func schedule(timings api.Timings, now time.Time) []slot {
	var slots []slot
	for cycle := -1; cycle <= 1; cycle++ {
		for _, p := range parseAvailable(timings, now.AddDate(0, 0, cycle)) {
			slots = append(slots, slot{Prayer: p, cycle: cycle})
		}
	}
	return slots
}

// CurrentPrayer returns the prayer whose window [t_i, t_i+1) contains now.
// Isha's window runs to the next day's Fajr, so before today's Fajr the
// current prayer is the previous day's Isha. ok is false only when no
// timings parse.
func CurrentPrayer(timings api.Timings, now time.Time) (name string, ok bool) {
	slots := schedule(timings, now)
	if len(slots) == 0 {
		return "", false
	}

	current := slots[len(slots)-1].Name
	for _, s := range slots {
		if now.Before(s.Time) {
			break
		}
		current = s.Name
	}
	return current, true
}

// NextPrayer returns the first prayer strictly after now. After the last
// prayer of the day it returns tomorrow's first prayer with Tomorrow set.
func NextPrayer(timings api.Timings, now time.Time) (Upcoming, error) {
	return nextAmong(timings, now, Order)
}

// NextAdhan is NextPrayer restricted to AdhanPrayers, so it never yields
// Sunrise.
func NextAdhan(timings api.Timings, now time.Time) (Upcoming, error) {
	return nextAmong(timings, now, AdhanPrayers)
}

func nextAmong(timings api.Timings, now time.Time, names []string) (Upcoming, error) {
	for _, s := range schedule(timings, now) {
		if !s.Time.After(now) || !slices.Contains(names, s.Name) {
			continue
		}
		return Upcoming{Name: s.Name, At: s.Time, Tomorrow: s.cycle > 0}, nil
	}
	return Upcoming{}, ErrNoTimings
}

// NextPrayerName returns only the name of NextPrayer, "Fajr" when nothing parses.
func NextPrayerName(timings api.Timings, now time.Time) string {
	up, err := NextPrayer(timings, now)
	if err != nil {
		return "Fajr"
	}
	return up.Name
}

// TimeUntilNextPrayer formats the countdown to NextPrayer as "Hh Mm" or "Mm".
func TimeUntilNextPrayer(timings api.Timings, now time.Time) string {
	up, err := NextPrayer(timings, now)
	if err != nil {
		return FormatRemaining(0)
	}
	return FormatRemaining(up.Remaining(now))
}
