package display

import (
	"fmt"
	"strings"

	"github.com/smokyabdulrahman/quranlake/internal/prayer"
)

// Header is printed above the prayer table.
type Header struct {
	Location  string
	Timezone  string
	Gregorian string
	Hijri     string
}

// Render returns the title and the non-empty header lines.
func (h Header) Render() string {
	var sb strings.Builder
	sb.WriteString("\n  " + Bold("Prayer Times") + "\n\n")
	for _, line := range []string{h.Location, h.Timezone, h.Gregorian, h.Hijri} {
		if line != "" {
			sb.WriteString("  " + line + "\n")
		}
	}
	sb.WriteString("\n")
	return sb.String()
}

// PrayerTable renders the prayer rows. The next prayer is accented and
// carries the countdown; the current prayer is dimmed.
func PrayerTable(rows []prayer.PrayerTime, remaining string, arabic bool) string {
	headers := []string{"Prayer", "Adhan", "Salat"}
	if arabic {
		headers = []string{"Prayer", "", "Adhan", "Salat"}
	}
	tbl := NewTable(headers)

	for _, r := range rows {
		cells := []string{r.Name, r.AdhanTime, r.SalatTime}
		if arabic {
			cells = []string{r.Name, r.ArabicName, r.AdhanTime, r.SalatTime}
		}
		switch {
		case r.IsNext:
			if remaining != "" {
				cells[len(cells)-1] += "  <- next in " + remaining
			}
			tbl.AddStyledRow(cells, Accent)
		case r.IsCurrent:
			tbl.AddStyledRow(cells, Dim)
		default:
			tbl.AddRow(cells)
		}
	}
	return tbl.Render()
}

// Warning renders a soft notice.
func Warning(msg string) string {
	return "  " + Yellow("! "+msg)
}

// Error renders a hard failure notice.
func Error(msg string) string {
	return "  " + Red("x "+msg)
}

// Offline renders the offline banner with the age of the cached data.
func Offline(lastUpdated string) string {
	if lastUpdated == "" {
		return "  " + Gray("offline")
	}
	return "  " + Gray(fmt.Sprintf("offline, showing data from %s", lastUpdated))
}
