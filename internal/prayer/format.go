package prayer

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"
)

// Format constants for display modes.
const (
	FormatTimeRemaining      = "time-remaining"
	FormatNextPrayerTime     = "next-prayer-time"
	FormatNameAndTime        = "name-and-time"
	FormatNameAndRemaining   = "name-and-remaining"
	FormatShortNameAndTime   = "short-name-and-time"
	FormatShortNameAndRemain = "short-name-and-remaining"
	FormatArabicAndTime      = "arabic-and-time"
	FormatFull               = "full"
)

// Formats lists the named modes accepted by FormatOutput.
var Formats = []string{
	FormatTimeRemaining,
	FormatNextPrayerTime,
	FormatNameAndTime,
	FormatNameAndRemaining,
	FormatShortNameAndTime,
	FormatShortNameAndRemain,
	FormatArabicAndTime,
	FormatFull,
}

// FormatData is the data passed to custom Go templates.
type FormatData struct {
	Name      string // Full prayer name, e.g. "Asr"
	ShortName string // Abbreviated name, e.g. "A"
	Arabic    string // Arabic name, e.g. "العصر"
	Icon      string
	Time      string // Formatted prayer time, e.g. "15:02" or "3:02 PM"
	Remaining string // Time remaining, e.g. "2h 15m"
	Hours     int    // Whole hours remaining
	Minutes   int    // Remaining minutes after hours
	Tomorrow  bool   // The prayer is on the next calendar day
}

// FormatOutput renders the upcoming prayer according to mode.
// timeFormat should be "15:04" for 24h or "3:04 PM" for 12h.
//
// If mode contains "{{", it is treated as a custom Go template string over
// FormatData, e.g. "{{.Name}} in {{.Remaining}}" -> "Asr in 2h 15m".
func FormatOutput(u Upcoming, now time.Time, mode string, timeFormat string) string {
	d := u.Remaining(now)
	data := FormatData{
		Name:      u.Name,
		ShortName: ShortNames[u.Name],
		Arabic:    ArabicName(u.Name),
		Icon:      icons[u.Name],
		Time:      u.At.Format(timeFormat),
		Remaining: FormatRemaining(d),
		Tomorrow:  u.Tomorrow,
	}
	if d > 0 {
		data.Hours = int(d.Hours())
		data.Minutes = int(d.Minutes()) % 60
	}

	if strings.Contains(mode, "{{") {
		return formatCustom(mode, data)
	}

	switch mode {
	case FormatTimeRemaining:
		return data.Remaining
	case FormatNextPrayerTime:
		return data.Time
	case FormatNameAndRemaining:
		return fmt.Sprintf("%s %s", data.Name, data.Remaining)
	case FormatShortNameAndTime:
		return fmt.Sprintf("%s %s", data.ShortName, data.Time)
	case FormatShortNameAndRemain:
		return fmt.Sprintf("%s %s", data.ShortName, data.Remaining)
	case FormatArabicAndTime:
		return fmt.Sprintf("%s %s", data.Arabic, data.Time)
	case FormatFull:
		s := fmt.Sprintf("%s %s (%s)", data.Name, data.Time, data.Remaining)
		if data.Tomorrow {
			s += " tomorrow"
		}
		return s
	default:
		return fmt.Sprintf("%s %s", data.Name, data.Time)
	}
}

func formatCustom(tmpl string, data FormatData) string {
	t, err := template.New("custom").Parse(tmpl)
	if err != nil {
		return fmt.Sprintf("template-err: %v", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return fmt.Sprintf("template-err: %v", err)
	}

	return buf.String()
}
