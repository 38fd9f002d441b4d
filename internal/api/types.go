package api

import (
	"encoding/json"
	"strings"
)

// Response represents the top-level Al Adhan API response.
type Response struct {
	Code   int    `json:"code"`
	Status string `json:"status"`
	Data   Data   `json:"data"`
}

// Data holds the prayer timings, date info, and metadata.
type Data struct {
	Timings Timings  `json:"timings"`
	Date    DateInfo `json:"date"`
	Meta    Meta     `json:"meta"`
}

// Timings contains all prayer and event times as HH:MM strings.
// The API may include a timezone suffix like " (BST)" which is stripped during parsing.
// The <Prayer>Adhan fields are only present when the provider publishes adhan times.
type Timings struct {
	Fajr       string `json:"Fajr"`
	Sunrise    string `json:"Sunrise"`
	Dhuhr      string `json:"Dhuhr"`
	Asr        string `json:"Asr"`
	Sunset     string `json:"Sunset"`
	Maghrib    string `json:"Maghrib"`
	Isha       string `json:"Isha"`
	Imsak      string `json:"Imsak"`
	Midnight   string `json:"Midnight"`
	Firstthird string `json:"Firstthird"`
	Lastthird  string `json:"Lastthird"`

	FajrAdhan    string `json:"FajrAdhan,omitempty"`
	DhuhrAdhan   string `json:"DhuhrAdhan,omitempty"`
	AsrAdhan     string `json:"AsrAdhan,omitempty"`
	MaghribAdhan string `json:"MaghribAdhan,omitempty"`
	IshaAdhan    string `json:"IshaAdhan,omitempty"`
}

// UnmarshalJSON accepts the alternate adhan spellings some providers use
// ("fajrAdhan", "Fajr_adhan", "fajr_adhan") in addition to "FajrAdhan".
func (t *Timings) UnmarshalJSON(b []byte) error {
	type plain Timings
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}

	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	for _, slot := range []struct {
		name string
		dst  *string
	}{
		{"Fajr", &p.FajrAdhan},
		{"Dhuhr", &p.DhuhrAdhan},
		{"Asr", &p.AsrAdhan},
		{"Maghrib", &p.MaghribAdhan},
		{"Isha", &p.IshaAdhan},
	} {
		if *slot.dst != "" {
			continue
		}
		lower := strings.ToLower(slot.name)
		for _, key := range []string{lower + "Adhan", slot.name + "_adhan", lower + "_adhan"} {
			if s, ok := raw[key].(string); ok && s != "" {
				*slot.dst = s
				break
			}
		}
	}

	*t = Timings(p)
	return nil
}

// Get returns the raw time string for a prayer or event name, and whether the name is known.
func (t Timings) Get(name string) (string, bool) {
	switch name {
	case "Fajr":
		return t.Fajr, true
	case "Sunrise":
		return t.Sunrise, true
	case "Dhuhr":
		return t.Dhuhr, true
	case "Asr":
		return t.Asr, true
	case "Sunset":
		return t.Sunset, true
	case "Maghrib":
		return t.Maghrib, true
	case "Isha":
		return t.Isha, true
	case "Imsak":
		return t.Imsak, true
	case "Midnight":
		return t.Midnight, true
	case "Firstthird":
		return t.Firstthird, true
	case "Lastthird":
		return t.Lastthird, true
	}
	return "", false
}

// AdhanFor returns the provider-supplied adhan time for a prayer, or "".
func (t Timings) AdhanFor(name string) string {
	switch name {
	case "Fajr":
		return t.FajrAdhan
	case "Dhuhr":
		return t.DhuhrAdhan
	case "Asr":
		return t.AsrAdhan
	case "Maghrib":
		return t.MaghribAdhan
	case "Isha":
		return t.IshaAdhan
	}
	return ""
}

// IsZero reports whether no prayer time is populated at all.
func (t Timings) IsZero() bool {
	return t.Fajr == "" && t.Sunrise == "" && t.Dhuhr == "" &&
		t.Asr == "" && t.Maghrib == "" && t.Isha == ""
}

// DateInfo contains date representations.
type DateInfo struct {
	Readable  string        `json:"readable"`
	Timestamp string        `json:"timestamp"`
	Hijri     HijriDate     `json:"hijri"`
	Gregorian GregorianDate `json:"gregorian"`
}

// HijriDate represents the Hijri (Islamic) date from the API response.
type HijriDate struct {
	Date        string           `json:"date"` // e.g. "10-08-1447"
	Pattern     string           `json:"format,omitempty"`
	Day         string           `json:"day"`
	Weekday     Weekday          `json:"weekday"`
	Month       Month            `json:"month"`
	Year        string           `json:"year"`
	Designation HijriDesignation `json:"designation"`
}

// HijriDesignation contains the calendar designation labels.
type HijriDesignation struct {
	Abbreviated string `json:"abbreviated"` // "AH"
	Expanded    string `json:"expanded"`    // "Anno Hegirae"
}

// Format returns the Hijri date as "DD MonthName YYYY AH".
func (h HijriDate) Format() string {
	if h.Day == "" || h.Month.En == "" || h.Year == "" {
		return ""
	}
	abbr := h.Designation.Abbreviated
	if abbr == "" {
		abbr = "AH"
	}
	return h.Day + " " + h.Month.En + " " + h.Year + " " + abbr
}

// GregorianDate represents the Gregorian date from the API response.
type GregorianDate struct {
	Date    string  `json:"date"` // e.g. "28-02-2026"
	Pattern string  `json:"format,omitempty"`
	Day     string  `json:"day"`
	Weekday Weekday `json:"weekday"`
	Month   Month   `json:"month"`
	Year    string  `json:"year"`
}

// Weekday carries the weekday name in English and Arabic.
type Weekday struct {
	En string `json:"en"`
	Ar string `json:"ar,omitempty"`
}

// Month carries a calendar month's number and names.
type Month struct {
	Number int    `json:"number"`
	En     string `json:"en"`
	Ar     string `json:"ar,omitempty"`
}

// Meta contains request metadata returned by the API.
type Meta struct {
	Latitude                 float64        `json:"latitude"`
	Longitude                float64        `json:"longitude"`
	Timezone                 string         `json:"timezone"`
	Method                   MethodInfo     `json:"method"`
	LatitudeAdjustmentMethod string         `json:"latitudeAdjustmentMethod,omitempty"`
	MidnightMode             string         `json:"midnightMode,omitempty"`
	School                   string         `json:"school"`
	Offset                   map[string]int `json:"offset,omitempty"`
}

// MethodInfo identifies the calculation method used.
type MethodInfo struct {
	ID       int            `json:"id"`
	Name     string         `json:"name"`
	Params   map[string]any `json:"params,omitempty"`
	Location *Coordinates   `json:"location,omitempty"`
}

// Coordinates is a bare latitude/longitude pair.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
