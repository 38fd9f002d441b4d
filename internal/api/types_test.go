package api

import (
	"encoding/json"
	"testing"
)

func TestHijriDate_Format(t *testing.T) {
	tests := []struct {
		name string
		h    HijriDate
		want string
	}{
		{
			name: "full date",
			h: HijriDate{
				Day:         "10",
				Month:       Month{Number: 8, En: "Sha'ban"},
				Year:        "1447",
				Designation: HijriDesignation{Abbreviated: "AH"},
			},
			want: "10 Sha'ban 1447 AH",
		},
		{
			name: "missing abbreviated defaults to AH",
			h: HijriDate{
				Day:   "1",
				Month: Month{Number: 1, En: "Muharram"},
				Year:  "1448",
			},
			want: "1 Muharram 1448 AH",
		},
		{
			name: "empty day returns empty",
			h: HijriDate{
				Month: Month{En: "Ramadan"},
				Year:  "1447",
			},
			want: "",
		},
		{
			name: "empty month returns empty",
			h: HijriDate{
				Day:  "15",
				Year: "1447",
			},
			want: "",
		},
		{
			name: "empty year returns empty",
			h: HijriDate{
				Day:   "15",
				Month: Month{En: "Ramadan"},
			},
			want: "",
		},
		{
			name: "all empty returns empty",
			h:    HijriDate{},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.h.Format()
			if got != tt.want {
				t.Errorf("HijriDate.Format() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTimings_UnmarshalAlternateAdhanKeys(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"canonical", `{"Fajr":"05:00","FajrAdhan":"04:55"}`, "04:55"},
		{"camel", `{"Fajr":"05:00","fajrAdhan":"04:56"}`, "04:56"},
		{"snake title", `{"Fajr":"05:00","Fajr_adhan":"04:57"}`, "04:57"},
		{"snake lower", `{"Fajr":"05:00","fajr_adhan":"04:58"}`, "04:58"},
		{"canonical wins", `{"Fajr":"05:00","FajrAdhan":"04:50","fajr_adhan":"04:58"}`, "04:50"},
		{"absent", `{"Fajr":"05:00"}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tm Timings
			if err := json.Unmarshal([]byte(tt.body), &tm); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if tm.Fajr != "05:00" {
				t.Errorf("Fajr = %q, want %q", tm.Fajr, "05:00")
			}
			if got := tm.AdhanFor("Fajr"); got != tt.want {
				t.Errorf("AdhanFor(Fajr) = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTimings_Get(t *testing.T) {
	tm := Timings{Fajr: "05:00", Isha: "19:30", Lastthird: "02:10"}
	if v, ok := tm.Get("Isha"); !ok || v != "19:30" {
		t.Errorf("Get(Isha) = %q, %v", v, ok)
	}
	if v, ok := tm.Get("Lastthird"); !ok || v != "02:10" {
		t.Errorf("Get(Lastthird) = %q, %v", v, ok)
	}
	if _, ok := tm.Get("Witr"); ok {
		t.Error("Get(Witr) should report unknown name")
	}
	if got := tm.AdhanFor("Sunrise"); got != "" {
		t.Errorf("AdhanFor(Sunrise) = %q, want empty", got)
	}
}

func TestTimings_IsZero(t *testing.T) {
	if !(Timings{}).IsZero() {
		t.Error("empty Timings should be zero")
	}
	if !(Timings{Midnight: "00:10"}).IsZero() {
		t.Error("Timings with only Midnight should be zero")
	}
	if (Timings{Asr: "15:00"}).IsZero() {
		t.Error("Timings with Asr should not be zero")
	}
}

func TestMethodInfo_DecodesMixedParams(t *testing.T) {
	body := `{"id":4,"name":"Umm Al-Qura","params":{"Fajr":18.5,"Isha":"90 min"},"location":{"latitude":21.4,"longitude":39.8}}`
	var m MethodInfo
	if err := json.Unmarshal([]byte(body), &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if m.Params["Isha"] != "90 min" {
		t.Errorf("Params[Isha] = %v, want %q", m.Params["Isha"], "90 min")
	}
	if m.Location == nil || m.Location.Latitude != 21.4 {
		t.Errorf("Location = %+v", m.Location)
	}
}
