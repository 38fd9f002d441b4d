package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/smokyabdulrahman/quranlake/internal/api"
	"github.com/smokyabdulrahman/quranlake/internal/display"
	"github.com/smokyabdulrahman/quranlake/internal/prayer"
)

// isolate points config, cache and environment at temp dirs.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("QURANLAKE_CACHE_DIR", filepath.Join(dir, "cache"))
	t.Setenv("QURANLAKE_LOG_LEVEL", "disabled")

	prev := display.Enabled()
	display.SetEnabled(false)
	t.Cleanup(func() { display.SetEnabled(prev) })
	return dir
}

// execute runs the root command in-process and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCmd("v1.2.3-test")
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func todayResponse() api.Response {
	return api.Response{
		Code:   200,
		Status: "OK",
		Data: api.Data{
			Timings: api.Timings{
				Fajr:     "05:17",
				Sunrise:  "06:48",
				Dhuhr:    "12:13",
				Asr:      "15:02",
				Sunset:   "17:39",
				Maghrib:  "17:39",
				Isha:     "19:10",
				Imsak:    "05:07",
				Midnight: "00:14",
			},
			Date: api.DateInfo{
				Hijri: api.HijriDate{
					Day:         "10",
					Month:       api.Month{Number: 9, En: "Ramaḍān"},
					Year:        "1447",
					Designation: api.HijriDesignation{Abbreviated: "AH"},
				},
			},
			Meta: api.Meta{
				Latitude:  21.4225,
				Longitude: 39.8262,
				Timezone:  "UTC",
			},
		},
	}
}

// provider serves the timings endpoint and answers connectivity probes.
func provider(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/timings/") {
			w.WriteHeader(http.StatusOK)
			return
		}
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(todayResponse()); err != nil {
			t.Errorf("encode: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

// online wires the CLI to a fake provider at a fixed location.
func online(t *testing.T) *atomic.Int32 {
	t.Helper()
	isolate(t)
	srv, hits := provider(t)
	t.Setenv("QURANLAKE_API_URL", srv.URL)
	t.Setenv("QURANLAKE_PROBE_URL", srv.URL)
	t.Setenv("QURANLAKE_LATITUDE", "21.4225")
	t.Setenv("QURANLAKE_LONGITUDE", "39.8262")
	t.Setenv("QURANLAKE_CITY", "Mecca")
	t.Setenv("QURANLAKE_COUNTRY", "Saudi Arabia")
	return hits
}

func TestVersionFlag(t *testing.T) {
	isolate(t)
	out, err := execute(t, "--version")
	if err != nil {
		t.Fatalf("--version failed: %v", err)
	}
	if got, want := strings.TrimSpace(out), "quranlake version v1.2.3-test"; got != want {
		t.Errorf("--version = %q, want %q", got, want)
	}
}

func TestMethodsSubcommand(t *testing.T) {
	isolate(t)
	out, err := execute(t, "methods")
	if err != nil {
		t.Fatalf("methods failed: %v", err)
	}
	for _, m := range []string{"ISNA", "Muslim World League", "Umm Al-Qura", "Jafari", "Ministry of Awqaf, Jordan"} {
		if !strings.Contains(out, m) {
			t.Errorf("methods output missing %q", m)
		}
	}
}

func TestHelpFlag(t *testing.T) {
	isolate(t)
	out, err := execute(t, "--help")
	if err != nil {
		t.Fatalf("--help failed: %v", err)
	}
	for _, sub := range []string{"next", "query", "serve", "adhan", "cache", "reciters", "surahs", "config", "methods"} {
		if !strings.Contains(out, sub) {
			t.Errorf("--help output missing subcommand %q", sub)
		}
	}
}

func TestConfigSetGetReset(t *testing.T) {
	dir := isolate(t)

	if _, err := execute(t, "config", "set", "time_format", "12h"); err != nil {
		t.Fatalf("config set: %v", err)
	}
	out, err := execute(t, "config", "get", "time_format")
	if err != nil {
		t.Fatalf("config get: %v", err)
	}
	if strings.TrimSpace(out) != "12h" {
		t.Errorf("config get time_format = %q, want 12h", out)
	}

	out, err = execute(t, "config", "path")
	if err != nil {
		t.Fatalf("config path: %v", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(out), filepath.Join(dir, "config")) {
		t.Errorf("config path = %q, want under %s", out, dir)
	}

	out, err = execute(t, "config")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if !strings.Contains(out, "time_format") || !strings.Contains(out, "(not set)") {
		t.Errorf("config show output unexpected:\n%s", out)
	}

	if _, err := execute(t, "config", "reset"); err != nil {
		t.Fatalf("config reset: %v", err)
	}
	out, _ = execute(t, "config", "get", "time_format")
	if strings.TrimSpace(out) != "" {
		t.Errorf("time_format after reset = %q, want empty", out)
	}
}

func TestConfigSet_Invalid(t *testing.T) {
	isolate(t)
	if _, err := execute(t, "config", "set", "time_format", "25h"); err == nil {
		t.Error("expected error for invalid time_format")
	}
	if _, err := execute(t, "config", "set", "nope", "x"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestToday_Table(t *testing.T) {
	hits := online(t)

	out, err := execute(t)
	if err != nil {
		t.Fatalf("today failed: %v", err)
	}
	for _, want := range []string{"Prayer Times", "Mecca, Saudi Arabia", "UTC", "10 Ramaḍān 1447 AH", "Fajr", "Isha", "Adhan", "Salat"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if hits.Load() == 0 {
		t.Error("provider was never called")
	}
}

func TestToday_JSON(t *testing.T) {
	online(t)

	out, err := execute(t, "--json")
	if err != nil {
		t.Fatalf("today --json failed: %v", err)
	}
	var got todayJSON
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if got.Location.City != "Mecca" || got.Location.Timezone != "UTC" {
		t.Errorf("location = %+v", got.Location)
	}
	if len(got.Prayers) != len(prayer.Order) {
		t.Errorf("got %d prayers, want %d", len(got.Prayers), len(prayer.Order))
	}
	if got.Next == nil {
		t.Error("next prayer missing")
	}
	if got.Offline {
		t.Error("offline = true, want false")
	}
}

func TestToday_PrayerFilter(t *testing.T) {
	online(t)
	t.Setenv("QURANLAKE_PRAYERS", "Fajr,Maghrib")

	out, err := execute(t, "--json")
	if err != nil {
		t.Fatalf("today --json failed: %v", err)
	}
	var got todayJSON
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(got.Prayers) != 2 || got.Prayers[0].Name != "Fajr" || got.Prayers[1].Name != "Maghrib" {
		t.Errorf("prayers = %+v, want Fajr and Maghrib", got.Prayers)
	}
}

func TestToday_ServesCacheSecondTime(t *testing.T) {
	hits := online(t)

	if _, err := execute(t); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first := hits.Load()
	if _, err := execute(t); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if hits.Load() != first {
		t.Errorf("provider hits = %d after second run, want %d (cached)", hits.Load(), first)
	}

	out, err := execute(t, "cache", "status")
	if err != nil {
		t.Fatalf("cache status: %v", err)
	}
	if !strings.Contains(out, "Mecca, Saudi Arabia") {
		t.Errorf("cache status missing location:\n%s", out)
	}

	if _, err := execute(t, "cache", "clear"); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	out, err = execute(t, "cache", "status")
	if err != nil {
		t.Fatalf("cache status: %v", err)
	}
	if !strings.Contains(out, "No cached prayer times.") {
		t.Errorf("cache status after clear:\n%s", out)
	}
}

func TestToday_OfflineWithoutCache(t *testing.T) {
	online(t)
	dead := httptest.NewServer(http.NotFoundHandler())
	dead.Close()
	t.Setenv("QURANLAKE_PROBE_URL", dead.URL)

	_, err := execute(t)
	if err == nil {
		t.Fatal("expected an error when offline without cache")
	}
	if !strings.Contains(strings.ToLower(err.Error()), "internet") {
		t.Errorf("error = %v, want offline message", err)
	}
}

func TestToday_StaticWithoutCoordinates(t *testing.T) {
	isolate(t)
	t.Setenv("QURANLAKE_LOCATE", "static")

	_, err := execute(t)
	if err == nil || !strings.Contains(err.Error(), "latitude") {
		t.Errorf("error = %v, want missing coordinates", err)
	}
}

func TestNext_Formats(t *testing.T) {
	online(t)

	out, err := execute(t, "next", "--format", "{{.Name}}")
	if err != nil {
		t.Fatalf("next failed: %v", err)
	}
	valid := false
	for _, name := range prayer.Order {
		if out == name {
			valid = true
		}
	}
	if !valid {
		t.Errorf("next --format {{.Name}} = %q, want a prayer name", out)
	}
}

func TestQuery(t *testing.T) {
	online(t)

	tests := []struct {
		args    []string
		want    string
		wantErr bool
	}{
		{args: []string{"query", "asr"}, want: "Asr 15:02"},
		{args: []string{"query", "Imsak"}, want: "Imsak 05:07\n"},
		{args: []string{"query", "brunch"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, "_"), func(t *testing.T) {
			out, err := execute(t, tt.args...)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("query failed: %v", err)
			}
			if !strings.HasPrefix(out, tt.want) {
				t.Errorf("output = %q, want prefix %q", out, tt.want)
			}
		})
	}
}

func TestQuery_JSON(t *testing.T) {
	online(t)

	out, err := execute(t, "--json", "query", "Fajr")
	if err != nil {
		t.Fatalf("query --json failed: %v", err)
	}
	var got queryJSON
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if got.Prayer != "fajr" || got.Time != "05:17" || got.Adhan == "" {
		t.Errorf("got %+v", got)
	}
}

func TestReciters_InvalidID(t *testing.T) {
	isolate(t)
	if _, err := execute(t, "reciters", "abc"); err == nil {
		t.Error("expected error for non-numeric id")
	}
}

func TestFilterRows(t *testing.T) {
	rows := []prayer.PrayerTime{{Name: "Fajr"}, {Name: "Dhuhr"}, {Name: "Asr"}}
	if got := filterRows(rows, nil); len(got) != 3 {
		t.Errorf("nil filter kept %d rows, want 3", len(got))
	}
	got := filterRows(rows, []string{"asr"})
	if len(got) != 1 || got[0].Name != "Asr" {
		t.Errorf("filter asr = %+v", got)
	}
	if len(rows) != 3 || rows[0].Name != "Fajr" {
		t.Error("filterRows modified its input")
	}
}
