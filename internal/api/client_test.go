package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/quranlake/internal/clock"
	"github.com/smokyabdulrahman/quranlake/internal/retry"
)

// sampleResponse returns a valid Al Adhan API response for testing.
func sampleResponse() Response {
	return Response{
		Code:   200,
		Status: "OK",
		Data: Data{
			Timings: Timings{
				Fajr:       "05:17",
				Sunrise:    "06:48",
				Dhuhr:      "12:13",
				Asr:        "15:02",
				Sunset:     "17:39",
				Maghrib:    "17:39",
				Isha:       "19:10",
				Imsak:      "05:07",
				Midnight:   "00:14",
				Firstthird: "22:02",
				Lastthird:  "02:25",
			},
			Date: DateInfo{
				Readable:  "28 Feb 2026",
				Timestamp: "1772262000",
			},
			Meta: Meta{
				Latitude:  21.4225,
				Longitude: 39.8262,
				Timezone:  "Asia/Riyadh",
				Method:    MethodInfo{ID: 4, Name: "Umm Al-Qura University, Makkah"},
				School:    "HANAFI",
			},
		},
	}
}

// testClient returns a client pointed at url with a near-zero retry step.
func testClient(url string) *Client {
	c := NewClient(zerolog.Nop())
	c.BaseURL = url
	c.Retry = retry.Policy{Attempts: 3, Step: time.Millisecond}
	c.Clock = clock.NewFake(time.Date(2026, 2, 28, 9, 0, 0, 0, time.UTC))
	return c
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func TestNewClient(t *testing.T) {
	c := NewClient(zerolog.Nop())
	if c == nil {
		t.Fatal("NewClient returned nil")
	}
	if c.BaseURL != defaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", c.BaseURL, defaultBaseURL)
	}
	if c.Method != 4 || c.School != 1 {
		t.Errorf("Method/School = %d/%d, want 4/1", c.Method, c.School)
	}
	if c.Retry.Attempts != 3 {
		t.Errorf("Retry.Attempts = %d, want 3", c.Retry.Attempts)
	}
}

// ---------------------------------------------------------------------------
// Enhanced endpoint
// ---------------------------------------------------------------------------

func TestFetchPrayerTimes_EnhancedSuccess(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if !strings.Contains(r.URL.Path, "/timings/28-02-2026") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		q := r.URL.Query()
		want := map[string]string{
			"latitude":                 "21.4225",
			"longitude":                "39.8262",
			"method":                   "4",
			"school":                   "1",
			"adjustment":               "1",
			"latitudeAdjustmentMethod": "3",
			"midnightMode":             "1",
		}
		for k, v := range want {
			if q.Get(k) != v {
				t.Errorf("%s = %q, want %q", k, q.Get(k), v)
			}
		}
		writeJSON(w, sampleResponse())
	}))
	defer server.Close()

	c := testClient(server.URL)
	got, err := c.FetchPrayerTimes(context.Background(), 21.4225, 39.8262, time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Data.Timings.Fajr != "05:17" {
		t.Errorf("Fajr = %q, want %q", got.Data.Timings.Fajr, "05:17")
	}
	if got.Data.Meta.Timezone != "Asia/Riyadh" {
		t.Errorf("Timezone = %q, want %q", got.Data.Meta.Timezone, "Asia/Riyadh")
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Errorf("requests = %d, want 1", n)
	}
}

func TestFetchPrayerTimes_CanonicalPrayersParse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, sampleResponse())
	}))
	defer server.Close()

	coords := [][2]float64{{0, 0}, {21.4225, 39.8262}, {-33.86, 151.2}, {90, 180}, {-90, -180}}
	for _, ll := range coords {
		got, err := testClient(server.URL).FetchPrayerTimes(context.Background(), ll[0], ll[1], time.Time{})
		if err != nil {
			t.Fatalf("FetchPrayerTimes(%v) error: %v", ll, err)
		}
		for _, name := range []string{"Fajr", "Sunrise", "Dhuhr", "Asr", "Maghrib", "Isha"} {
			raw, _ := got.Data.Timings.Get(name)
			if _, err := time.Parse("15:04", raw); err != nil {
				t.Errorf("%v: %s = %q is not HH:MM", ll, name, raw)
			}
		}
	}
}

// ---------------------------------------------------------------------------
// Fallback and retry
// ---------------------------------------------------------------------------

func TestFetchPrayerTimes_FallsBackToBasic(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Query().Get("midnightMode") != "" {
			http.Error(w, "enhanced unavailable", http.StatusBadGateway)
			return
		}
		if r.URL.Query().Get("latitudeAdjustmentMethod") != "" {
			t.Error("basic endpoint should not send latitudeAdjustmentMethod")
		}
		writeJSON(w, sampleResponse())
	}))
	defer server.Close()

	got, err := testClient(server.URL).FetchPrayerTimes(context.Background(), 51.5, -0.1, time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Data.Timings.Asr != "15:02" {
		t.Errorf("Asr = %q, want %q", got.Data.Timings.Asr, "15:02")
	}
	if n := atomic.LoadInt32(&hits); n != 2 {
		t.Errorf("requests = %d, want 2 (enhanced + basic)", n)
	}
}

func TestFetchPrayerTimes_FallsBackOnBadShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("midnightMode") != "" {
			writeJSON(w, map[string]any{"code": 200, "status": "OK", "data": map[string]any{}})
			return
		}
		writeJSON(w, sampleResponse())
	}))
	defer server.Close()

	_, err := testClient(server.URL).FetchPrayerTimes(context.Background(), 51.5, -0.1, time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFetchPrayerTimes_RetriesWholePair(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&hits, 1)
		// First attempt: enhanced and basic both fail. Second attempt: enhanced succeeds.
		if n <= 2 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, sampleResponse())
	}))
	defer server.Close()

	_, err := testClient(server.URL).FetchPrayerTimes(context.Background(), 51.5, -0.1, time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := atomic.LoadInt32(&hits); n != 3 {
		t.Errorf("requests = %d, want 3", n)
	}
}

func TestFetchPrayerTimes_ExhaustsAttempts(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := testClient(server.URL).FetchPrayerTimes(context.Background(), 51.5, -0.1, time.Time{})
	if err == nil {
		t.Fatal("expected error for HTTP 503, got nil")
	}
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("err = %v, want ErrNetwork", err)
	}
	if !strings.Contains(err.Error(), "503") {
		t.Errorf("error should mention 503, got: %v", err)
	}
	// 3 attempts x (enhanced + basic).
	if n := atomic.LoadInt32(&hits); n != 6 {
		t.Errorf("requests = %d, want 6", n)
	}
}

// ---------------------------------------------------------------------------
// Validation and errors
// ---------------------------------------------------------------------------

func TestFetchPrayerTimes_InvalidCoordinatesNoRequest(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		writeJSON(w, sampleResponse())
	}))
	defer server.Close()

	tests := []struct {
		name     string
		lat, lon float64
	}{
		{"latitude too large", 200, 0},
		{"longitude too small", 0, -200},
		{"latitude just over", 90.0001, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := testClient(server.URL).FetchPrayerTimes(context.Background(), tt.lat, tt.lon, time.Time{})
			if !errors.Is(err, ErrInvalidCoordinates) {
				t.Errorf("err = %v, want ErrInvalidCoordinates", err)
			}
		})
	}
	if n := atomic.LoadInt32(&hits); n != 0 {
		t.Errorf("requests = %d, want 0", n)
	}
}

func TestFetchPrayerTimes_MissingTimings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"code": 200, "status": "OK", "data": map[string]any{"meta": map[string]any{}}})
	}))
	defer server.Close()

	_, err := testClient(server.URL).FetchPrayerTimes(context.Background(), 51.5, -0.1, time.Time{})
	if !errors.Is(err, ErrInvalidResponseShape) {
		t.Errorf("err = %v, want ErrInvalidResponseShape", err)
	}
}

func TestFetchPrayerTimes_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	_, err := testClient(server.URL).FetchPrayerTimes(context.Background(), 51.5, -0.1, time.Time{})
	if err == nil {
		t.Fatal("expected error for invalid JSON, got nil")
	}
	if !strings.Contains(err.Error(), "decode") {
		t.Errorf("error should mention decode, got: %v", err)
	}
}

func TestFetchPrayerTimes_APIErrorCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, Response{Code: 400, Status: "Bad Request"})
	}))
	defer server.Close()

	_, err := testClient(server.URL).FetchPrayerTimes(context.Background(), 51.5, -0.1, time.Time{})
	if err == nil {
		t.Fatal("expected error for API code 400, got nil")
	}
	if !strings.Contains(err.Error(), "400") {
		t.Errorf("error should mention 400, got: %v", err)
	}
}

func TestFetchPrayerTimes_ConnectionRefused(t *testing.T) {
	c := testClient("http://127.0.0.1:1") // nothing listening

	_, err := c.FetchPrayerTimes(context.Background(), 51.5, -0.1, time.Time{})
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("err = %v, want ErrNetwork", err)
	}
}

func TestFetchPrayerTimes_ExplicitDate(t *testing.T) {
	var capturedPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		writeJSON(w, sampleResponse())
	}))
	defer server.Close()

	date := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	if _, err := testClient(server.URL).FetchPrayerTimes(context.Background(), 0, 0, date); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(capturedPath, "/timings/05-03-2026") {
		t.Errorf("date format wrong in path: %s (expected DD-MM-YYYY)", capturedPath)
	}
}

func TestFetchPrayerTimes_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, sampleResponse())
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(server.URL).FetchPrayerTimes(ctx, 51.5, -0.1, time.Time{})
	if err == nil {
		t.Fatal("expected error for cancelled context, got nil")
	}
}
