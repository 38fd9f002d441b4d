package clock

import (
	"testing"
	"time"
)

func TestDateKey(t *testing.T) {
	ts := time.Date(2026, 2, 28, 23, 59, 0, 0, time.UTC)
	if got := DateKey(ts); got != "2026-02-28" {
		t.Errorf("DateKey() = %q, want %q", got, "2026-02-28")
	}
}

func TestDateKey_UsesLocation(t *testing.T) {
	riyadh := time.FixedZone("AST", 3*60*60)
	// 22:30 UTC is already the next day in Riyadh.
	ts := time.Date(2026, 2, 28, 22, 30, 0, 0, time.UTC).In(riyadh)
	if got := DateKey(ts); got != "2026-03-01" {
		t.Errorf("DateKey() = %q, want %q", got, "2026-03-01")
	}
}

func TestSameDay(t *testing.T) {
	a := time.Date(2026, 2, 28, 0, 1, 0, 0, time.UTC)
	b := time.Date(2026, 2, 28, 23, 59, 0, 0, time.UTC)
	c := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	if !SameDay(a, b) {
		t.Error("SameDay(a, b) = false, want true")
	}
	if SameDay(b, c) {
		t.Error("SameDay(b, c) = true, want false")
	}
}

func TestStartOfDay(t *testing.T) {
	ts := time.Date(2026, 2, 28, 13, 45, 12, 0, time.UTC)
	want := time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)
	if got := StartOfDay(ts); !got.Equal(want) {
		t.Errorf("StartOfDay() = %v, want %v", got, want)
	}
}

func TestFake_SetAndAdvance(t *testing.T) {
	start := time.Date(2026, 2, 28, 12, 0, 0, 0, time.UTC)
	f := NewFake(start)

	if !f.Now().Equal(start) {
		t.Fatalf("Now() = %v, want %v", f.Now(), start)
	}

	f.Advance(90 * time.Minute)
	if want := start.Add(90 * time.Minute); !f.Now().Equal(want) {
		t.Errorf("after Advance Now() = %v, want %v", f.Now(), want)
	}

	later := time.Date(2026, 3, 1, 5, 0, 0, 0, time.UTC)
	f.Set(later)
	if !f.Now().Equal(later) {
		t.Errorf("after Set Now() = %v, want %v", f.Now(), later)
	}
}
