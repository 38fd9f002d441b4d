package adhan

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/quranlake/internal/api"
	"github.com/smokyabdulrahman/quranlake/internal/clock"
)

type recordingPlayer struct {
	mu      sync.Mutex
	prayers []string
	sources []string
	err     error
}

func (p *recordingPlayer) Play(_ context.Context, prayer, source string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prayers = append(p.prayers, prayer)
	p.sources = append(p.sources, source)
	return p.err
}

func (p *recordingPlayer) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.prayers)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, ev Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return n.err
}

func sampleTimes() *api.Response {
	return &api.Response{
		Code: 200,
		Data: api.Data{
			Timings: api.Timings{
				Fajr:       "05:15",
				Sunrise:    "06:40",
				Dhuhr:      "12:30",
				Asr:        "15:45",
				Maghrib:    "18:20",
				Isha:       "19:50",
				DhuhrAdhan: "12:20",
			},
			Meta: api.Meta{Timezone: "UTC"},
		},
	}
}

func newTestTrigger(t *testing.T, at time.Time, cfg Config) (*Trigger, *clock.Fake, *recordingPlayer, *recordingNotifier) {
	t.Helper()
	clk := clock.NewFake(at)
	player := &recordingPlayer{}
	notifier := &recordingNotifier{}
	resp := sampleTimes()
	tr := NewTrigger(cfg, func() *api.Response { return resp }, player, notifier, clk, zerolog.Nop())
	return tr, clk, player, notifier
}

func TestTick_FiresOncePerDay(t *testing.T) {
	tr, clk, player, notifier := newTestTrigger(t, time.Date(2026, 3, 1, 12, 19, 45, 0, time.UTC), DefaultConfig())

	fired := tr.Tick(context.Background())
	if len(fired) != 1 || fired[0] != "Dhuhr" {
		t.Fatalf("first tick fired %v, want [Dhuhr]", fired)
	}

	clk.Advance(30 * time.Second)
	if fired := tr.Tick(context.Background()); len(fired) != 0 {
		t.Errorf("second tick fired %v, want nothing", fired)
	}

	if player.count() != 1 {
		t.Errorf("player called %d times, want 1", player.count())
	}
	if player.sources[0] != DefaultAudio {
		t.Errorf("source = %q, want %q", player.sources[0], DefaultAudio)
	}
	if len(notifier.events) != 1 {
		t.Fatalf("notifier called %d times, want 1", len(notifier.events))
	}
	ev := notifier.events[0]
	if ev.Kind != KindScheduled || ev.Prayer != "Dhuhr" || ev.ID == "" {
		t.Errorf("unexpected event %+v", ev)
	}
	if !tr.Fired("Dhuhr") {
		t.Error("Fired(Dhuhr) = false after firing")
	}
}

func TestTick_Window(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want int
	}{
		{"60s before", time.Date(2026, 3, 1, 12, 19, 0, 0, time.UTC), 1},
		{"60s after", time.Date(2026, 3, 1, 12, 21, 0, 0, time.UTC), 1},
		{"61s before", time.Date(2026, 3, 1, 12, 18, 59, 0, time.UTC), 0},
		{"2m after", time.Date(2026, 3, 1, 12, 22, 0, 0, time.UTC), 0},
		{"prayer time itself", time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, _, player, _ := newTestTrigger(t, tt.at, DefaultConfig())
			tr.Tick(context.Background())
			if player.count() != tt.want {
				t.Errorf("player called %d times, want %d", player.count(), tt.want)
			}
		})
	}
}

func TestTick_HeuristicAdhan(t *testing.T) {
	// Asr at 15:45 has no provider adhan; the heuristic puts it at 15:40.
	tr, _, player, _ := newTestTrigger(t, time.Date(2026, 3, 1, 15, 40, 10, 0, time.UTC), DefaultConfig())
	fired := tr.Tick(context.Background())
	if len(fired) != 1 || fired[0] != "Asr" {
		t.Fatalf("fired %v, want [Asr]", fired)
	}
	if player.count() != 1 {
		t.Errorf("player called %d times, want 1", player.count())
	}
}

func TestTick_Muted(t *testing.T) {
	tr, clk, player, notifier := newTestTrigger(t, time.Date(2026, 3, 1, 12, 20, 0, 0, time.UTC), DefaultConfig())
	tr.SetMuted(true)
	if !tr.Muted() {
		t.Fatal("Muted() = false after SetMuted(true)")
	}

	if fired := tr.Tick(context.Background()); len(fired) != 1 {
		t.Fatalf("fired %v, want one prayer", fired)
	}
	if player.count() != 0 {
		t.Errorf("player called %d times while muted", player.count())
	}
	if len(notifier.events) != 1 || !notifier.events[0].Muted {
		t.Errorf("want one muted event, got %+v", notifier.events)
	}

	// Unmuting does not replay an adhan already marked as fired.
	tr.SetMuted(false)
	clk.Advance(20 * time.Second)
	tr.Tick(context.Background())
	if player.count() != 0 {
		t.Errorf("player called %d times after unmute, want 0", player.count())
	}
}

func TestTick_ResetsOnNewDay(t *testing.T) {
	tr, clk, player, _ := newTestTrigger(t, time.Date(2026, 3, 1, 12, 20, 0, 0, time.UTC), DefaultConfig())
	tr.Tick(context.Background())

	clk.Advance(24 * time.Hour)
	tr.Tick(context.Background())

	if player.count() != 2 {
		t.Errorf("player called %d times across two days, want 2", player.count())
	}
}

func TestTick_NoTimings(t *testing.T) {
	player := &recordingPlayer{}
	tr := NewTrigger(DefaultConfig(), func() *api.Response { return nil }, player, nil, clock.NewFake(time.Now()), zerolog.Nop())
	if fired := tr.Tick(context.Background()); fired != nil {
		t.Errorf("fired %v with no timings", fired)
	}
	if _, err := tr.PlayNow(context.Background()); !errors.Is(err, ErrNoPrayerTimes) {
		t.Errorf("PlayNow err = %v, want ErrNoPrayerTimes", err)
	}
}

func TestPlayNow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Audio = map[string]string{"Asr": "asr.mp3"}
	tr, _, player, notifier := newTestTrigger(t, time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC), cfg)
	tr.SetMuted(true)

	name, err := tr.PlayNow(context.Background())
	if err != nil {
		t.Fatalf("PlayNow: %v", err)
	}
	if name != "Asr" {
		t.Errorf("PlayNow played %q, want Asr", name)
	}
	if player.count() != 1 || player.sources[0] != "asr.mp3" {
		t.Errorf("player got %v, want [asr.mp3]", player.sources)
	}
	if len(notifier.events) != 1 || notifier.events[0].Kind != KindManual {
		t.Errorf("want one manual event, got %+v", notifier.events)
	}
	if tr.Fired("Asr") {
		t.Error("manual play should not mark the scheduled adhan as fired")
	}
}

func TestPlayNow_SkipsSunrise(t *testing.T) {
	// 05:30 falls between Fajr and Sunrise.
	tr, _, player, notifier := newTestTrigger(t, time.Date(2026, 3, 1, 5, 30, 0, 0, time.UTC), DefaultConfig())

	name, err := tr.PlayNow(context.Background())
	if err != nil {
		t.Fatalf("PlayNow: %v", err)
	}
	if name != "Dhuhr" {
		t.Errorf("PlayNow played %q, want Dhuhr", name)
	}
	if player.count() != 1 {
		t.Errorf("player called %d times, want 1", player.count())
	}
	for _, ev := range notifier.events {
		if ev.Prayer == "Sunrise" {
			t.Errorf("published an adhan event for Sunrise: %+v", ev)
		}
	}
}

func TestPlayNow_PlayerError(t *testing.T) {
	tr, _, player, _ := newTestTrigger(t, time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC), DefaultConfig())
	player.err = errors.New("no audio device")
	if _, err := tr.PlayNow(context.Background()); err == nil {
		t.Fatal("expected player error")
	}
}

func TestTick_NotifierErrorStillPlays(t *testing.T) {
	tr, _, player, notifier := newTestTrigger(t, time.Date(2026, 3, 1, 12, 20, 0, 0, time.UTC), DefaultConfig())
	notifier.err = errors.New("broker down")
	tr.Tick(context.Background())
	if player.count() != 1 {
		t.Errorf("player called %d times, want 1", player.count())
	}
}

func TestRun_TicksImmediately(t *testing.T) {
	tr, _, player, _ := newTestTrigger(t, time.Date(2026, 3, 1, 12, 20, 0, 0, time.UTC), Config{Interval: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		tr.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for player.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("Run did not tick immediately")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done
}
