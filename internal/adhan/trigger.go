// Package adhan plays the call to prayer when an adhan time arrives.
package adhan

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/quranlake/internal/api"
	"github.com/smokyabdulrahman/quranlake/internal/clock"
	"github.com/smokyabdulrahman/quranlake/internal/metrics"
	"github.com/smokyabdulrahman/quranlake/internal/prayer"
)

const (
	// DefaultInterval is how often Run checks for a due adhan.
	DefaultInterval = 30 * time.Second
	// DefaultTolerance is how late an adhan may still fire after its time.
	DefaultTolerance = 60 * time.Second
	// DefaultAudio is played for prayers without a configured source.
	DefaultAudio = "adhan.mp3"

	// KindScheduled marks an adhan fired by Tick.
	KindScheduled = "scheduled"
	// KindManual marks an adhan fired by PlayNow.
	KindManual = "manual"
)

// ErrNoPrayerTimes is returned by PlayNow before any timings are loaded.
var ErrNoPrayerTimes = errors.New("no prayer times loaded")

// Config controls polling and audio selection.
type Config struct {
	Interval  time.Duration
	Tolerance time.Duration
	// Audio maps a prayer name to its audio source. Missing entries use DefaultAudio.
	Audio map[string]string
}

// DefaultConfig polls every 30s with a 60s tolerance.
func DefaultConfig() Config {
	return Config{Interval: DefaultInterval, Tolerance: DefaultTolerance}
}

func (c Config) audioFor(name string) string {
	if src, ok := c.Audio[name]; ok && src != "" {
		return src
	}
	return DefaultAudio
}

// Source supplies the currently loaded prayer times, or nil.
type Source func() *api.Response

// Player plays an audio source.
type Player interface {
	Play(ctx context.Context, prayer, source string) error
}

// Event describes one adhan trigger.
type Event struct {
	ID        string    `json:"id"`
	Prayer    string    `json:"prayer"`
	Arabic    string    `json:"arabic"`
	AdhanTime time.Time `json:"adhanTime"`
	Kind      string    `json:"kind"`
	Muted     bool      `json:"muted"`
	FiredAt   time.Time `json:"firedAt"`
}

// Notifier announces an Event.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Trigger fires each of the five daily adhans at most once per day.
type Trigger struct {
	cfg      Config
	source   Source
	player   Player
	notifier Notifier
	clock    clock.Clock
	log      zerolog.Logger

	mu    sync.Mutex
	muted bool
	day   string
	fired map[string]bool
}

// NewTrigger returns a Trigger. A nil player or notifier is replaced by a no-op.
func NewTrigger(cfg Config, source Source, player Player, notifier Notifier, clk clock.Clock, logger zerolog.Logger) *Trigger {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = DefaultTolerance
	}
	if player == nil {
		player = NopPlayer{}
	}
	if notifier == nil {
		notifier = MultiNotifier(nil)
	}
	if clk == nil {
		clk = clock.Real{}
	}
	return &Trigger{
		cfg:      cfg,
		source:   source,
		player:   player,
		notifier: notifier,
		clock:    clk,
		log:      logger.With().Str("component", "adhan").Logger(),
		fired:    make(map[string]bool),
	}
}

// SetMuted toggles playback. Polling and fired markers are unaffected.
func (t *Trigger) SetMuted(muted bool) {
	t.mu.Lock()
	t.muted = muted
	t.mu.Unlock()
	t.log.Info().Bool("muted", muted).Msg("adhan mute changed")
}

// Muted reports the mute state.
func (t *Trigger) Muted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.muted
}

// Fired reports whether the adhan for name has fired today.
func (t *Trigger) Fired(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.day != clock.DateKey(t.now(t.current())) {
		return false
	}
	return t.fired[name]
}

type due struct {
	name string
	at   time.Time
}

// Tick checks every adhan prayer against now and fires the ones within
// tolerance that have not fired today. It returns the prayers fired.
func (t *Trigger) Tick(ctx context.Context) []string {
	resp := t.current()
	if resp == nil {
		return nil
	}
	now := t.now(resp)

	t.mu.Lock()
	if today := clock.DateKey(now); today != t.day {
		t.day = today
		t.fired = make(map[string]bool)
	}
	var ready []due
	for _, name := range prayer.AdhanPrayers {
		if t.fired[name] {
			continue
		}
		at, err := prayer.AdhanInstant(resp.Data.Timings, name, now)
		if err != nil {
			continue
		}
		diff := now.Sub(at)
		if diff < 0 {
			diff = -diff
		}
		if diff <= t.cfg.Tolerance {
			t.fired[name] = true
			ready = append(ready, due{name, at})
		}
	}
	muted := t.muted
	t.mu.Unlock()

	var names []string
	for _, d := range ready {
		t.fire(ctx, d.name, d.at, KindScheduled, muted)
		names = append(names, d.name)
	}
	return names
}

// PlayNow plays the adhan for the next adhan prayer regardless of timing or
// mute. Sunrise has no adhan and is skipped.
func (t *Trigger) PlayNow(ctx context.Context) (string, error) {
	resp := t.current()
	if resp == nil {
		return "", ErrNoPrayerTimes
	}
	now := t.now(resp)
	up, err := prayer.NextAdhan(resp.Data.Timings, now)
	if err != nil {
		return "", err
	}
	return up.Name, t.fire(ctx, up.Name, up.At, KindManual, false)
}

// Run ticks immediately and then every Interval until ctx is done.
func (t *Trigger) Run(ctx context.Context) {
	ticker := time.NewTicker(t.cfg.Interval)
	defer ticker.Stop()

	t.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Tick(ctx)
		}
	}
}

func (t *Trigger) current() *api.Response {
	if t.source == nil {
		return nil
	}
	return t.source()
}

// now is the clock reading in the timings' own timezone.
func (t *Trigger) now(resp *api.Response) time.Time {
	now := t.clock.Now()
	if resp == nil {
		return now
	}
	return now.In(prayer.Zone(resp.Data.Meta.Timezone, now.Location()))
}

func (t *Trigger) fire(ctx context.Context, name string, at time.Time, kind string, muted bool) error {
	ev := Event{
		ID:        uuid.NewString(),
		Prayer:    name,
		Arabic:    prayer.ArabicName(name),
		AdhanTime: at,
		Kind:      kind,
		Muted:     muted,
		FiredAt:   t.clock.Now(),
	}

	if err := t.notifier.Notify(ctx, ev); err != nil {
		t.log.Warn().Err(err).Str("prayer", name).Msg("adhan notification failed")
	}

	if muted {
		metrics.IncAdhan(name, "muted")
		return nil
	}
	metrics.IncAdhan(name, kind)

	if err := t.player.Play(ctx, name, t.cfg.audioFor(name)); err != nil {
		t.log.Error().Err(err).Str("prayer", name).Msg("error playing adhan")
		return err
	}
	return nil
}
