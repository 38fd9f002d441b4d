// Package cache persists the last good prayer-times snapshot so the view
// can be painted offline.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/quranlake/internal/api"
	"github.com/smokyabdulrahman/quranlake/internal/clock"
	"github.com/smokyabdulrahman/quranlake/internal/geo"
	"github.com/smokyabdulrahman/quranlake/internal/metrics"
	"github.com/smokyabdulrahman/quranlake/internal/netstate"
)

const (
	// DefaultKey is the single slot the snapshot lives in.
	DefaultKey = "quran-lake-prayer-times-cache"
	// DefaultMaxAge is how long a snapshot is served before it is purged.
	DefaultMaxAge = 24 * time.Hour
)

// CachedPrayerData is the persisted snapshot.
type CachedPrayerData struct {
	PrayerTimes api.Response `json:"prayerTimes"`
	Location    geo.Location `json:"location"`
	Timestamp   int64        `json:"timestamp"` // epoch milliseconds
	Date        string       `json:"date"`      // YYYY-MM-DD
}

// SavedAt returns Timestamp as a time.Time.
func (d *CachedPrayerData) SavedAt() time.Time {
	return time.UnixMilli(d.Timestamp)
}

// Status summarises the slot for display.
type Status struct {
	HasCache    bool       `json:"hasCache"`
	IsExpired   bool       `json:"isExpired"`
	IsForToday  bool       `json:"isForToday"`
	LastUpdated *time.Time `json:"lastUpdated"`
}

// Store is a single-slot snapshot cache over a Storage backend.
// Storage failures are logged and absorbed; callers see a miss.
type Store struct {
	storage Storage
	clock   clock.Clock
	signal  netstate.Signal
	log     zerolog.Logger

	Key    string
	MaxAge time.Duration
}

// New returns a Store. A nil signal reports online.
func New(storage Storage, clk clock.Clock, signal netstate.Signal, logger zerolog.Logger) *Store {
	if clk == nil {
		clk = clock.Real{}
	}
	if signal == nil {
		signal = netstate.Static(true)
	}
	return &Store{
		storage: storage,
		clock:   clk,
		signal:  signal,
		log:     logger.With().Str("component", "cache").Logger(),
		Key:     DefaultKey,
		MaxAge:  DefaultMaxAge,
	}
}

// Get returns the snapshot, or nil when the slot is empty, expired or
// unreadable. Expired and corrupt entries are deleted.
func (s *Store) Get(ctx context.Context) *CachedPrayerData {
	raw, err := s.storage.Get(ctx, s.Key)
	if errors.Is(err, ErrNotFound) {
		metrics.IncCache("get", "miss")
		return nil
	}
	if err != nil {
		s.log.Error().Err(err).Msg("error reading from cache")
		metrics.IncCache("get", "error")
		return nil
	}

	var data CachedPrayerData
	if err := json.Unmarshal(raw, &data); err != nil {
		s.log.Error().Err(err).Msg("error decoding cache entry, purging")
		metrics.IncCache("get", "corrupt")
		s.Clear(ctx)
		return nil
	}

	if s.expired(&data) {
		s.log.Debug().Str("date", data.Date).Msg("cache entry expired, purging")
		metrics.IncCache("get", "expired")
		s.Clear(ctx)
		return nil
	}

	metrics.IncCache("get", "hit")
	return &data
}

func (s *Store) expired(d *CachedPrayerData) bool {
	return s.clock.Now().Sub(d.SavedAt()) > s.MaxAge
}

// Set overwrites the slot with resp and loc stamped with the current time.
// A failed write clears the slot and is retried once.
func (s *Store) Set(ctx context.Context, resp *api.Response, loc geo.Location) {
	if resp == nil {
		return
	}
	now := s.clock.Now()
	data := CachedPrayerData{
		PrayerTimes: *resp,
		Location:    loc,
		Timestamp:   now.UnixMilli(),
		Date:        clock.DateKey(now),
	}
	raw, err := json.Marshal(data)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to marshal cache entry")
		metrics.IncCache("set", "error")
		return
	}

	if err := s.storage.Set(ctx, s.Key, raw); err != nil {
		s.log.Warn().Err(err).Msg("error writing to cache, clearing and retrying")
		s.Clear(ctx)
		if err := s.storage.Set(ctx, s.Key, raw); err != nil {
			s.log.Error().Err(err).Msg("failed to write to cache after clearing")
			metrics.IncCache("set", "error")
			return
		}
	}
	metrics.IncCache("set", "ok")
}

// Clear deletes the slot.
func (s *Store) Clear(ctx context.Context) {
	if err := s.storage.Delete(ctx, s.Key); err != nil {
		s.log.Error().Err(err).Msg("error clearing cache")
		metrics.IncCache("clear", "error")
		return
	}
	metrics.IncCache("clear", "ok")
}

// HasValidCacheForToday reports whether an unexpired snapshot exists and
// was written on the current calendar day.
func (s *Store) HasValidCacheForToday(ctx context.Context) bool {
	data := s.Get(ctx)
	if data == nil {
		return false
	}
	return data.Date == clock.DateKey(s.clock.Now())
}

// Status reports on the slot without modifying it beyond lazy expiry.
func (s *Store) Status(ctx context.Context) Status {
	data := s.Get(ctx)
	if data == nil {
		return Status{}
	}
	saved := data.SavedAt().In(s.clock.Now().Location())
	return Status{
		HasCache:    true,
		IsExpired:   s.expired(data),
		IsForToday:  data.Date == clock.DateKey(s.clock.Now()),
		LastUpdated: &saved,
	}
}

// IsOnline reports the connectivity signal.
func (s *Store) IsOnline() bool {
	return s.signal.Online()
}

// Size returns the stored byte length of the slot, 0 when empty.
func (s *Store) Size(ctx context.Context) int {
	raw, err := s.storage.Get(ctx, s.Key)
	if err != nil {
		return 0
	}
	return len(raw)
}
