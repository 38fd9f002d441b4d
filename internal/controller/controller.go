// Package controller owns the prayer-times view state. It decides whether
// to serve the cache, fetch fresh data, or degrade to an error.
package controller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/quranlake/internal/api"
	"github.com/smokyabdulrahman/quranlake/internal/cache"
	"github.com/smokyabdulrahman/quranlake/internal/clock"
	"github.com/smokyabdulrahman/quranlake/internal/geo"
	"github.com/smokyabdulrahman/quranlake/internal/metrics"
	"github.com/smokyabdulrahman/quranlake/internal/netstate"
)

// Phase is the main state of the view.
type Phase string

const (
	PhaseLoading Phase = "loading"
	PhaseReady   Phase = "ready"
	PhaseError   Phase = "error"
	// PhaseEmpty follows ClearCache: nothing loaded and nothing pending.
	PhaseEmpty Phase = "empty"
)

var allPhases = []string{string(PhaseLoading), string(PhaseReady), string(PhaseError), string(PhaseEmpty)}

var (
	// ErrOffline is returned when offline without a same-day cache.
	ErrOffline = errors.New("no internet connection and no cached data available")
	// ErrSuperseded means a newer operation or ClearCache replaced this one.
	ErrSuperseded = errors.New("superseded by a newer request")
)

// LocationResolver produces the user's location.
type LocationResolver interface {
	Resolve(ctx context.Context) (geo.Location, error)
}

// Fetcher retrieves a day's prayer times.
type Fetcher interface {
	FetchPrayerTimes(ctx context.Context, lat, lon float64, date time.Time) (*api.Response, error)
}

// Cache is the snapshot store the controller reads and writes.
type Cache interface {
	Get(ctx context.Context) *cache.CachedPrayerData
	Set(ctx context.Context, resp *api.Response, loc geo.Location)
	Clear(ctx context.Context)
	HasValidCacheForToday(ctx context.Context) bool
	Status(ctx context.Context) cache.Status
}

// Deps are the controller's collaborators.
type Deps struct {
	Resolver     LocationResolver
	Fetcher      Fetcher
	Cache        Cache
	Connectivity netstate.Signal
	Clock        clock.Clock
	Logger       zerolog.Logger
}

// View is the state exposed to presentation code.
type View struct {
	Phase       Phase         `json:"phase"`
	PrayerTimes *api.Response `json:"prayerTimes"`
	Location    *geo.Location `json:"location"`
	Loading     bool          `json:"loading"`
	Error       string        `json:"error,omitempty"`
	Warning     string        `json:"warning,omitempty"`
	Refreshing  bool          `json:"refreshing"`
	IsOffline   bool          `json:"isOffline"`
	CacheStatus cache.Status  `json:"cacheStatus"`
}

type state struct {
	phase       Phase
	prayerTimes *api.Response
	location    *geo.Location
	loading     bool
	refreshing  bool
	err         string
	warning     string
}

// Controller is safe for concurrent use. Every operation captures a
// generation number when it starts and only writes state if no newer
// operation or ClearCache has happened since.
type Controller struct {
	resolver LocationResolver
	fetcher  Fetcher
	cache    Cache
	signal   netstate.Signal
	clock    clock.Clock
	log      zerolog.Logger

	mu   sync.Mutex
	gen  uint64
	st   state
	subs []chan View
}

// New returns a Controller in the Loading phase.
func New(d Deps) *Controller {
	if d.Clock == nil {
		d.Clock = clock.Real{}
	}
	if d.Connectivity == nil {
		d.Connectivity = netstate.Static(true)
	}
	c := &Controller{
		resolver: d.Resolver,
		fetcher:  d.Fetcher,
		cache:    d.Cache,
		signal:   d.Connectivity,
		clock:    d.Clock,
		log:      d.Logger.With().Str("component", "controller").Logger(),
		st:       state{phase: PhaseLoading, loading: true},
	}
	metrics.SetPhase(string(PhaseLoading), allPhases)
	return c
}

// Start paints from any cached entry, then loads fresh data if online.
// It blocks until the initial load finishes.
func (c *Controller) Start(ctx context.Context) error {
	cached := c.cache.Get(ctx)

	c.mu.Lock()
	if cached != nil {
		c.applyLocked(cached.PrayerTimes, cached.Location)
		c.st.loading = false
		c.log.Info().Str("date", cached.Date).Msg("loaded prayer times from cache on initial load")
	}
	online := c.signal.Online()
	if !online && cached == nil {
		c.st.phase = PhaseError
		c.st.loading = false
		c.st.err = Message(ErrOffline)
	}
	c.changedLocked()
	c.mu.Unlock()

	if !online {
		if cached == nil {
			return ErrOffline
		}
		return nil
	}
	return c.Load(ctx)
}

// Restore paints a same-day cached snapshot without touching the network
// and reports whether one was found.
func (c *Controller) Restore(ctx context.Context) bool {
	if !c.cache.HasValidCacheForToday(ctx) {
		return false
	}
	cached := c.cache.Get(ctx)
	if cached == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.applyLocked(cached.PrayerTimes, cached.Location)
	c.st.loading = false
	c.changedLocked()
	return true
}

// Load runs the full load path: cache when offline, otherwise resolve,
// fetch and cache.
func (c *Controller) Load(ctx context.Context) error {
	return c.run(ctx, false)
}

// Refresh re-runs the online path with the Refreshing flag set. A failed
// refresh never turns a Ready view into Error.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.run(ctx, true)
}

// ClearCache purges the snapshot and resets the view. It does not fetch.
func (c *Controller) ClearCache(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	c.cache.Clear(ctx)
	c.st = state{phase: PhaseEmpty}
	c.changedLocked()
	c.log.Info().Msg("cache cleared")
}

// Watch refreshes whenever connectivity returns while a same-day cache
// exists. It returns when events is closed or ctx is done.
func (c *Controller) Watch(ctx context.Context, events <-chan bool) {
	for {
		select {
		case <-ctx.Done():
			return
		case online, ok := <-events:
			if !ok {
				return
			}
			c.mu.Lock()
			c.changedLocked()
			c.mu.Unlock()

			if online && c.cache.HasValidCacheForToday(ctx) {
				c.log.Info().Msg("back online, refreshing")
				if err := c.Refresh(ctx); err != nil {
					c.log.Debug().Err(err).Msg("refresh after reconnect failed")
				}
			}
		}
	}
}

// Snapshot returns a copy of the current view.
func (c *Controller) Snapshot(ctx context.Context) View {
	status := c.cache.Status(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.viewLocked()
	v.CacheStatus = status
	return v
}

// PrayerTimes returns a copy of the loaded response, or nil.
func (c *Controller) PrayerTimes() *api.Response {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.st.prayerTimes == nil {
		return nil
	}
	resp := *c.st.prayerTimes
	return &resp
}

// Subscribe returns a channel that always holds the latest view after a
// change. Cache status is not filled in.
func (c *Controller) Subscribe() <-chan View {
	ch := make(chan View, 1)
	c.mu.Lock()
	c.subs = append(c.subs, ch)
	c.mu.Unlock()
	return ch
}

func (c *Controller) run(ctx context.Context, refresh bool) error {
	gen := c.begin(refresh)
	defer c.finish(gen)

	if !c.signal.Online() {
		return c.serveOffline(ctx, gen, refresh)
	}

	loc, err := c.resolver.Resolve(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("location error")
		return c.fail(ctx, gen, refresh, err)
	}

	resp, err := c.fetcher.FetchPrayerTimes(ctx, loc.Latitude, loc.Longitude, c.clock.Now())
	if err != nil {
		c.log.Warn().Err(err).Msg("prayer times fetch error")
		return c.fail(ctx, gen, refresh, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return ErrSuperseded
	}
	c.cache.Set(ctx, resp, loc)
	c.applyLocked(*resp, loc)
	c.changedLocked()
	c.log.Info().Str("location", loc.Label()).Bool("refresh", refresh).Msg("prayer times updated")
	return nil
}

func (c *Controller) serveOffline(ctx context.Context, gen uint64, refresh bool) error {
	if c.cache.HasValidCacheForToday(ctx) {
		if cached := c.cache.Get(ctx); cached != nil {
			c.mu.Lock()
			defer c.mu.Unlock()
			if gen != c.gen {
				return ErrSuperseded
			}
			c.applyLocked(cached.PrayerTimes, cached.Location)
			c.changedLocked()
			c.log.Info().Msg("using cached data (offline mode)")
			return nil
		}
	}
	return c.fail(ctx, gen, refresh, ErrOffline)
}

func (c *Controller) begin(refresh bool) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	if refresh {
		c.st.refreshing = true
	} else {
		c.st.loading = true
		c.st.err = ""
		if c.st.phase != PhaseReady {
			c.st.phase = PhaseLoading
		}
	}
	c.changedLocked()
	return c.gen
}

func (c *Controller) finish(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	c.st.loading = false
	c.st.refreshing = false
	c.changedLocked()
}

// fail applies the degradation rules for an error during a load.
func (c *Controller) fail(ctx context.Context, gen uint64, refresh bool, cause error) error {
	var cached *cache.CachedPrayerData
	if c.cache.HasValidCacheForToday(ctx) {
		cached = c.cache.Get(ctx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return ErrSuperseded
	}

	switch {
	case cached != nil && refresh:
		c.applyLocked(cached.PrayerTimes, cached.Location)
		c.log.Info().Msg("refresh failed, keeping cached data")
	case cached != nil:
		c.applyLocked(cached.PrayerTimes, cached.Location)
		c.st.warning = Warning(cause)
		c.log.Info().Str("warning", c.st.warning).Msg("using cached data due to error")
	case refresh && c.st.phase == PhaseReady:
		c.st.warning = Message(cause)
	default:
		c.st.phase = PhaseError
		c.st.err = Message(cause)
	}
	c.changedLocked()
	return cause
}

func (c *Controller) applyLocked(resp api.Response, loc geo.Location) {
	c.st.phase = PhaseReady
	c.st.prayerTimes = &resp
	c.st.location = &loc
	c.st.err = ""
	c.st.warning = ""
}

func (c *Controller) viewLocked() View {
	v := View{
		Phase:      c.st.phase,
		Loading:    c.st.loading,
		Refreshing: c.st.refreshing,
		Error:      c.st.err,
		Warning:    c.st.warning,
		IsOffline:  !c.signal.Online(),
	}
	if c.st.prayerTimes != nil {
		pt := *c.st.prayerTimes
		v.PrayerTimes = &pt
	}
	if c.st.location != nil {
		loc := *c.st.location
		v.Location = &loc
	}
	return v
}

func (c *Controller) changedLocked() {
	metrics.SetPhase(string(c.st.phase), allPhases)
	v := c.viewLocked()
	for _, ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
		default:
		}
	}
}
