// Package netstate tracks whether the network is reachable.
package netstate

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/quranlake/internal/metrics"
)

const (
	// DefaultProbeURL is requested to decide whether the provider is reachable.
	DefaultProbeURL = "https://api.aladhan.com/v1/status"
	// DefaultInterval is the probe period used by Run.
	DefaultInterval = 30 * time.Second
)

// Signal reports connectivity.
type Signal interface {
	Online() bool
}

// Static is a fixed connectivity signal.
type Static bool

// Online implements Signal.
func (s Static) Online() bool { return bool(s) }

// Monitor probes a URL on an interval and publishes online/offline transitions.
type Monitor struct {
	httpClient *http.Client
	log        zerolog.Logger

	URL      string
	Interval time.Duration

	mu     sync.RWMutex
	online bool
	subs   []chan bool
}

// NewMonitor returns a Monitor that starts out online.
func NewMonitor(url string, interval time.Duration, logger zerolog.Logger) *Monitor {
	if url == "" {
		url = DefaultProbeURL
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	metrics.SetOnline(true)
	return &Monitor{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		log:        logger.With().Str("component", "netstate").Logger(),
		URL:        url,
		Interval:   interval,
		online:     true,
	}
}

// Online implements Signal.
func (m *Monitor) Online() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// Subscribe returns a channel that receives the new state on every
// transition. Slow readers miss intermediate transitions, never the latest.
func (m *Monitor) Subscribe() <-chan bool {
	ch := make(chan bool, 1)
	m.mu.Lock()
	m.subs = append(m.subs, ch)
	m.mu.Unlock()
	return ch
}

// Set records a connectivity state and notifies subscribers if it changed.
func (m *Monitor) Set(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	subs := append([]chan bool(nil), m.subs...)
	m.mu.Unlock()

	metrics.SetOnline(online)
	m.log.Info().Bool("online", online).Msg("connectivity changed")

	for _, ch := range subs {
		// Replace any unread value so the channel always holds the latest state.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- online:
		default:
		}
	}
}

// Probe issues one HEAD request and records the result.
func (m *Monitor) Probe(ctx context.Context) bool {
	online := m.probe(ctx)
	m.Set(online)
	return online
}

func (m *Monitor) probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, m.URL, nil)
	if err != nil {
		return false
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		m.log.Debug().Err(err).Msg("probe failed")
		return false
	}
	resp.Body.Close()
	// Any HTTP answer means the network is reachable.
	return true
}

// Run probes immediately and then every Interval until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()

	m.Probe(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Probe(ctx)
		}
	}
}
