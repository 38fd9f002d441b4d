package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/smokyabdulrahman/quranlake/internal/clock"
	"github.com/smokyabdulrahman/quranlake/internal/metrics"
)

// Position is a raw fix from a Locator.
type Position struct {
	Latitude  float64
	Longitude float64
	Accuracy  float64 // metres, 0 when unknown
	Timestamp time.Time

	// Optional hints some locators can supply without geocoding.
	City     string
	Country  string
	Timezone string
}

// PositionOptions mirrors the usual geolocation request options.
type PositionOptions struct {
	EnableHighAccuracy bool
	Timeout            time.Duration
	MaximumAge         time.Duration
}

// DefaultPositionOptions are low accuracy, a 15s acquisition timeout and
// a five minute maximum age.
func DefaultPositionOptions() PositionOptions {
	return PositionOptions{
		EnableHighAccuracy: false,
		Timeout:            15 * time.Second,
		MaximumAge:         5 * time.Minute,
	}
}

// Locator acquires the current position. Errors should wrap one of
// ErrPermissionDenied, ErrUnavailable or ErrTimeout.
type Locator interface {
	CurrentPosition(ctx context.Context, opts PositionOptions) (Position, error)
}

// StaticLocator always reports the configured coordinates.
type StaticLocator struct {
	Latitude  float64
	Longitude float64
	City      string
	Country   string
}

// CurrentPosition implements Locator.
func (s StaticLocator) CurrentPosition(ctx context.Context, _ PositionOptions) (Position, error) {
	if err := ctx.Err(); err != nil {
		return Position{}, fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return Position{
		Latitude:  s.Latitude,
		Longitude: s.Longitude,
		City:      s.City,
		Country:   s.Country,
	}, nil
}

// DeniedLocator is used when location access is disabled.
type DeniedLocator struct{}

// CurrentPosition implements Locator.
func (DeniedLocator) CurrentPosition(context.Context, PositionOptions) (Position, error) {
	return Position{}, ErrPermissionDenied
}

// ipAPIResponse maps the response from ip-api.com.
type ipAPIResponse struct {
	Status   string  `json:"status"`
	Message  string  `json:"message"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	City     string  `json:"city"`
	Country  string  `json:"country"`
	Timezone string  `json:"timezone"`
}

const defaultIPAPIURL = "http://ip-api.com/json/?fields=status,message,lat,lon,city,country,timezone"

// IPLocator determines the position from the public IP address using
// ip-api.com, a free service that requires no API key. A fix younger than
// PositionOptions.MaximumAge is reused without a request.
type IPLocator struct {
	httpClient *http.Client

	// URL is the lookup endpoint. Exported for testing with httptest.
	URL   string
	Clock clock.Clock

	mu   sync.Mutex
	last *Position
}

// NewIPLocator returns an IPLocator pointed at ip-api.com.
func NewIPLocator() *IPLocator {
	return &IPLocator{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		URL:        defaultIPAPIURL,
		Clock:      clock.Real{},
	}
}

// CurrentPosition implements Locator.
func (l *IPLocator) CurrentPosition(ctx context.Context, opts PositionOptions) (pos Position, err error) {
	now := l.Clock.Now()

	l.mu.Lock()
	if l.last != nil && opts.MaximumAge > 0 && now.Sub(l.last.Timestamp) <= opts.MaximumAge {
		pos = *l.last
		l.mu.Unlock()
		return pos, nil
	}
	l.mu.Unlock()

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() { metrics.ObserveNetworkRequest("ipapi", "locate", start, err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.URL, nil)
	if err != nil {
		return Position{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Position{}, fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return Position{}, fmt.Errorf("%w: geolocation request failed: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Position{}, fmt.Errorf("%w: geolocation API returned status %d", ErrUnavailable, resp.StatusCode)
	}

	var result ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Position{}, fmt.Errorf("%w: failed to decode geolocation response: %w", ErrUnavailable, err)
	}

	if result.Status != "success" {
		return Position{}, fmt.Errorf("%w: geolocation failed: %s", ErrUnavailable, result.Message)
	}

	pos = Position{
		Latitude:  result.Lat,
		Longitude: result.Lon,
		Timestamp: now,
		City:      result.City,
		Country:   result.Country,
		Timezone:  result.Timezone,
	}

	l.mu.Lock()
	l.last = &pos
	l.mu.Unlock()

	return pos, nil
}
