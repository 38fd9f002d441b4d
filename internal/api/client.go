// Package api talks to the Al Adhan prayer-times service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/quranlake/internal/clock"
	"github.com/smokyabdulrahman/quranlake/internal/geo"
	"github.com/smokyabdulrahman/quranlake/internal/metrics"
	"github.com/smokyabdulrahman/quranlake/internal/retry"
)

const (
	defaultBaseURL = "https://api.aladhan.com/v1"

	// DefaultMethod is Umm Al-Qura University, Makkah.
	DefaultMethod = 4
	// DefaultSchool is Hanafi.
	DefaultSchool = 1
)

var (
	// ErrInvalidCoordinates is returned before any request is made.
	ErrInvalidCoordinates = geo.ErrInvalidCoordinates
	// ErrInvalidResponseShape means the envelope decoded but data.timings was absent.
	ErrInvalidResponseShape = errors.New("invalid prayer times response: missing data.timings")
	// ErrNetwork covers transport failures, timeouts, non-2xx statuses and undecodable bodies.
	ErrNetwork = errors.New("prayer times request failed")
)

// Client communicates with the Al Adhan prayer times API.
type Client struct {
	httpClient *http.Client
	log        zerolog.Logger

	// BaseURL is the API base URL. Defaults to the Al Adhan API.
	// Exported for testing with httptest.
	BaseURL string
	// Method and School are sent on both endpoint tiers.
	Method int
	School int
	// Retry wraps the enhanced/basic pair. Tests shrink the step.
	Retry retry.Policy
	// Clock supplies "today" when no date is given.
	Clock clock.Clock
}

// NewClient creates a new API client with sensible defaults.
func NewClient(logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log:     logger.With().Str("component", "aladhan").Logger(),
		BaseURL: defaultBaseURL,
		Method:  DefaultMethod,
		School:  DefaultSchool,
		Retry:   retry.Default(),
		Clock:   clock.Real{},
	}
}

// FetchPrayerTimes returns the timings for the given coordinates and date.
// A zero date means today according to the client's clock.
//
// The enhanced endpoint is tried first; any failure falls back once to the
// basic endpoint. That pair is retried up to Retry.Attempts times.
func (c *Client) FetchPrayerTimes(ctx context.Context, lat, lon float64, date time.Time) (*Response, error) {
	if err := geo.ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}
	if date.IsZero() {
		date = c.Clock.Now()
	}

	policy := c.Retry
	policy.OnRetry = func(attempt int, err error, wait time.Duration) {
		c.log.Warn().Err(err).Int("attempt", attempt).Dur("wait", wait).Msg("prayer times fetch failed, retrying")
	}

	return retry.Value(ctx, policy, func(ctx context.Context) (*Response, error) {
		return c.fetchWithFallback(ctx, lat, lon, date)
	})
}

func (c *Client) fetchWithFallback(ctx context.Context, lat, lon float64, date time.Time) (*Response, error) {
	resp, err := c.fetchTimings(ctx, "enhanced", date, c.enhancedParams(lat, lon))
	if err == nil {
		return resp, nil
	}
	c.log.Debug().Err(err).Msg("enhanced endpoint failed, falling back to basic")

	return c.fetchTimings(ctx, "basic", date, c.basicParams(lat, lon))
}

func (c *Client) basicParams(lat, lon float64) url.Values {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("method", strconv.Itoa(c.Method))
	params.Set("school", strconv.Itoa(c.School))
	params.Set("adjustment", "1")
	return params
}

func (c *Client) enhancedParams(lat, lon float64) url.Values {
	params := c.basicParams(lat, lon)
	params.Set("latitudeAdjustmentMethod", "3")
	params.Set("midnightMode", "1")
	return params
}

func (c *Client) fetchTimings(ctx context.Context, tier string, date time.Time, params url.Values) (resp *Response, err error) {
	start := time.Now()
	defer func() { metrics.ObserveNetworkRequest("aladhan", tier, start, err) }()

	endpoint := fmt.Sprintf("%s/timings/%s", c.BaseURL, date.Format("02-01-2006"))
	resp, err = c.doRequest(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}
	if resp.Data.Timings.IsZero() {
		return nil, ErrInvalidResponseShape
	}
	return resp, nil
}

func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values) (*Response, error) {
	reqURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrNetwork, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: API returned status %d: %s", ErrNetwork, resp.StatusCode, string(body))
	}

	var apiResp Response
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode API response: %w", ErrNetwork, err)
	}

	if apiResp.Code != 200 {
		return nil, fmt.Errorf("%w: API error: code=%d status=%s", ErrNetwork, apiResp.Code, apiResp.Status)
	}

	return &apiResp, nil
}
