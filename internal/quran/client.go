package quran

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/quranlake/internal/cache"
	"github.com/smokyabdulrahman/quranlake/internal/clock"
	"github.com/smokyabdulrahman/quranlake/internal/metrics"
	"github.com/smokyabdulrahman/quranlake/internal/retry"
)

const (
	defaultBaseURL = "https://www.mp3quran.net/api/v3"

	CatalogueTTL = 24 * time.Hour
	ReciterTTL   = time.Hour
)

// ErrReciterNotFound is returned by Reciter for an unknown id.
var ErrReciterNotFound = errors.New("reciter not found")

// entry is the stored form of a cached response.
type entry struct {
	FetchedAt int64           `json:"fetchedAt"`
	Body      json.RawMessage `json:"body"`
}

// Client reads the mp3quran v3 API, caching responses in Storage.
type Client struct {
	httpClient *http.Client
	log        zerolog.Logger

	// BaseURL is exported for testing with httptest.
	BaseURL string
	Retry   retry.Policy
	Clock   clock.Clock
	// Storage caches responses. Nil disables caching.
	Storage cache.Storage
}

// NewClient returns a client caching in storage.
func NewClient(storage cache.Storage, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		log:        logger.With().Str("component", "mp3quran").Logger(),
		BaseURL:    defaultBaseURL,
		Retry:      retry.Default(),
		Clock:      clock.Real{},
		Storage:    storage,
	}
}

// Reciters lists every reciter in language ("eng" or "ar").
func (c *Client) Reciters(ctx context.Context, language string) ([]Reciter, error) {
	var body recitersResponse
	params := url.Values{"language": {language}}
	if err := c.get(ctx, "reciters", params, "quran:reciters:"+language, CatalogueTTL, &body); err != nil {
		return nil, err
	}
	return body.Reciters, nil
}

// Reciter returns one reciter by id.
func (c *Client) Reciter(ctx context.Context, id int, language string) (*Reciter, error) {
	var body recitersResponse
	params := url.Values{"language": {language}, "reciter": {strconv.Itoa(id)}}
	key := fmt.Sprintf("quran:reciter:%s:%d", language, id)
	if err := c.get(ctx, "reciters", params, key, ReciterTTL, &body); err != nil {
		return nil, err
	}
	for i := range body.Reciters {
		if body.Reciters[i].ID == id {
			return &body.Reciters[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %d", ErrReciterNotFound, id)
}

// Surahs lists the 114 surahs in language.
func (c *Client) Surahs(ctx context.Context, language string) ([]Surah, error) {
	var body suwarResponse
	params := url.Values{"language": {language}}
	if err := c.get(ctx, "suwar", params, "quran:suwar:"+language, CatalogueTTL, &body); err != nil {
		return nil, err
	}
	return body.Suwar, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, key string, ttl time.Duration, out any) error {
	if raw, ok := c.cached(ctx, key, ttl); ok {
		if err := json.Unmarshal(raw, out); err == nil {
			return nil
		}
		c.log.Warn().Str("key", key).Msg("discarding undecodable cache entry")
	}

	policy := c.Retry
	policy.OnRetry = func(attempt int, err error, wait time.Duration) {
		c.log.Debug().Err(err).Int("attempt", attempt).Dur("wait", wait).Str("endpoint", endpoint).Msg("catalogue request failed, retrying")
	}
	raw, err := retry.Value(ctx, policy, func(ctx context.Context) (json.RawMessage, error) {
		return c.fetch(ctx, endpoint, params)
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}

	c.store(ctx, key, raw)
	return nil
}

func (c *Client) fetch(ctx context.Context, endpoint string, params url.Values) (raw json.RawMessage, err error) {
	start := time.Now()
	defer func() { metrics.ObserveNetworkRequest("mp3quran", endpoint, start, err) }()

	reqURL := fmt.Sprintf("%s/%s?%s", c.BaseURL, endpoint, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalogue request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to decode %s response: %w", endpoint, err))
	}
	return raw, nil
}

func (c *Client) cached(ctx context.Context, key string, ttl time.Duration) (json.RawMessage, bool) {
	if c.Storage == nil {
		return nil, false
	}
	b, err := c.Storage.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			c.log.Warn().Err(err).Str("key", key).Msg("catalogue cache read failed")
		}
		return nil, false
	}
	var e entry
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, false
	}
	if c.Clock.Now().Sub(time.UnixMilli(e.FetchedAt)) > ttl {
		return nil, false
	}
	return e.Body, true
}

func (c *Client) store(ctx context.Context, key string, raw json.RawMessage) {
	if c.Storage == nil {
		return
	}
	b, err := json.Marshal(entry{FetchedAt: c.Clock.Now().UnixMilli(), Body: raw})
	if err != nil {
		return
	}
	if err := c.Storage.Set(ctx, key, b); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("catalogue cache write failed")
	}
}
