package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/quranlake/internal/metrics"
	"github.com/smokyabdulrahman/quranlake/internal/retry"
)

const (
	defaultGeocodeURL = "https://api.bigdatacloud.net/data/reverse-geocode-client"

	UnknownCity    = "Unknown City"
	UnknownCountry = "Unknown Country"
)

// Place is the human-readable name of a coordinate pair.
type Place struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

type bigDataCloudResponse struct {
	City        string `json:"city"`
	Locality    string `json:"locality"`
	CountryName string `json:"countryName"`
}

// ReverseGeocoder looks up place names with the BigDataCloud client API.
type ReverseGeocoder struct {
	httpClient *http.Client
	log        zerolog.Logger

	// URL is the endpoint. Exported for testing with httptest.
	URL      string
	Language string
	Retry    retry.Policy
}

// NewReverseGeocoder returns a geocoder with English place names.
func NewReverseGeocoder(logger zerolog.Logger) *ReverseGeocoder {
	return &ReverseGeocoder{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        logger.With().Str("component", "geocode").Logger(),
		URL:        defaultGeocodeURL,
		Language:   "en",
		Retry:      retry.Default(),
	}
}

// Place implements Geocoder. Missing fields come back as UnknownCity and
// UnknownCountry rather than an error.
func (g *ReverseGeocoder) Place(ctx context.Context, lat, lon float64) (Place, error) {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return Place{}, err
	}

	policy := g.Retry
	policy.OnRetry = func(attempt int, err error, wait time.Duration) {
		g.log.Debug().Err(err).Int("attempt", attempt).Dur("wait", wait).Msg("reverse geocode failed, retrying")
	}

	return retry.Value(ctx, policy, func(ctx context.Context) (Place, error) {
		return g.lookup(ctx, lat, lon)
	})
}

func (g *ReverseGeocoder) lookup(ctx context.Context, lat, lon float64) (place Place, err error) {
	start := time.Now()
	defer func() { metrics.ObserveNetworkRequest("bigdatacloud", "reverse_geocode", start, err) }()

	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("localityLanguage", g.Language)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.URL+"?"+params.Encode(), nil)
	if err != nil {
		return Place{}, err
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return Place{}, fmt.Errorf("reverse geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Place{}, fmt.Errorf("reverse geocode API returned status %d", resp.StatusCode)
	}

	var body bigDataCloudResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Place{}, fmt.Errorf("failed to decode reverse geocode response: %w", err)
	}

	place = Place{City: body.City, Country: body.CountryName}
	if place.City == "" {
		place.City = body.Locality
	}
	if place.City == "" {
		place.City = UnknownCity
	}
	if place.Country == "" {
		place.Country = UnknownCountry
	}
	return place, nil
}
