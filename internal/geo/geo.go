// Package geo resolves the user's coordinates and enriches them with a
// city and country.
package geo

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrPermissionDenied means location access was refused.
	ErrPermissionDenied = errors.New("location permission denied")
	// ErrUnavailable means no position could be determined.
	ErrUnavailable = errors.New("location information is unavailable")
	// ErrTimeout means position acquisition did not complete in time.
	ErrTimeout = errors.New("location request timed out")
	// ErrInvalidCoordinates means latitude or longitude is NaN or out of range.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

// Location holds geographic coordinates plus an optional place name.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	City      string  `json:"city,omitempty"`
	Country   string  `json:"country,omitempty"`
	Timezone  string  `json:"timezone,omitempty"`
}

// ValidateCoordinates checks lat ∈ [-90, 90] and lon ∈ [-180, 180].
func ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) ||
		lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: lat=%v lon=%v", ErrInvalidCoordinates, lat, lon)
	}
	return nil
}

// Label returns "City, Country" when both are known, otherwise the
// coordinates formatted to four decimals.
func (l Location) Label() string {
	if l.City != "" && l.Country != "" {
		return l.City + ", " + l.Country
	}
	if l.City != "" {
		return l.City
	}
	return fmt.Sprintf("%.4f, %.4f", l.Latitude, l.Longitude)
}
