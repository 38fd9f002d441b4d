package geo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultAcquireTimeout bounds the Locator call.
	DefaultAcquireTimeout = 15 * time.Second
	// DefaultTimeout bounds the whole resolution, geocoding included.
	DefaultTimeout = 20 * time.Second
)

// Geocoder names the place at a coordinate pair.
type Geocoder interface {
	Place(ctx context.Context, lat, lon float64) (Place, error)
}

// Resolver turns a Locator fix into a validated, named Location.
type Resolver struct {
	Locator  Locator
	Geocoder Geocoder // optional
	Options  PositionOptions

	// Timeout bounds the entire Resolve call. Options.Timeout bounds acquisition.
	Timeout time.Duration

	log zerolog.Logger
}

// NewResolver returns a Resolver with the default timeouts.
func NewResolver(locator Locator, geocoder Geocoder, logger zerolog.Logger) *Resolver {
	return &Resolver{
		Locator:  locator,
		Geocoder: geocoder,
		Options:  DefaultPositionOptions(),
		Timeout:  DefaultTimeout,
		log:      logger.With().Str("component", "geo").Logger(),
	}
}

// Resolve acquires the current position, validates it and looks up the
// city and country. A timed-out acquisition is abandoned, not retried.
// Geocoding failures are logged and the bare coordinates are returned.
func (r *Resolver) Resolve(ctx context.Context) (Location, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	pos, err := r.acquire(ctx)
	if err != nil {
		return Location{}, err
	}

	if err := ValidateCoordinates(pos.Latitude, pos.Longitude); err != nil {
		return Location{}, err
	}

	loc := Location{
		Latitude:  pos.Latitude,
		Longitude: pos.Longitude,
		City:      pos.City,
		Country:   pos.Country,
		Timezone:  pos.Timezone,
	}
	if loc.City != "" && loc.Country != "" {
		return loc, nil
	}
	if r.Geocoder == nil {
		return loc, nil
	}

	place, err := r.Geocoder.Place(ctx, pos.Latitude, pos.Longitude)
	if err != nil {
		r.log.Warn().Err(err).Msg("reverse geocoding failed, using bare coordinates")
		return loc, nil
	}
	loc.City = place.City
	loc.Country = place.Country
	return loc, nil
}

func (r *Resolver) acquire(ctx context.Context) (Position, error) {
	if r.Locator == nil {
		return Position{}, fmt.Errorf("%w: no locator configured", ErrUnavailable)
	}

	acquireCtx := ctx
	if r.Options.Timeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, r.Options.Timeout)
		defer cancel()
	}

	type result struct {
		pos Position
		err error
	}
	done := make(chan result, 1)
	go func() {
		pos, err := r.Locator.CurrentPosition(acquireCtx, r.Options)
		done <- result{pos, err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return Position{}, classify(res.err)
		}
		return res.pos, nil
	case <-acquireCtx.Done():
		if errors.Is(ctx.Err(), context.Canceled) {
			return Position{}, ctx.Err()
		}
		return Position{}, fmt.Errorf("%w: %w", ErrTimeout, acquireCtx.Err())
	}
}

// classify maps a Locator error onto the package taxonomy.
func classify(err error) error {
	switch {
	case errors.Is(err, ErrPermissionDenied), errors.Is(err, ErrUnavailable), errors.Is(err, ErrTimeout):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	default:
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
}
