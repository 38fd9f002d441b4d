package adhan

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// LogNotifier writes events to the log.
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier returns a LogNotifier.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: logger.With().Str("component", "adhan").Logger()}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(_ context.Context, ev Event) error {
	n.log.Info().
		Str("id", ev.ID).
		Str("prayer", ev.Prayer).
		Str("kind", ev.Kind).
		Bool("muted", ev.Muted).
		Time("adhan_time", ev.AdhanTime).
		Msg("adhan time")
	return nil
}

// MultiNotifier fans an event out to every notifier and joins their errors.
type MultiNotifier []Notifier

// Notify implements Notifier.
func (m MultiNotifier) Notify(ctx context.Context, ev Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
