// Package fallback decides what a page shows when its fetch fails.
package fallback

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"live-dashboard/internal/alerting"
	"live-dashboard/internal/fetcher"
	"live-dashboard/internal/models"
)

const (
	sampleNotice  = "Showing sample data so the demo continues."
	historyNotice = "Showing last known data."
)

// Resolution is the value a page renders, plus how it was obtained.
type Resolution[T any] struct {
	Value    T
	Fallback bool
	// Warning is the user-facing message; empty when live data was used.
	Warning string
}

// LatestObservation is an optional weather reading.
type LatestObservation struct {
	Observation models.WeatherObservation
	Found       bool
}

// LatestReader exposes the newest entry of a session history.
type LatestReader interface {
	Latest() (models.WeatherObservation, bool)
}

// Resolver substitutes safe values for failed outcomes and raises warnings.
type Resolver struct {
	sessionID string
	notifier  alerting.Notifier
	now       func() time.Time
	logger    zerolog.Logger
}

// NewResolver constructs a resolver. A nil notifier only skips the warning dispatch.
func NewResolver(sessionID string, notifier alerting.Notifier, logger zerolog.Logger) *Resolver {
	return &Resolver{
		sessionID: sessionID,
		notifier:  notifier,
		now:       time.Now,
		logger:    logger.With().Str("component", "fallback").Logger(),
	}
}

// Prices returns the live table, or a fresh copy of sample on failure.
func (r *Resolver) Prices(ctx context.Context, out fetcher.Outcome[models.PriceTable], sample models.PriceTable) Resolution[models.PriceTable] {
	if table, ok := out.Value(); ok {
		return Resolution[models.PriceTable]{Value: table}
	}
	warning := out.Reason() + "\n" + sampleNotice
	r.warn(ctx, "crypto", out.Reason(), warning)
	return Resolution[models.PriceTable]{Value: sample.Clone(), Fallback: true, Warning: warning}
}

// Weather returns the live reading, or the newest history entry on failure.
// An empty history yields a resolution with Found == false.
func (r *Resolver) Weather(ctx context.Context, out fetcher.Outcome[models.WeatherObservation], hist LatestReader) Resolution[LatestObservation] {
	if obs, ok := out.Value(); ok {
		return Resolution[LatestObservation]{Value: LatestObservation{Observation: obs, Found: true}}
	}

	warning := out.Reason() + "\n" + historyNotice
	r.warn(ctx, "weather", out.Reason(), warning)

	var latest LatestObservation
	if hist != nil {
		latest.Observation, latest.Found = hist.Latest()
	}
	return Resolution[LatestObservation]{Value: latest, Fallback: true, Warning: warning}
}

func (r *Resolver) warn(ctx context.Context, page, reason, message string) {
	if r.notifier == nil {
		return
	}
	note := alerting.Notification{
		Page:      page,
		SessionID: r.sessionID,
		Reason:    reason,
		Message:   message,
		At:        r.now(),
	}
	if err := r.notifier.Notify(ctx, note); err != nil {
		r.logger.Error().Err(err).Str("page", page).Msg("failed to dispatch fallback warning")
	}
}
