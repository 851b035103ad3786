// Package session owns the state that lives for one dashboard session.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"live-dashboard/internal/history"
	"live-dashboard/internal/scheduler"
)

// RefreshOptions seed the auto-refresh controls of one page.
type RefreshOptions struct {
	Enabled  bool
	Interval time.Duration
}

// Options configure a new session.
type Options struct {
	Crypto  RefreshOptions
	Weather RefreshOptions
	Now     func() time.Time
}

// Session is the explicit owner of weather history and refresh controls.
type Session struct {
	ID        uuid.UUID
	StartedAt time.Time

	Weather        *history.Weather
	CryptoRefresh  *scheduler.Controls
	WeatherRefresh *scheduler.Controls

	closeOnce sync.Once
	logger    zerolog.Logger
}

// New starts a session with an empty history.
func New(opts Options, logger zerolog.Logger) (*Session, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	crypto, err := scheduler.NewControls(opts.Crypto.Enabled, orDefault(opts.Crypto.Interval))
	if err != nil {
		return nil, fmt.Errorf("crypto refresh: %w", err)
	}
	weather, err := scheduler.NewControls(opts.Weather.Enabled, orDefault(opts.Weather.Interval))
	if err != nil {
		return nil, fmt.Errorf("weather refresh: %w", err)
	}

	id := uuid.New()
	s := &Session{
		ID:             id,
		StartedAt:      now().UTC(),
		Weather:        history.NewWeather(),
		CryptoRefresh:  crypto,
		WeatherRefresh: weather,
		logger:         logger.With().Str("component", "session").Str("session_id", id.String()).Logger(),
	}
	s.logger.Info().Time("started_at", s.StartedAt).Msg("session started")
	return s, nil
}

// Logger returns a logger tagged with the session id.
func (s *Session) Logger() zerolog.Logger {
	return s.logger
}

// Refresh returns the controls for page, or nil if the page is unknown.
func (s *Session) Refresh(page string) *scheduler.Controls {
	switch page {
	case "crypto":
		return s.CryptoRefresh
	case "weather":
		return s.WeatherRefresh
	default:
		return nil
	}
}

// Close discards the history and switches auto-refresh off. Safe to call twice.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		entries := s.Weather.Len()
		s.Weather.Reset()
		s.CryptoRefresh.SetEnabled(false)
		s.WeatherRefresh.SetEnabled(false)
		s.logger.Info().Int("discarded_observations", entries).Msg("session closed")
	})
}

func orDefault(d time.Duration) time.Duration {
	if d == 0 {
		return scheduler.DefaultInterval
	}
	return d
}
