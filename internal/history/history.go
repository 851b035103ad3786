// Package history accumulates weather observations for one session.
package history

import (
	"sort"
	"sync"

	"live-dashboard/internal/models"
)

// Weather is an append-only series of observations, unique by timestamp
// and ordered ascending. It grows without bound for the life of a session.
type Weather struct {
	mu           sync.RWMutex
	observations []models.WeatherObservation
}

// NewWeather returns an empty history.
func NewWeather() *Weather {
	return &Weather{}
}

// Append adds obs unless an entry with an equal timestamp already exists.
// It reports whether the history grew.
func (h *Weather) Append(obs models.WeatherObservation) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	idx := sort.Search(len(h.observations), func(i int) bool {
		return !h.observations[i].Timestamp.Before(obs.Timestamp)
	})
	if idx < len(h.observations) && h.observations[idx].Timestamp.Equal(obs.Timestamp) {
		return false
	}

	h.observations = append(h.observations, models.WeatherObservation{})
	copy(h.observations[idx+1:], h.observations[idx:])
	h.observations[idx] = obs
	return true
}

// Latest returns the most recent observation, if any.
func (h *Weather) Latest() (models.WeatherObservation, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.observations) == 0 {
		return models.WeatherObservation{}, false
	}
	return h.observations[len(h.observations)-1], true
}

// All returns a copy of the series for charting.
func (h *Weather) All() []models.WeatherObservation {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]models.WeatherObservation, len(h.observations))
	copy(out, h.observations)
	return out
}

// Len is the number of stored observations.
func (h *Weather) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.observations)
}

// Reset discards every observation; called when the session ends.
func (h *Weather) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.observations = nil
}
