package server

import (
	"time"

	"live-dashboard/internal/models"
	"live-dashboard/internal/service"
)

type cryptoResponse struct {
	Currency    string     `json:"currency"`
	Columns     []string   `json:"columns"`
	Rows        [][]string `json:"rows"`
	Fallback    bool       `json:"fallback"`
	Warning     string     `json:"warning,omitempty"`
	RefreshedAt time.Time  `json:"refreshed_at"`
}

func newCryptoResponse(view service.CryptoView) cryptoResponse {
	return cryptoResponse{
		Currency:    view.Table.Currency,
		Columns:     view.Table.Columns(),
		Rows:        view.Table.Rows(),
		Fallback:    view.Fallback,
		Warning:     view.Warning,
		RefreshedAt: view.RefreshedAt,
	}
}

type weatherResponse struct {
	// Latest is null when neither a live nor a historical reading exists.
	Latest      *models.WeatherObservation  `json:"latest"`
	History     []models.WeatherObservation `json:"history"`
	Fallback    bool                        `json:"fallback"`
	Warning     string                      `json:"warning,omitempty"`
	RefreshedAt time.Time                   `json:"refreshed_at"`
}

func newWeatherResponse(view service.WeatherView) weatherResponse {
	resp := weatherResponse{
		History:     view.History,
		Fallback:    view.Fallback,
		Warning:     view.Warning,
		RefreshedAt: view.RefreshedAt,
	}
	if resp.History == nil {
		resp.History = []models.WeatherObservation{}
	}
	if view.Found {
		latest := view.Latest
		resp.Latest = &latest
	}
	return resp
}
