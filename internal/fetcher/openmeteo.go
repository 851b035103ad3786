package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"live-dashboard/internal/models"
)

const (
	defaultOpenMeteoBase = "https://api.open-meteo.com/v1"
	openMeteoTimeLayout  = "2006-01-02T15:04"
)

// WeatherOptions parameterise the Open-Meteo current-conditions source.
type WeatherOptions struct {
	BaseURL   string
	Latitude  float64
	Longitude float64
	// WindSpeedUnit is passed as wind_speed_unit when set ("ms" for m/s).
	WindSpeedUnit string
}

// WeatherSource fetches current conditions from Open-Meteo.
type WeatherSource struct {
	opts   WeatherOptions
	client *Client
}

// NewWeatherSource builds a weather source on top of client.
func NewWeatherSource(opts WeatherOptions, client *Client) *WeatherSource {
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.BaseURL == "" {
		opts.BaseURL = defaultOpenMeteoBase
	}
	return &WeatherSource{opts: opts, client: client}
}

// URL is the full request URL; it doubles as the cache key.
func (s *WeatherSource) URL() string {
	return BuildWeatherURL(s.opts.BaseURL, s.opts.Latitude, s.opts.Longitude, s.opts.WindSpeedUnit)
}

// FetchObservation performs one request and decodes the current reading.
func (s *WeatherSource) FetchObservation(ctx context.Context) Outcome[models.WeatherObservation] {
	raw := s.client.Fetch(ctx, s.URL())
	return Map(raw, func(payload json.RawMessage) (models.WeatherObservation, error) {
		return DecodeObservation(payload)
	}, Reasoner(s.client.opts.Label))
}

// BuildWeatherURL renders the forecast endpoint asking for current conditions.
func BuildWeatherURL(base string, lat, lon float64, windUnit string) string {
	u := fmt.Sprintf("%s/forecast?latitude=%s&longitude=%s&current=temperature_2m,wind_speed_10m",
		base,
		strconv.FormatFloat(lat, 'f', -1, 64),
		strconv.FormatFloat(lon, 'f', -1, 64),
	)
	if windUnit != "" {
		u += "&wind_speed_unit=" + windUnit
	}
	return u
}

type openMeteoResponse struct {
	Current *struct {
		Time        string   `json:"time"`
		Temperature *float64 `json:"temperature_2m"`
		WindSpeed   *float64 `json:"wind_speed_10m"`
	} `json:"current"`
}

// DecodeObservation reads the "current" block of an Open-Meteo response.
func DecodeObservation(payload []byte) (models.WeatherObservation, error) {
	var body openMeteoResponse
	if err := json.Unmarshal(payload, &body); err != nil {
		return models.WeatherObservation{}, &ParseError{Err: err}
	}
	if body.Current == nil {
		return models.WeatherObservation{}, &ParseError{Err: errors.New("missing current block")}
	}
	if body.Current.Temperature == nil || body.Current.WindSpeed == nil {
		return models.WeatherObservation{}, &ParseError{Err: errors.New("missing temperature_2m or wind_speed_10m")}
	}

	ts, err := parseOpenMeteoTime(body.Current.Time)
	if err != nil {
		return models.WeatherObservation{}, &ParseError{Err: err}
	}

	return models.WeatherObservation{
		Timestamp:   ts,
		Temperature: *body.Current.Temperature,
		WindSpeed:   *body.Current.WindSpeed,
	}, nil
}

func parseOpenMeteoTime(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, errors.New("missing current.time")
	}
	if ts, err := time.Parse(openMeteoTimeLayout, v); err == nil {
		return ts.UTC(), nil
	}
	ts, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid current.time %q", v)
	}
	return ts.UTC(), nil
}
