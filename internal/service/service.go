package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"live-dashboard/internal/cache"
	"live-dashboard/internal/fallback"
	"live-dashboard/internal/fetcher"
	"live-dashboard/internal/history"
	"live-dashboard/internal/models"
)

// CryptoView is everything the crypto page renders for one cycle.
type CryptoView struct {
	Table       models.PriceTable
	Fallback    bool
	Warning     string
	RefreshedAt time.Time
}

// WeatherView is everything the weather page renders for one cycle.
type WeatherView struct {
	Latest models.WeatherObservation
	// Found is false when no live or historical reading exists yet.
	Found       bool
	History     []models.WeatherObservation
	Fallback    bool
	Warning     string
	RefreshedAt time.Time
}

// PageOptions tune a page pipeline.
type PageOptions struct {
	TTL time.Duration
	Now func() time.Time
}

// CryptoPage runs the price pipeline: cache, fetch, fallback.
type CryptoPage struct {
	source   fetcher.PriceFetcher
	cache    *cache.Cache[models.PriceTable]
	resolver *fallback.Resolver
	sample   models.PriceTable
	ttl      time.Duration
	now      func() time.Time
	logger   zerolog.Logger
}

// NewCryptoPage wires the crypto pipeline.
func NewCryptoPage(source fetcher.PriceFetcher, c *cache.Cache[models.PriceTable], resolver *fallback.Resolver, opts PageOptions, logger zerolog.Logger) *CryptoPage {
	return &CryptoPage{
		source:   source,
		cache:    c,
		resolver: resolver,
		sample:   models.SampleTable(source.Currency()),
		ttl:      opts.TTL,
		now:      nowFunc(opts.Now),
		logger:   logger.With().Str("component", "service").Str("page", "crypto").Logger(),
	}
}

// Cycle produces one renderable view. It never fails.
func (p *CryptoPage) Cycle(ctx context.Context) CryptoView {
	out := p.cache.GetOrFetch(ctx, p.source.URL(), p.ttl, p.source.FetchPrices)
	res := p.resolver.Prices(ctx, out, p.sample)

	view := CryptoView{
		Table:       res.Value,
		Fallback:    res.Fallback,
		Warning:     res.Warning,
		RefreshedAt: p.now(),
	}
	p.logger.Debug().Bool("fallback", view.Fallback).Int("rows", len(view.Table.Quotes)).Msg("cycle complete")
	return view
}

// Invalidate forces the next cycle to refetch.
func (p *CryptoPage) Invalidate(ctx context.Context) {
	p.cache.Invalidate(ctx, p.source.URL())
}

// WeatherPage runs the weather pipeline: cache, fetch, history, fallback.
type WeatherPage struct {
	source   fetcher.WeatherFetcher
	cache    *cache.Cache[models.WeatherObservation]
	history  *history.Weather
	resolver *fallback.Resolver
	ttl      time.Duration
	now      func() time.Time
	logger   zerolog.Logger
}

// NewWeatherPage wires the weather pipeline onto a session history.
func NewWeatherPage(source fetcher.WeatherFetcher, c *cache.Cache[models.WeatherObservation], hist *history.Weather, resolver *fallback.Resolver, opts PageOptions, logger zerolog.Logger) *WeatherPage {
	return &WeatherPage{
		source:   source,
		cache:    c,
		history:  hist,
		resolver: resolver,
		ttl:      opts.TTL,
		now:      nowFunc(opts.Now),
		logger:   logger.With().Str("component", "service").Str("page", "weather").Logger(),
	}
}

// Cycle produces one renderable view. It never fails.
func (p *WeatherPage) Cycle(ctx context.Context) WeatherView {
	out := p.cache.GetOrFetch(ctx, p.source.URL(), p.ttl, p.source.FetchObservation)
	res := p.resolver.Weather(ctx, out, p.history)

	if !res.Fallback {
		if p.history.Append(res.Value.Observation) {
			p.logger.Debug().Time("observed_at", res.Value.Observation.Timestamp).Int("history", p.history.Len()).Msg("observation recorded")
		}
	}

	return WeatherView{
		Latest:      res.Value.Observation,
		Found:       res.Value.Found,
		History:     p.history.All(),
		Fallback:    res.Fallback,
		Warning:     res.Warning,
		RefreshedAt: p.now(),
	}
}

// Invalidate forces the next cycle to refetch.
func (p *WeatherPage) Invalidate(ctx context.Context) {
	p.cache.Invalidate(ctx, p.source.URL())
}

// History exposes the session history backing the page.
func (p *WeatherPage) History() *history.Weather {
	return p.history
}

func nowFunc(now func() time.Time) func() time.Time {
	if now == nil {
		return time.Now
	}
	return now
}
