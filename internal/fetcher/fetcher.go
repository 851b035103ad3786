package fetcher

import (
	"context"

	"live-dashboard/internal/models"
)

// PriceFetcher retrieves the current coin price table.
type PriceFetcher interface {
	URL() string
	Currency() string
	FetchPrices(ctx context.Context) Outcome[models.PriceTable]
}

// WeatherFetcher retrieves the current weather observation.
type WeatherFetcher interface {
	URL() string
	FetchObservation(ctx context.Context) Outcome[models.WeatherObservation]
}

var (
	_ PriceFetcher   = (*PriceSource)(nil)
	_ WeatherFetcher = (*WeatherSource)(nil)
)
