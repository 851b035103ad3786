package app

import (
	"context"
	"errors"
	"fmt"

	"live-dashboard/internal/fetcher"
	"live-dashboard/internal/models"
	"live-dashboard/internal/render"
)

// SimulateOptions configure the simulate-fallback command.
type SimulateOptions struct {
	Page   string
	Reason string
	// RateLimited simulates a 429 carrying RetryAfter instead of a network failure.
	RateLimited bool
	RetryAfter  string
}

// SimulateFallback runs one cycle of a page against a source that always
// fails, exercising the fallback and warning path end to end.
func (a *App) SimulateFallback(ctx context.Context, opts SimulateOptions) error {
	reason := opts.Reason
	if reason == "" {
		reason = "simulated outage"
	}
	var cause error = &fetcher.NetworkError{URL: "simulated://" + opts.Page, Err: errors.New(reason)}
	if opts.RateLimited {
		cause = &fetcher.RateLimitedError{
			HTTPError:  fetcher.HTTPError{URL: "simulated://" + opts.Page, StatusCode: 429},
			RetryAfter: opts.RetryAfter,
		}
	}

	sess, err := a.newSession(false, 0)
	if err != nil {
		return err
	}
	defer sess.Close()

	src := sources{
		prices:  &failingPrices{currency: a.Config.Crypto.Currency, reason: fetcher.Reason("Network/HTTP", cause)},
		weather: &failingWeather{reason: fetcher.Reason("Weather API", cause)},
	}
	p, err := a.newPages(ctx, sess, src)
	if err != nil {
		return err
	}
	defer p.close()

	switch opts.Page {
	case "crypto":
		return render.CryptoView(a.Out, p.crypto.Cycle(ctx))
	case "weather":
		return render.WeatherView(a.Out, p.weather.Cycle(ctx))
	default:
		return fmt.Errorf("unknown page %q (want crypto or weather)", opts.Page)
	}
}

type failingPrices struct {
	currency string
	reason   string
}

func (f *failingPrices) URL() string      { return "simulated://prices" }
func (f *failingPrices) Currency() string { return f.currency }

func (f *failingPrices) FetchPrices(context.Context) fetcher.Outcome[models.PriceTable] {
	return fetcher.Failure[models.PriceTable](f.reason)
}

type failingWeather struct {
	reason string
}

func (f *failingWeather) URL() string { return "simulated://weather" }

func (f *failingWeather) FetchObservation(context.Context) fetcher.Outcome[models.WeatherObservation] {
	return fetcher.Failure[models.WeatherObservation](f.reason)
}

var (
	_ fetcher.PriceFetcher   = (*failingPrices)(nil)
	_ fetcher.WeatherFetcher = (*failingWeather)(nil)
)
