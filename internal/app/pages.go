package app

import (
	"context"
	"errors"
	"io"
	"os/signal"
	"syscall"
	"time"

	"live-dashboard/internal/render"
	"live-dashboard/internal/scheduler"
)

// CryptoOptions configure the crypto command.
type CryptoOptions struct {
	Coins       []string
	Currency    string
	AutoRefresh bool
	Interval    time.Duration
	ChartPath   string
}

// WeatherOptions configure the weather command.
type WeatherOptions struct {
	Latitude    *float64
	Longitude   *float64
	AutoRefresh bool
	Interval    time.Duration
	ChartPath   string
	CSVPath     string
}

// RunCrypto renders the crypto page once, or keeps refreshing it until interrupted.
func (a *App) RunCrypto(ctx context.Context, opts CryptoOptions) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := *a.Config
	if len(opts.Coins) > 0 {
		cfg.Crypto.Coins = opts.Coins
	}
	if opts.Currency != "" {
		cfg.Crypto.Currency = opts.Currency
	}

	sess, err := a.newSession(opts.AutoRefresh, opts.Interval)
	if err != nil {
		return err
	}
	defer sess.Close()

	p, err := a.newPages(ctx, sess, a.newSources(&cfg))
	if err != nil {
		return err
	}
	defer p.close()

	chart := a.chartOptions()
	page := scheduler.PageFuncs{
		RenderFunc: func(ctx context.Context) error {
			view := p.crypto.Cycle(ctx)
			if err := render.CryptoView(a.Out, view); err != nil {
				return err
			}
			if opts.ChartPath == "" {
				return nil
			}
			return render.WriteFile(opts.ChartPath, func(w io.Writer) error {
				return render.PriceBarChart(w, view.Table, chart)
			})
		},
		InvalidateFunc: p.crypto.Invalidate,
	}

	driver := scheduler.New(sess.CryptoRefresh, scheduler.Options{Name: "crypto", ExitWhenIdle: true}, sess.Logger())
	return ignoreCanceled(driver.Run(ctx, page))
}

// RunWeather renders the weather page once, or keeps refreshing it until interrupted.
func (a *App) RunWeather(ctx context.Context, opts WeatherOptions) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := *a.Config
	if opts.Latitude != nil {
		cfg.Weather.Latitude = *opts.Latitude
	}
	if opts.Longitude != nil {
		cfg.Weather.Longitude = *opts.Longitude
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	sess, err := a.newSession(opts.AutoRefresh, opts.Interval)
	if err != nil {
		return err
	}
	defer sess.Close()

	p, err := a.newPages(ctx, sess, a.newSources(&cfg))
	if err != nil {
		return err
	}
	defer p.close()

	chart := a.chartOptions()
	logger := sess.Logger()
	page := scheduler.PageFuncs{
		RenderFunc: func(ctx context.Context) error {
			view := p.weather.Cycle(ctx)
			if err := render.WeatherView(a.Out, view); err != nil {
				return err
			}
			if opts.CSVPath != "" {
				if err := render.WriteFile(opts.CSVPath, func(w io.Writer) error {
					return render.WeatherCSV(w, view.History)
				}); err != nil {
					return err
				}
			}
			if opts.ChartPath != "" {
				err := render.WriteFile(opts.ChartPath, func(w io.Writer) error {
					return render.TemperatureChart(w, view.History, chart)
				})
				if errors.Is(err, render.ErrTooFewPoints) {
					logger.Debug().Int("history", len(view.History)).Msg("chart skipped until two readings exist")
					return nil
				}
				return err
			}
			return nil
		},
		InvalidateFunc: p.weather.Invalidate,
	}

	driver := scheduler.New(sess.WeatherRefresh, scheduler.Options{Name: "weather", ExitWhenIdle: true}, logger)
	return ignoreCanceled(driver.Run(ctx, page))
}
