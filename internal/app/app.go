package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"live-dashboard/internal/alerting"
	"live-dashboard/internal/cache"
	"live-dashboard/internal/config"
	"live-dashboard/internal/fallback"
	"live-dashboard/internal/fetcher"
	"live-dashboard/internal/models"
	"live-dashboard/internal/render"
	"live-dashboard/internal/service"
	"live-dashboard/internal/session"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	// Out receives the rendered pages.
	Out io.Writer
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger(), Out: os.Stdout}
}

// pages bundles both pipelines of one session.
type pages struct {
	crypto  *service.CryptoPage
	weather *service.WeatherPage
	close   func()
}

type sources struct {
	prices  fetcher.PriceFetcher
	weather fetcher.WeatherFetcher
}

func (a *App) newSession(autoRefresh bool, interval time.Duration) (*session.Session, error) {
	if interval == 0 {
		interval = a.Config.Refresh.Interval
	}
	refresh := session.RefreshOptions{Enabled: autoRefresh, Interval: interval}
	return session.New(session.Options{Crypto: refresh, Weather: refresh}, a.Logger)
}

func (a *App) newSources(cfg *config.Config) sources {
	breaker := fetcher.BreakerOptions{
		Enabled:          cfg.Breaker.Enabled,
		FailureThreshold: cfg.Breaker.FailureThreshold,
		OpenTimeout:      cfg.Breaker.OpenTimeout,
	}

	priceClient := fetcher.NewClient(fetcher.ClientOptions{
		Name:      "coingecko",
		Label:     "Network/HTTP",
		Timeout:   cfg.Crypto.RequestTimeout,
		UserAgent: cfg.Crypto.UserAgent,
		Accept:    "application/json",
		Breaker:   breaker,
	}, a.Logger)
	weatherClient := fetcher.NewClient(fetcher.ClientOptions{
		Name:      "open-meteo",
		Label:     "Weather API",
		Timeout:   cfg.Weather.RequestTimeout,
		UserAgent: cfg.Weather.UserAgent,
		Breaker:   breaker,
	}, a.Logger)

	return sources{
		prices: fetcher.NewPriceSource(fetcher.PriceOptions{
			BaseURL:  cfg.Crypto.BaseURL,
			Coins:    cfg.Crypto.Coins,
			Currency: cfg.Crypto.Currency,
		}, priceClient),
		weather: fetcher.NewWeatherSource(fetcher.WeatherOptions{
			BaseURL:       cfg.Weather.BaseURL,
			Latitude:      cfg.Weather.Latitude,
			Longitude:     cfg.Weather.Longitude,
			WindSpeedUnit: cfg.Weather.WindSpeedUnit,
		}, weatherClient),
	}
}

func (a *App) newNotifier(sess *session.Session) alerting.Notifier {
	notifiers := alerting.Multi{alerting.NewLogNotifier(sess.Logger())}
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		notifiers = append(notifiers, alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, cfg.Timeout, a.Logger))
	}
	return notifiers
}

func (a *App) newStores(ctx context.Context) (cache.Store[models.PriceTable], cache.Store[models.WeatherObservation], func(), error) {
	switch a.Config.Cache.Backend {
	case "redis":
		opts := a.Config.Cache.Redis
		client, err := cache.NewRedisClient(ctx, cache.RedisOptions{
			Addr:        opts.Addr,
			Password:    opts.Password,
			DB:          opts.DB,
			Prefix:      opts.Prefix,
			DialTimeout: opts.DialTimeout,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		a.Logger.Info().Str("addr", opts.Addr).Msg("using redis cache backend")
		closer := func() {
			if err := client.Close(); err != nil {
				a.Logger.Warn().Err(err).Msg("close redis client")
			}
		}
		return cache.NewRedisStore[models.PriceTable](client, opts.Prefix),
			cache.NewRedisStore[models.WeatherObservation](client, opts.Prefix),
			closer, nil
	default:
		return cache.NewMemoryStore[models.PriceTable](), cache.NewMemoryStore[models.WeatherObservation](), func() {}, nil
	}
}

func (a *App) newPages(ctx context.Context, sess *session.Session, src sources) (*pages, error) {
	cryptoStore, weatherStore, closeStores, err := a.newStores(ctx)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	logger := sess.Logger()
	resolver := fallback.NewResolver(sess.ID.String(), a.newNotifier(sess), logger)

	crypto := service.NewCryptoPage(
		src.prices,
		cache.New(cryptoStore, cache.Options{Name: "crypto"}, logger),
		resolver,
		service.PageOptions{TTL: a.Config.Crypto.CacheTTL},
		logger,
	)
	weather := service.NewWeatherPage(
		src.weather,
		cache.New(weatherStore, cache.Options{Name: "weather"}, logger),
		sess.Weather,
		resolver,
		service.PageOptions{TTL: a.Config.Weather.CacheTTL},
		logger,
	)
	return &pages{crypto: crypto, weather: weather, close: closeStores}, nil
}

func (a *App) chartOptions() render.ChartOptions {
	w, h := a.Config.ChartSize()
	return render.ChartOptions{Width: w, Height: h}
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
