package app

import (
	"context"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"live-dashboard/internal/scheduler"
	"live-dashboard/internal/server"
)

// Serve hosts one session over HTTP and keeps both pages refreshing in the background.
func (a *App) Serve(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sess, err := a.newSession(a.Config.Refresh.Enabled, a.Config.Refresh.Interval)
	if err != nil {
		return err
	}
	defer sess.Close()

	p, err := a.newPages(ctx, sess, a.newSources(a.Config))
	if err != nil {
		return err
	}
	defer p.close()

	logger := sess.Logger()
	srv := server.New(sess, p.crypto, p.weather, server.Options{
		Addr:         a.Config.Server.Addr,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		Chart:        a.chartOptions(),
	}, logger)

	cryptoDriver := scheduler.New(sess.CryptoRefresh, scheduler.Options{Name: "crypto"}, logger)
	weatherDriver := scheduler.New(sess.WeatherRefresh, scheduler.Options{Name: "weather"}, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ignoreCanceled(srv.Run(gctx))
	})
	g.Go(func() error {
		return ignoreCanceled(cryptoDriver.Run(gctx, scheduler.PageFuncs{
			RenderFunc: func(ctx context.Context) error {
				p.crypto.Cycle(ctx)
				return nil
			},
			InvalidateFunc: p.crypto.Invalidate,
		}))
	})
	g.Go(func() error {
		return ignoreCanceled(weatherDriver.Run(gctx, scheduler.PageFuncs{
			RenderFunc: func(ctx context.Context) error {
				p.weather.Cycle(ctx)
				return nil
			},
			InvalidateFunc: p.weather.Invalidate,
		}))
	})

	a.Logger.Info().Str("session_id", sess.ID.String()).Str("addr", a.Config.Server.Addr).Msg("dashboard server started")
	if err := g.Wait(); err != nil {
		a.Logger.Error().Err(err).Msg("dashboard server terminated with error")
		return err
	}
	a.Logger.Info().Msg("dashboard server stopped")
	return nil
}
