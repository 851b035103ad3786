package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// State is the driver's position in the refresh loop.
type State int32

const (
	Idle State = iota
	AutoRefreshing
)

func (s State) String() string {
	if s == AutoRefreshing {
		return "auto_refreshing"
	}
	return "idle"
}

// Page is one refreshable view.
type Page interface {
	// Render runs a single pipeline cycle and presents the result.
	Render(ctx context.Context) error
	// Invalidate drops the page's cached entry so the next Render refetches.
	Invalidate(ctx context.Context)
}

// PageFuncs adapts a pair of functions to Page.
type PageFuncs struct {
	RenderFunc     func(ctx context.Context) error
	InvalidateFunc func(ctx context.Context)
}

func (p PageFuncs) Render(ctx context.Context) error {
	if p.RenderFunc == nil {
		return nil
	}
	return p.RenderFunc(ctx)
}

func (p PageFuncs) Invalidate(ctx context.Context) {
	if p.InvalidateFunc != nil {
		p.InvalidateFunc(ctx)
	}
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Options tune driver behaviour.
type Options struct {
	Name string
	// ExitWhenIdle returns from Run after the first cycle rendered with the
	// toggle off instead of waiting for it to be switched on.
	ExitWhenIdle bool
	Sleep        SleepFunc
}

// Driver runs the render, sleep, invalidate loop for one page.
type Driver struct {
	opts     Options
	controls *Controls
	state    atomic.Int32
	cycles   atomic.Int64
	logger   zerolog.Logger
}

// New constructs a Driver bound to controls.
func New(controls *Controls, opts Options, logger zerolog.Logger) *Driver {
	if controls == nil {
		panic("scheduler controls must not be nil")
	}
	if opts.Sleep == nil {
		opts.Sleep = Sleep
	}
	l := logger.With().Str("component", "scheduler")
	if opts.Name != "" {
		l = l.Str("page", opts.Name)
	}
	return &Driver{opts: opts, controls: controls, logger: l.Logger()}
}

// State reports the current loop state.
func (d *Driver) State() State {
	return State(d.state.Load())
}

// Cycles reports how many renders have been attempted.
func (d *Driver) Cycles() int64 {
	return d.cycles.Load()
}

// Run blocks, rendering page until ctx is cancelled. With ExitWhenIdle set it
// also returns nil once a cycle completes with auto-refresh off.
func (d *Driver) Run(ctx context.Context, page Page) error {
	invalidate := false
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if invalidate {
			page.Invalidate(ctx)
		}

		d.cycles.Add(1)
		if err := page.Render(ctx); err != nil {
			d.logger.Error().Err(err).Msg("render cycle failed")
		}

		if !d.controls.Enabled() {
			d.state.Store(int32(Idle))
			if d.opts.ExitWhenIdle {
				return nil
			}
			d.logger.Debug().Msg("auto-refresh off, waiting")
			if err := d.controls.WaitEnabled(ctx); err != nil {
				return err
			}
			invalidate = false
			continue
		}

		d.state.Store(int32(AutoRefreshing))
		interval := d.controls.Interval()
		d.logger.Debug().Dur("interval", interval).Msg("sleeping until next refresh")
		if err := d.opts.Sleep(ctx, interval); err != nil {
			return err
		}
		invalidate = true
	}
}

// Sleep is the default SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
