package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type countingPage struct {
	mu          sync.Mutex
	events      []string
	renderErr   error
	afterRender func(n int)
}

func (p *countingPage) Render(context.Context) error {
	p.mu.Lock()
	p.events = append(p.events, "render")
	n := p.count("render")
	hook := p.afterRender
	p.mu.Unlock()
	if hook != nil {
		hook(n)
	}
	return p.renderErr
}

func (p *countingPage) Invalidate(context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, "invalidate")
}

func (p *countingPage) count(kind string) int {
	n := 0
	for _, e := range p.events {
		if e == kind {
			n++
		}
	}
	return n
}

func (p *countingPage) snapshot() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

func mustControls(t *testing.T, enabled bool, d time.Duration) *Controls {
	t.Helper()
	c, err := NewControls(enabled, d)
	if err != nil {
		t.Fatalf("controls: %v", err)
	}
	return c
}

func TestControlsIntervalBounds(t *testing.T) {
	if _, err := NewControls(false, 5*time.Second); err == nil {
		t.Fatal("5s should be rejected")
	}
	c := mustControls(t, false, MinInterval)
	if err := c.SetInterval(121 * time.Second); err == nil {
		t.Fatal("121s should be rejected")
	}
	if c.Interval() != MinInterval {
		t.Fatalf("rejected interval must not be applied, got %s", c.Interval())
	}
	if err := c.SetInterval(MaxInterval); err != nil {
		t.Fatalf("120s is in range: %v", err)
	}
}

func TestWaitEnabledWakesOnToggle(t *testing.T) {
	c := mustControls(t, false, DefaultInterval)
	done := make(chan error, 1)
	go func() { done <- c.WaitEnabled(context.Background()) }()

	time.Sleep(10 * time.Millisecond)
	c.SetEnabled(true)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("WaitEnabled did not wake")
	}
}

func TestWaitEnabledHonoursContext(t *testing.T) {
	c := mustControls(t, false, DefaultInterval)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.WaitEnabled(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRunToggleOffRendersOnce(t *testing.T) {
	c := mustControls(t, false, DefaultInterval)
	slept := 0
	d := New(c, Options{ExitWhenIdle: true, Sleep: func(context.Context, time.Duration) error {
		slept++
		return nil
	}}, zerolog.Nop())

	page := &countingPage{}
	if err := d.Run(context.Background(), page); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := page.snapshot(); len(got) != 1 || got[0] != "render" {
		t.Fatalf("expected a single render, got %v", got)
	}
	if slept != 0 {
		t.Fatal("idle driver must not sleep")
	}
	if d.State() != Idle {
		t.Fatalf("expected idle, got %s", d.State())
	}
}

func TestRunAutoRefreshSleepsInvalidatesAndRenders(t *testing.T) {
	c := mustControls(t, true, 15*time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var durations []time.Duration
	sleep := func(ctx context.Context, dur time.Duration) error {
		durations = append(durations, dur)
		if len(durations) == 3 {
			cancel()
			return ctx.Err()
		}
		return nil
	}
	d := New(c, Options{Sleep: sleep}, zerolog.Nop())
	page := &countingPage{renderErr: errors.New("render failed")}

	err := d.Run(ctx, page)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	want := []string{"render", "invalidate", "render", "invalidate", "render"}
	got := page.snapshot()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	for _, dur := range durations {
		if dur != 15*time.Second {
			t.Fatalf("unexpected sleep duration %s", dur)
		}
	}
	if d.State() != AutoRefreshing {
		t.Fatalf("expected auto_refreshing, got %s", d.State())
	}
	if d.Cycles() != 3 {
		t.Fatalf("expected 3 cycles, got %d", d.Cycles())
	}
}

func TestRunPicksUpIntervalChange(t *testing.T) {
	c := mustControls(t, true, 30*time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var durations []time.Duration
	sleep := func(ctx context.Context, dur time.Duration) error {
		durations = append(durations, dur)
		if len(durations) == 1 {
			if err := c.SetInterval(60 * time.Second); err != nil {
				t.Errorf("set interval: %v", err)
			}
			return nil
		}
		cancel()
		return ctx.Err()
	}
	d := New(c, Options{Sleep: sleep}, zerolog.Nop())
	_ = d.Run(ctx, &countingPage{})

	if len(durations) != 2 || durations[0] != 30*time.Second || durations[1] != 60*time.Second {
		t.Fatalf("unexpected durations %v", durations)
	}
}

func TestRunToggleOffMidLoopStopsAfterCurrentCycle(t *testing.T) {
	c := mustControls(t, true, 10*time.Second)
	page := &countingPage{}
	page.afterRender = func(n int) {
		if n == 2 {
			c.SetEnabled(false)
		}
	}
	d := New(c, Options{ExitWhenIdle: true, Sleep: func(context.Context, time.Duration) error { return nil }}, zerolog.Nop())

	if err := d.Run(context.Background(), page); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := page.snapshot(); len(got) != 3 {
		t.Fatalf("expected render, invalidate, render; got %v", got)
	}
}

func TestRunWaitsWhileIdleWithoutExit(t *testing.T) {
	c := mustControls(t, false, 10*time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rendered := make(chan int, 4)
	page := &countingPage{afterRender: func(n int) { rendered <- n }}
	d := New(c, Options{Sleep: func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}}, zerolog.Nop())

	done := make(chan error, 1)
	go func() { done <- d.Run(ctx, page) }()

	<-rendered
	select {
	case <-rendered:
		t.Fatal("idle driver must not render again before the toggle flips")
	case <-time.After(20 * time.Millisecond):
	}

	c.SetEnabled(true)
	select {
	case n := <-rendered:
		if n != 2 {
			t.Fatalf("expected second render, got %d", n)
		}
	case <-time.After(time.Second):
		t.Fatal("driver did not resume after enabling")
	}

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if got := page.snapshot(); got[1] != "render" {
		t.Fatalf("resume after idle must not invalidate, got %v", got)
	}
}

func TestSleepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
