package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Refresh interval bounds accepted by Controls.
const (
	MinInterval     = 10 * time.Second
	MaxInterval     = 120 * time.Second
	DefaultInterval = 30 * time.Second
)

// Controls holds the per-page auto-refresh toggle and interval.
type Controls struct {
	mu       sync.Mutex
	enabled  bool
	interval time.Duration
	wake     chan struct{}
}

// NewControls constructs controls. An out-of-range interval is rejected.
func NewControls(enabled bool, interval time.Duration) (*Controls, error) {
	if err := ValidateInterval(interval); err != nil {
		return nil, err
	}
	return &Controls{enabled: enabled, interval: interval, wake: make(chan struct{})}, nil
}

// ValidateInterval reports whether d lies within [MinInterval, MaxInterval].
func ValidateInterval(d time.Duration) error {
	if d < MinInterval || d > MaxInterval {
		return fmt.Errorf("refresh interval %s outside %s..%s", d, MinInterval, MaxInterval)
	}
	return nil
}

// Enabled reports the toggle state.
func (c *Controls) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// Interval returns the current refresh interval.
func (c *Controls) Interval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interval
}

// SetEnabled flips the toggle; switching it on wakes any WaitEnabled callers.
func (c *Controls) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if enabled && !c.enabled {
		close(c.wake)
		c.wake = make(chan struct{})
	}
	c.enabled = enabled
}

// SetInterval updates the interval. The next sleep picks it up.
func (c *Controls) SetInterval(d time.Duration) error {
	if err := ValidateInterval(d); err != nil {
		return err
	}
	c.mu.Lock()
	c.interval = d
	c.mu.Unlock()
	return nil
}

// WaitEnabled blocks until the toggle is on or ctx is done.
func (c *Controls) WaitEnabled(ctx context.Context) error {
	for {
		c.mu.Lock()
		if c.enabled {
			c.mu.Unlock()
			return nil
		}
		wake := c.wake
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-wake:
		}
	}
}
