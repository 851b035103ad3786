package cli

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
)

var validate = validator.New()

// refreshFlags are the auto-refresh toggle and interval shared by the page commands.
type refreshFlags struct {
	AutoRefresh bool
	Interval    time.Duration
}

type refreshInput struct {
	IntervalSeconds int `validate:"min=10,max=120"`
}

func (f *refreshFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.AutoRefresh, "auto-refresh", false, "Keep re-rendering the page until interrupted")
	cmd.Flags().DurationVar(&f.Interval, "refresh", 0, "Auto-refresh interval, 10s..120s (default from config)")
}

// resolve validates the interval flag; zero keeps the configured default.
func (f *refreshFlags) resolve() (time.Duration, error) {
	if f.Interval == 0 {
		return 0, nil
	}
	if f.Interval%time.Second != 0 {
		return 0, fmt.Errorf("--refresh must be a whole number of seconds, got %s", f.Interval)
	}
	in := refreshInput{IntervalSeconds: int(f.Interval / time.Second)}
	if err := validate.Struct(in); err != nil {
		return 0, fmt.Errorf("--refresh must be between 10s and 120s, got %s", f.Interval)
	}
	return f.Interval, nil
}
