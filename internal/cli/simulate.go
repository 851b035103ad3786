package cli

import (
	"github.com/spf13/cobra"

	"live-dashboard/internal/app"
)

var simulateOpts app.SimulateOptions

var simulateCmd = &cobra.Command{
	Use:   "simulate-fallback",
	Short: "Run one page cycle against a failing source to exercise the fallback warning",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().SimulateFallback(cmd.Context(), simulateOpts)
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulateOpts.Page, "page", "crypto", "Page to simulate: crypto or weather")
	simulateCmd.Flags().StringVar(&simulateOpts.Reason, "reason", "", "Failure cause reported by the simulated source")
	simulateCmd.Flags().BoolVar(&simulateOpts.RateLimited, "rate-limited", false, "Simulate a 429 response instead of a network failure")
	simulateCmd.Flags().StringVar(&simulateOpts.RetryAfter, "retry-after", "", "Retry-After value sent with the simulated 429")
}
