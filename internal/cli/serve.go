package cli

import (
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve both pages and their refresh controls over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := getApp()
		shutdown, err := a.SetupTracing()
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdown(cmd.Context()); err != nil {
				a.Logger.Warn().Err(err).Msg("tracer shutdown")
			}
		}()
		return a.Serve(cmd.Context())
	},
}
