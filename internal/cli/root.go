package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"live-dashboard/internal/app"
	"live-dashboard/internal/config"
	"live-dashboard/internal/logging"
	"live-dashboard/internal/version"
)

var (
	cfgFile   string
	envFile   string
	logLevel  string
	appHandle *app.App
)

var rootCmd = &cobra.Command{
	Use:           "dashboard",
	Short:         "Live crypto and weather dashboard pages with cached refresh and fallback",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if appHandle != nil || cmd == versionCmd {
			return nil
		}

		if err := config.LoadEnvFile(envFile); err != nil {
			return err
		}

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}

		logger := logging.NewLogger(cfg.Logging)
		logger.Debug().Str("version", version.String()).Msg("configuration loaded")
		appHandle = app.NewApp(cfg, logger)
		appHandle.Out = cmd.OutOrStdout()
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a .env file loaded before configuration")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level defined in config")

	rootCmd.AddCommand(cryptoCmd)
	rootCmd.AddCommand(weatherCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(versionCmd)
}

func getApp() *app.App {
	if appHandle == nil {
		panic("application not initialized; PersistentPreRunE not executed")
	}
	return appHandle
}
