package cli

import (
	"github.com/spf13/cobra"

	"live-dashboard/internal/app"
)

var (
	weatherLat     float64
	weatherLon     float64
	weatherChart   string
	weatherCSV     string
	weatherRefresh refreshFlags
)

var weatherCmd = &cobra.Command{
	Use:   "weather",
	Short: "Show current conditions from Open-Meteo with session history",
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, err := weatherRefresh.resolve()
		if err != nil {
			return err
		}
		opts := app.WeatherOptions{
			AutoRefresh: weatherRefresh.AutoRefresh,
			Interval:    interval,
			ChartPath:   weatherChart,
			CSVPath:     weatherCSV,
		}
		if cmd.Flags().Changed("lat") {
			opts.Latitude = &weatherLat
		}
		if cmd.Flags().Changed("lon") {
			opts.Longitude = &weatherLon
		}
		return getApp().RunWeather(cmd.Context(), opts)
	},
}

func init() {
	weatherCmd.Flags().Float64Var(&weatherLat, "lat", 0, "Latitude (default from config)")
	weatherCmd.Flags().Float64Var(&weatherLon, "lon", 0, "Longitude (default from config)")
	weatherCmd.Flags().StringVar(&weatherChart, "chart", "", "Write a PNG temperature chart to this path once two readings exist")
	weatherCmd.Flags().StringVar(&weatherCSV, "csv", "", "Write the session history as CSV to this path on every refresh")
	weatherRefresh.register(weatherCmd)
}
