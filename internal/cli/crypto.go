package cli

import (
	"github.com/spf13/cobra"

	"live-dashboard/internal/app"
)

var (
	cryptoCoins    []string
	cryptoCurrency string
	cryptoChart    string
	cryptoRefresh  refreshFlags
)

var cryptoCmd = &cobra.Command{
	Use:   "crypto",
	Short: "Show live coin prices from CoinGecko",
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, err := cryptoRefresh.resolve()
		if err != nil {
			return err
		}
		return getApp().RunCrypto(cmd.Context(), app.CryptoOptions{
			Coins:       cryptoCoins,
			Currency:    cryptoCurrency,
			AutoRefresh: cryptoRefresh.AutoRefresh,
			Interval:    interval,
			ChartPath:   cryptoChart,
		})
	},
}

func init() {
	cryptoCmd.Flags().StringSliceVar(&cryptoCoins, "coins", nil, "Comma separated CoinGecko coin ids (default from config)")
	cryptoCmd.Flags().StringVar(&cryptoCurrency, "vs", "", "Quote currency (default from config)")
	cryptoCmd.Flags().StringVar(&cryptoChart, "chart", "", "Write a PNG bar chart to this path on every refresh")
	cryptoRefresh.register(cryptoCmd)
}
