package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"stock-alerts/internal/app"
)

var (
	showSymbol        string
	showLimit         int
	showNotifications bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display recent quote samples or notifications",
	RunE: func(cmd *cobra.Command, args []string) error {
		if showLimit <= 0 {
			return fmt.Errorf("--limit must be greater than zero")
		}

		opts := app.ShowOptions{
			Symbol:        showSymbol,
			Limit:         showLimit,
			Notifications: showNotifications,
		}

		return getApp().Show(cmd.Context(), opts)
	},
}

func init() {
	showCmd.Flags().StringVar(&showSymbol, "symbol", "", "Ticker symbol to display")
	showCmd.Flags().IntVar(&showLimit, "limit", 20, "Number of rows to display")
	showCmd.Flags().BoolVar(&showNotifications, "notifications", false, "Show sent notifications instead of quote samples")
}
