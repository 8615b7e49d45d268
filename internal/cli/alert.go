package cli

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"stock-alerts/internal/storage"
)

var (
	alertUserID    string
	alertSymbol    string
	alertThreshold float64
	alertType      string
	alertEmail     string
)

var alertCmd = &cobra.Command{
	Use:   "alert",
	Short: "Manage price alerts",
}

var alertAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a price alert",
	RunE: func(cmd *cobra.Command, args []string) error {
		if alertThreshold <= 0 {
			return fmt.Errorf("--threshold must be greater than zero")
		}

		parsedType, err := storage.ParseAlertType(alertType)
		if err != nil {
			return err
		}

		threshold := decimal.NewFromFloat(alertThreshold)
		return getApp().AddAlert(cmd.Context(), alertUserID, alertSymbol, threshold, parsedType, alertEmail)
	},
}

var alertRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Delete the first alert matching a user and symbol",
	RunE: func(cmd *cobra.Command, args []string) error {
		if alertUserID == "" || alertSymbol == "" {
			return fmt.Errorf("--user and --symbol must be provided")
		}
		return getApp().RemoveAlert(cmd.Context(), alertUserID, alertSymbol)
	},
}

var alertListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a user's alerts",
	RunE: func(cmd *cobra.Command, args []string) error {
		if alertUserID == "" {
			return fmt.Errorf("--user must be provided")
		}
		return getApp().ListAlerts(cmd.Context(), alertUserID)
	},
}

func init() {
	alertCmd.PersistentFlags().StringVar(&alertUserID, "user", "", "Owning user id")
	alertCmd.PersistentFlags().StringVar(&alertSymbol, "symbol", "", "Ticker symbol (case-sensitive)")

	alertAddCmd.Flags().Float64Var(&alertThreshold, "threshold", 0, "Price threshold")
	alertAddCmd.Flags().StringVar(&alertType, "type", "above", "Comparison direction: above or below")
	alertAddCmd.Flags().StringVar(&alertEmail, "email", "", "Notification recipient")

	alertCmd.AddCommand(alertAddCmd)
	alertCmd.AddCommand(alertRemoveCmd)
	alertCmd.AddCommand(alertListCmd)
}
