package cli

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"stock-alerts/internal/storage"
)

var (
	simulateSymbol    string
	simulateThreshold float64
	simulatePrice     float64
	simulateType      string
	simulateEmail     string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate-alert",
	Short: "模拟一次阈值穿越并触发告警邮件",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulateSymbol == "" || simulateEmail == "" {
			return errors.New("--symbol 与 --email 必须配置")
		}
		if simulateThreshold <= 0 || simulatePrice <= 0 {
			return errors.New("--threshold 与 --price 必须大于 0")
		}

		parsedType, err := storage.ParseAlertType(simulateType)
		if err != nil {
			return err
		}

		threshold := decimal.NewFromFloat(simulateThreshold)
		price := decimal.NewFromFloat(simulatePrice)
		return getApp().SimulateAlert(cmd.Context(), simulateSymbol, threshold, price, parsedType, simulateEmail)
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulateSymbol, "symbol", "", "Ticker symbol")
	simulateCmd.Flags().Float64Var(&simulateThreshold, "threshold", 0, "阈值价格")
	simulateCmd.Flags().Float64Var(&simulatePrice, "price", 0, "模拟的当前价格")
	simulateCmd.Flags().StringVar(&simulateType, "type", "above", "Comparison direction: above or below")
	simulateCmd.Flags().StringVar(&simulateEmail, "email", "", "Notification recipient")
}
