package alerting

import (
	"fmt"

	"github.com/shopspring/decimal"

	"stock-alerts/internal/quotes"
	"stock-alerts/internal/storage"
)

// ShouldTrigger 判断告警阈值条件是否满足。
// Comparisons are inclusive at the boundary: an "above" alert fires at
// current >= threshold, a "below" alert at current <= threshold. Pure
// function; the quote's previousClose is available but unused here.
func ShouldTrigger(alert storage.Alert, quote quotes.Quote) bool {
	switch alert.Type {
	case storage.AlertAbove:
		return quote.Current.GreaterThanOrEqual(alert.Threshold)
	case storage.AlertBelow:
		return quote.Current.LessThanOrEqual(alert.Threshold)
	default:
		return false
	}
}

// Direction renders the human-readable movement for an alert type.
func Direction(t storage.AlertType) string {
	if t == storage.AlertBelow {
		return "fallen below"
	}
	return "risen above"
}

// ComposeAlertEmail renders the notification message for a fired alert.
// Prices keep their natural decimal representation.
func ComposeAlertEmail(alert storage.Alert, current decimal.Decimal) Message {
	return Message{
		To:      alert.Email,
		Subject: fmt.Sprintf("Stock Alert: %s", alert.Symbol),
		Text: fmt.Sprintf(
			"The price of %s has %s your threshold of %s. Current price: %s",
			alert.Symbol,
			Direction(alert.Type),
			alert.Threshold.String(),
			current.String(),
		),
	}
}
