package alerting

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"stock-alerts/internal/quotes"
	"stock-alerts/internal/storage"
)

func alertWith(t storage.AlertType, threshold int64) storage.Alert {
	return storage.Alert{
		ID:        "a1",
		UserID:    "u1",
		Symbol:    "AAPL",
		Threshold: decimal.NewFromInt(threshold),
		Type:      t,
		Email:     "u1@x.com",
		Active:    true,
	}
}

func quoteAt(current decimal.Decimal) quotes.Quote {
	return quotes.Quote{Symbol: "AAPL", Current: current}
}

func TestShouldTriggerBoundaries(t *testing.T) {
	epsilon := decimal.NewFromFloat(0.01)
	hundred := decimal.NewFromInt(100)

	cases := []struct {
		name    string
		alert   storage.Alert
		current decimal.Decimal
		want    bool
	}{
		{"above at boundary", alertWith(storage.AlertAbove, 100), hundred, true},
		{"above just over", alertWith(storage.AlertAbove, 100), hundred.Add(epsilon), true},
		{"above just under", alertWith(storage.AlertAbove, 100), hundred.Sub(epsilon), false},
		{"below at boundary", alertWith(storage.AlertBelow, 100), hundred, true},
		{"below just under", alertWith(storage.AlertBelow, 100), hundred.Sub(epsilon), true},
		{"below just over", alertWith(storage.AlertBelow, 100), hundred.Add(epsilon), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ShouldTrigger(tc.alert, quoteAt(tc.current)); got != tc.want {
				t.Fatalf("ShouldTrigger = %t, want %t (current %s)", got, tc.want, tc.current)
			}
		})
	}
}

func TestShouldTriggerUnknownType(t *testing.T) {
	alert := alertWith("sideways", 100)
	if ShouldTrigger(alert, quoteAt(decimal.NewFromInt(1000))) {
		t.Fatal("未知类型不应触发")
	}
}

func TestComposeAlertEmailAbove(t *testing.T) {
	alert := alertWith(storage.AlertAbove, 150)
	msg := ComposeAlertEmail(alert, decimal.NewFromInt(152))

	if msg.To != "u1@x.com" {
		t.Fatalf("recipient = %q", msg.To)
	}
	if !strings.Contains(msg.Subject, "AAPL") {
		t.Fatalf("subject should reference the symbol, got %q", msg.Subject)
	}
	for _, want := range []string{"risen above", "150", "152"} {
		if !strings.Contains(msg.Text, want) {
			t.Fatalf("body should contain %q, got %q", want, msg.Text)
		}
	}
}

func TestComposeAlertEmailBelow(t *testing.T) {
	alert := alertWith(storage.AlertBelow, 150)
	msg := ComposeAlertEmail(alert, decimal.NewFromInt(148))

	if !strings.Contains(msg.Text, "fallen below") {
		t.Fatalf("body should state the direction, got %q", msg.Text)
	}
}
