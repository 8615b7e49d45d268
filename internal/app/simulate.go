package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"stock-alerts/internal/quotes"
	"stock-alerts/internal/service"
	"stock-alerts/internal/storage"
)

// SimulateAlert 以给定的价格模拟一次完整的告警评估与投递。
// Nothing is persisted; the pipeline runs against a static quote.
func (a *App) SimulateAlert(ctx context.Context, symbol string, threshold, price decimal.Decimal, alertType storage.AlertType, email string) error {
	notifier := a.newNotifier()
	if notifier == nil {
		return errors.New("mailer 未启用，无法模拟告警投递")
	}

	alert := storage.Alert{
		UserID:    "simulated",
		Symbol:    symbol,
		Threshold: threshold,
		Type:      alertType,
		Email:     email,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}

	fetcher := &staticQuoteFetcher{price: price}
	svc := service.New(a.Config, nil, fetcher, nil, nil, nil, notifier, a.Logger)

	fired, err := svc.ProcessAlert(ctx, alert)
	if err != nil {
		return err
	}
	if !fired {
		fmt.Fprintln(os.Stdout, "condition not met; no notification sent")
		return nil
	}

	fmt.Fprintln(os.Stdout, "notification sent")
	return nil
}

type staticQuoteFetcher struct {
	price decimal.Decimal
}

func (s *staticQuoteFetcher) GetQuote(ctx context.Context, symbol string) (quotes.Quote, error) {
	return quotes.Quote{
		Symbol:        symbol,
		Current:       s.price,
		High:          s.price,
		Low:           s.price,
		Open:          s.price,
		PreviousClose: s.price,
		Timestamp:     time.Now().UTC(),
	}, nil
}

var _ quotes.QuoteFetcher = (*staticQuoteFetcher)(nil)
