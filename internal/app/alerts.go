package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"stock-alerts/internal/service"
	"stock-alerts/internal/storage"
)

func (a *App) newManager(ctx context.Context) (*service.Service, func(), error) {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	if store == nil {
		return nil, nil, errors.New("database.dsn not configured; cannot manage alerts")
	}

	svc := service.New(a.Config, nil, nil, store, nil, nil, nil, a.Logger)
	return svc, closeStore, nil
}

// AddAlert registers a price alert for a user.
func (a *App) AddAlert(ctx context.Context, userID, symbol string, threshold decimal.Decimal, alertType storage.AlertType, email string) error {
	svc, closeStore, err := a.newManager(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	alert, err := svc.CreateAlert(ctx, userID, symbol, threshold, alertType, email)
	if err != nil {
		return err
	}

	a.Logger.Info().
		Str("alert_id", alert.ID).
		Str("user_id", alert.UserID).
		Str("symbol", alert.Symbol).
		Str("type", string(alert.Type)).
		Str("threshold", alert.Threshold.String()).
		Msg("alert created")
	fmt.Fprintf(os.Stdout, "created alert %s (%s %s %s)\n", alert.ID, alert.Symbol, alert.Type, alert.Threshold.String())
	return nil
}

// RemoveAlert deletes the first alert matching (userID, symbol).
func (a *App) RemoveAlert(ctx context.Context, userID, symbol string) error {
	svc, closeStore, err := a.newManager(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	found, err := svc.RemoveAlert(ctx, userID, symbol)
	if err != nil {
		return err
	}
	if !found {
		fmt.Fprintf(os.Stdout, "no alert found for user %s on %s\n", userID, symbol)
		return nil
	}

	fmt.Fprintf(os.Stdout, "deleted alert for user %s on %s\n", userID, symbol)
	return nil
}

// ListAlerts prints every alert owned by a user.
func (a *App) ListAlerts(ctx context.Context, userID string) error {
	svc, closeStore, err := a.newManager(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	alerts, err := svc.ListUserAlerts(ctx, userID)
	if err != nil {
		return err
	}
	if len(alerts) == 0 {
		fmt.Fprintln(os.Stdout, "no alerts found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tSymbol\tType\tThreshold\tEmail\tActive\tTriggered\tCreated (UTC)")
	for _, alert := range alerts {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%t\t%t\t%s\n",
			alert.ID,
			alert.Symbol,
			alert.Type,
			alert.Threshold.String(),
			alert.Email,
			alert.Active,
			alert.Triggered,
			alert.CreatedAt.UTC().Format(time.RFC3339),
		)
	}
	writer.Flush()
	return nil
}
