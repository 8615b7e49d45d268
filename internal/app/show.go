package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"stock-alerts/internal/storage"
)

// Show prints recent quote samples for a symbol, or recent notification
// audit rows when opts.Notifications is set.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show history")
	}
	defer closeStore()

	if opts.Notifications {
		return a.showNotifications(ctx, store, opts.Limit)
	}

	if opts.Symbol == "" {
		return errors.New("--symbol is required when showing quote samples")
	}

	samples, err := store.ListRecentSamples(ctx, opts.Symbol, opts.Limit)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		fmt.Fprintln(os.Stdout, "no samples found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tSymbol\tCurrent\tHigh\tLow\tOpen\tPrevClose")
	for _, sample := range samples {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			sample.SampleTS.UTC().Format(time.RFC3339),
			sample.Symbol,
			formatDecimal(sample.Current, 2),
			formatDecimal(sample.High, 2),
			formatDecimal(sample.Low, 2),
			formatDecimal(sample.Open, 2),
			formatDecimal(sample.PreviousClose, 2),
		)
	}
	writer.Flush()
	return nil
}

func (a *App) showNotifications(ctx context.Context, store *storage.Store, limit int) error {
	records, err := store.ListRecentNotifications(ctx, limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(os.Stdout, "no notifications found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tSymbol\tDirection\tThreshold\tPrice\tRecipient")
	for _, rec := range records {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\n",
			rec.CreatedAt.UTC().Format(time.RFC3339),
			rec.Symbol,
			rec.Direction,
			rec.Threshold.String(),
			rec.Price.String(),
			sanitizeInline(rec.Recipient),
		)
	}
	writer.Flush()
	return nil
}

// Prune deletes notification audit rows older than the cutoff.
func (a *App) Prune(ctx context.Context, olderThan time.Time) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; nothing to prune")
	}
	defer closeStore()

	if err := store.DeleteNotificationsBefore(ctx, olderThan); err != nil {
		return err
	}
	a.Logger.Info().Time("older_than", olderThan).Msg("notification history pruned")
	return nil
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	return cleaned
}

func formatDecimal(d decimal.Decimal, places int32) string {
	return d.StringFixed(places)
}
