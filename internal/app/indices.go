package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
)

// Indices prints a summary of market indices with their latest movement.
// Quote lookups run in parallel inside the client; an index whose quote is
// unavailable is listed zero-valued.
func (a *App) Indices(ctx context.Context, opts IndicesOptions) error {
	limit := opts.Limit
	if limit <= 0 {
		limit = a.Config.Polygon.IndexLimit
	}

	fetcher := a.newQuoteClient()
	summaries, err := fetcher.ListIndexSummaries(ctx, limit)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Fprintln(os.Stdout, "no indices found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Ticker\tName\tValue\tChange\tChange%\tDirection")
	for _, summary := range summaries {
		direction := "down"
		if summary.IsUp {
			direction = "up"
		}
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\n",
			summary.ID,
			summary.Name,
			formatDecimal(summary.Value, 2),
			formatDecimal(summary.Change, 2),
			formatDecimal(summary.ChangePercent, 2),
			direction,
		)
	}
	writer.Flush()
	return nil
}
