package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"
)

// History prints the newest archived observations for a market.
func (a *App) History(ctx context.Context, opts HistoryOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show history")
	}
	if closeStore != nil {
		defer closeStore()
	}

	observations, err := store.ListRecentObservations(ctx, opts.Crop, opts.Location, opts.Limit)
	if err != nil {
		return err
	}
	if len(observations) == 0 {
		fmt.Fprintln(os.Stdout, "no observations found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Observed (UTC)\tPrice USD\tOriginal\tCurrency\tUnit\tSource")
	for _, obs := range observations {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\n",
			obs.ObservedAt.UTC().Format(time.RFC3339),
			obs.PriceUSD.StringFixed(2),
			obs.OriginalPrice.StringFixed(2),
			obs.Currency,
			obs.Unit,
			obs.Source,
		)
	}
	return writer.Flush()
}
