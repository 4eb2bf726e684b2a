package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
)

// Rates resolves one conversion and prints the rate and the converted
// amount.
func (a *App) Rates(ctx context.Context, opts RatesOptions) error {
	if opts.From == "" || opts.To == "" {
		return errors.New("both --from and --to currencies are required")
	}
	if opts.Amount <= 0 {
		return errors.New("--amount must be greater than zero")
	}

	cacheManager := a.newCache()
	defer cacheManager.Close()
	rates := a.newExchange(cacheManager)

	rate, err := rates.GetExchangeRate(ctx, opts.From, opts.To)
	if err != nil {
		return err
	}

	amount := decimal.NewFromFloat(opts.Amount)
	converted, err := rates.ConvertAmount(ctx, amount, opts.From, opts.To)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "rate %s/%s: %s\n", opts.From, opts.To, rate.StringFixed(6))
	fmt.Fprintf(os.Stdout, "%s %s = %s %s\n", amount.String(), opts.From, converted.StringFixed(2), opts.To)
	return nil
}
