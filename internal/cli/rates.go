package cli

import (
	"github.com/spf13/cobra"

	"cropintel/internal/app"
)

var (
	ratesAmount float64
	ratesFrom   string
	ratesTo     string
)

var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "Resolve an exchange rate and convert an amount",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.RatesOptions{
			Amount: ratesAmount,
			From:   ratesFrom,
			To:     ratesTo,
		}
		return getApp().Rates(cmd.Context(), opts)
	},
}

func init() {
	ratesCmd.Flags().Float64Var(&ratesAmount, "amount", 1, "Amount to convert")
	ratesCmd.Flags().StringVar(&ratesFrom, "from", "USD", "Source currency")
	ratesCmd.Flags().StringVar(&ratesTo, "to", "", "Target currency")
}
