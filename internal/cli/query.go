package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"cropintel/internal/app"
	"cropintel/internal/pricing"
)

var (
	queryCrop     string
	queryLocation string
	queryCurrency string
	queryMode     string
	queryLanguage string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Fetch the market report for a crop and location",
	RunE: func(cmd *cobra.Command, args []string) error {
		if queryCrop == "" || queryLocation == "" {
			return fmt.Errorf("--crop and --location are required")
		}

		mode := pricing.OutputMode(queryMode)
		switch mode {
		case pricing.ModeDashboard, pricing.ModeSMS, pricing.ModeProAPI, pricing.ModeBase:
		default:
			return fmt.Errorf("unknown mode %q (use dashboard, sms, or pro_api)", queryMode)
		}

		opts := app.QueryOptions{
			Crop:     queryCrop,
			Location: queryLocation,
			Currency: queryCurrency,
			Mode:     mode,
			Language: queryLanguage,
		}
		return getApp().Query(cmd.Context(), opts)
	},
}

func init() {
	queryCmd.Flags().StringVar(&queryCrop, "crop", "", "Crop name, e.g. maize")
	queryCmd.Flags().StringVar(&queryLocation, "location", "", "Market location, e.g. Nairobi")
	queryCmd.Flags().StringVar(&queryCurrency, "currency", "USD", "Display currency (ISO 4217)")
	queryCmd.Flags().StringVar(&queryMode, "mode", "dashboard", "Output mode: dashboard, sms, or pro_api")
	queryCmd.Flags().StringVar(&queryLanguage, "language", "en", "Advice language: en, sw, yo, fr")
}
