package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cropintel/internal/app"
)

var (
	chartCrop      string
	chartLocation  string
	chartFrom      string
	chartTo        string
	chartPNGPath   string
	chartMaxPoints int
)

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Render archived price history as a PNG chart",
	RunE: func(cmd *cobra.Command, args []string) error {
		if chartCrop == "" || chartLocation == "" {
			return fmt.Errorf("--crop and --location are required")
		}

		opts := app.ChartOptions{
			Crop:      chartCrop,
			Location:  chartLocation,
			PNGPath:   chartPNGPath,
			MaxPoints: chartMaxPoints,
		}

		if chartFrom != "" {
			from, err := time.Parse(time.RFC3339, chartFrom)
			if err != nil {
				return fmt.Errorf("invalid --from value: %w", err)
			}
			opts.From = &from
		}

		if chartTo != "" {
			to, err := time.Parse(time.RFC3339, chartTo)
			if err != nil {
				return fmt.Errorf("invalid --to value: %w", err)
			}
			opts.To = &to
		}

		return getApp().Chart(cmd.Context(), opts)
	},
}

func init() {
	chartCmd.Flags().StringVar(&chartCrop, "crop", "", "Crop name")
	chartCmd.Flags().StringVar(&chartLocation, "location", "", "Market location")
	chartCmd.Flags().StringVar(&chartFrom, "from", "", "Start timestamp (RFC3339, inclusive)")
	chartCmd.Flags().StringVar(&chartTo, "to", "", "End timestamp (RFC3339, exclusive)")
	chartCmd.Flags().StringVar(&chartPNGPath, "png", "", "Path to write PNG chart")
	chartCmd.Flags().IntVar(&chartMaxPoints, "max-points", 0, "Maximum data points to chart (defaults to config)")
}
