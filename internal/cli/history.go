package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"cropintel/internal/app"
)

var (
	historyCrop     string
	historyLocation string
	historyLimit    int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Display recent archived price observations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if historyCrop == "" || historyLocation == "" {
			return fmt.Errorf("--crop and --location are required")
		}
		if historyLimit <= 0 {
			return fmt.Errorf("--limit must be greater than zero")
		}

		opts := app.HistoryOptions{
			Crop:     historyCrop,
			Location: historyLocation,
			Limit:    historyLimit,
		}
		return getApp().History(cmd.Context(), opts)
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyCrop, "crop", "", "Crop name")
	historyCmd.Flags().StringVar(&historyLocation, "location", "", "Market location")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of observations to display")
}
