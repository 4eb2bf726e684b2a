package cli

import (
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the price cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Wipe all cached entries (forces a refresh on next query)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().ClearCache(cmd.Context())
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print cache entry counts per tier",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().CacheStats(cmd.Context())
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
}
