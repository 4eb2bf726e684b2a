package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"cropintel/internal/service"
)

// Query runs one market-data lookup and prints the shaped response.
func (a *App) Query(ctx context.Context, opts QueryOptions) error {
	svc, cleanup, err := a.newService(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	response, err := svc.GetMarketData(ctx, service.Request{
		Crop:     opts.Crop,
		Location: opts.Location,
		Currency: opts.Currency,
		Mode:     opts.Mode,
		Language: opts.Language,
	})
	if err != nil {
		return err
	}

	encoded, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(encoded))
	return nil
}

// ClearCache wipes all cached entries across both tiers.
func (a *App) ClearCache(ctx context.Context) error {
	cacheManager := a.newCache()
	defer cacheManager.Close()

	cacheManager.ClearAll(ctx)
	a.Logger.Info().Msg("cache cleared")
	return nil
}

// CacheStats prints entry counts per cache tier.
func (a *App) CacheStats(ctx context.Context) error {
	cacheManager := a.newCache()
	defer cacheManager.Close()

	stats := cacheManager.Stats(ctx)
	encoded, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(encoded))
	return nil
}
