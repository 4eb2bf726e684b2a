// Package source defines the upstream price-provider contract and its
// adapters. Adapters are interchangeable: the orchestrator depends only
// on the DataSource interface and tries sources in priority order.
package source

import (
	"context"
	"time"

	"cropintel/internal/pricing"
)

// Query identifies the market a caller wants prices for.
type Query struct {
	Crop     string
	Location string
	Currency string
}

// DataSource is implemented once per upstream provider. FetchPriceData
// returns at least one usable record or an error; adapters never return
// an empty success.
type DataSource interface {
	Name() string
	// Reliability is the static per-source confidence constant used by
	// the dashboard confidence indicators.
	Reliability() float64
	FetchPriceData(ctx context.Context, q Query) ([]pricing.RawPrice, error)
}

// Config carries the per-adapter connection settings.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// Retries bounds attempts within the shared retry helper.
	Retries int
	// LookbackDays sets the requested observation window.
	LookbackDays int
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.Retries <= 0 {
		c.Retries = 2
	}
	if c.LookbackDays <= 0 {
		c.LookbackDays = 30
	}
	return c
}

// DefaultReliability applies to sources without a dedicated constant.
const DefaultReliability = 0.7
