package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// Observation is one persisted, normalized price observation. The
// archive is append-mostly; re-fetching the same (crop, location,
// source, observed_at) updates in place.
type Observation struct {
	Crop          string
	Location      string
	Source        string
	ObservedAt    time.Time
	OriginalPrice decimal.Decimal
	Currency      string
	Unit          string
	PriceUSD      decimal.Decimal
	ExchangeRate  decimal.Decimal
	CreatedAt     time.Time
}
