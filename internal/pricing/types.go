package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trend classifies the direction of a price series.
type Trend string

const (
	TrendRising  Trend = "rising"
	TrendFalling Trend = "falling"
	TrendStable  Trend = "stable"
)

// OutputMode selects the response shape.
type OutputMode string

const (
	ModeDashboard OutputMode = "dashboard"
	ModeSMS       OutputMode = "sms"
	ModeProAPI    OutputMode = "pro_api"
	ModeBase      OutputMode = ""
)

// Supported advice languages. Unknown values fall back to English.
const (
	LangEnglish = "en"
	LangSwahili = "sw"
	LangYoruba  = "yo"
	LangFrench  = "fr"
)

// USD is the internal normalization currency.
const USD = "USD"

// RawPrice is a single observation as returned by an upstream provider.
// Immutable once produced by a data source.
type RawPrice struct {
	Crop      string          `json:"crop"`
	Location  string          `json:"location"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
	Unit      string          `json:"unit"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
}

// NormalizedPrice is a RawPrice converted to USD at a recorded rate.
type NormalizedPrice struct {
	RawPrice
	NormalizedPrice    decimal.Decimal `json:"normalized_price"`
	NormalizedCurrency string          `json:"normalized_currency"`
	ExchangeRate       decimal.Decimal `json:"exchange_rate"`
}

// Analysis carries the derived statistics for a normalized series.
// Recomputed on every cache miss, never persisted.
type Analysis struct {
	CurrentPrice   float64
	AveragePrice   float64
	MinPrice       float64
	MaxPrice       float64
	PriceChangePct float64
	Trend          Trend
	Volatility     float64
	AnomalyScore   float64
}

// HistoryPoint is one entry of the dashboard price history.
type HistoryPoint struct {
	Price  decimal.Decimal `json:"price"`
	Date   time.Time       `json:"date"`
	Source string          `json:"source"`
}

// ConfidenceIndicators are the dashboard quality scores.
type ConfidenceIndicators struct {
	DataFreshness     float64 `json:"data_freshness"`
	SourceReliability float64 `json:"source_reliability"`
	DataConsistency   float64 `json:"data_consistency"`
}

// MovingAverages holds the pro-mode SMA values; nil means not enough
// history for the window.
type MovingAverages struct {
	SMA7  *decimal.Decimal `json:"sma_7"`
	SMA30 *decimal.Decimal `json:"sma_30"`
}

// MACD is the 12/26/9 EMA triple.
type MACD struct {
	MACDLine   float64 `json:"macd_line"`
	SignalLine float64 `json:"signal_line"`
	Histogram  float64 `json:"histogram"`
}

// IndicatorSet is the pro_api analysis block.
type IndicatorSet struct {
	MovingAverages  MovingAverages  `json:"moving_averages"`
	SupportLevel    decimal.Decimal `json:"support_level"`
	ResistanceLevel decimal.Decimal `json:"resistance_level"`
	RSI             float64         `json:"rsi"`
	MACD            *MACD           `json:"macd"`
}

// Metadata carries the mode-dependent extras of a response.
type Metadata struct {
	MinPrice             *decimal.Decimal      `json:"min_price,omitempty"`
	MaxPrice             *decimal.Decimal      `json:"max_price,omitempty"`
	PriceHistory         []HistoryPoint        `json:"price_history,omitempty"`
	ConfidenceIndicators *ConfidenceIndicators `json:"confidence_indicators,omitempty"`
	RawData              []NormalizedPrice     `json:"raw_data,omitempty"`
	Analysis             *IndicatorSet         `json:"analysis,omitempty"`
}

// MarketDataResponse is the external contract of the pipeline.
// PriceLastWeek carries the series average, matching the upstream data
// granularity (observations are not guaranteed to be daily).
type MarketDataResponse struct {
	Crop            string            `json:"crop"`
	Location        string            `json:"location"`
	PriceToday      decimal.Decimal   `json:"price_today"`
	PriceLastWeek   decimal.Decimal   `json:"price_last_week"`
	Currency        string            `json:"currency"`
	ChangePct       float64           `json:"change_pct"`
	Trend           Trend             `json:"trend"`
	VolatilityScore float64           `json:"volatility_score"`
	AnomalyFlag     bool              `json:"anomaly_flag"`
	Advice          map[string]string `json:"advice"`
	Source          string            `json:"source"`
	UpdatedAt       time.Time         `json:"updated_at"`
	Confidence      float64           `json:"confidence"`
	Metadata        *Metadata         `json:"metadata,omitempty"`
}
