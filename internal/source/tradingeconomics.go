package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"cropintel/internal/pricing"
)

const tradingEconomicsName = "Trading Economics"

// TradingEconomics queries the Trading Economics commodity feed. It is
// the fallback behind WFP: broader coverage, coarser locality.
type TradingEconomics struct {
	cfg    Config
	client *http.Client
	logger zerolog.Logger
}

// NewTradingEconomics constructs the commodity-exchange adapter.
func NewTradingEconomics(cfg Config, logger zerolog.Logger) *TradingEconomics {
	cfg = cfg.withDefaults()
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.tradingeconomics.com/markets/commodity"
	}
	return &TradingEconomics{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.With().Str("component", "source_te").Logger(),
	}
}

func (t *TradingEconomics) Name() string { return tradingEconomicsName }

func (t *TradingEconomics) Reliability() float64 { return 0.85 }

// teSymbols maps crop names onto exchange commodity symbols.
var teSymbols = map[string]string{
	"maize":  "corn",
	"corn":   "corn",
	"wheat":  "wheat",
	"rice":   "rice",
	"coffee": "coffee",
	"cocoa":  "cocoa",
	"cotton": "cotton",
	"sugar":  "sugar",
}

type teRecord struct {
	Symbol   string  `json:"Symbol"`
	Name     string  `json:"Name"`
	Price    float64 `json:"Last"`
	Unit     string  `json:"unit"`
	Currency string  `json:"currency"`
	Date     string  `json:"Date"`
}

// FetchPriceData returns the latest exchange quotes for the crop. The
// feed is global, so the caller's location is carried through unchanged.
func (t *TradingEconomics) FetchPriceData(ctx context.Context, q Query) ([]pricing.RawPrice, error) {
	symbol := t.symbolFor(q.Crop)

	query := url.Values{
		"c":      []string{t.cfg.APIKey},
		"format": []string{"json"},
	}
	endpoint := strings.TrimRight(t.cfg.BaseURL, "/") + "/" + url.PathEscape(symbol) + "?" + query.Encode()

	build := func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	body, err := doWithRetry(ctx, t.client, build, t.cfg.Retries, t.logger)
	if err != nil {
		return nil, err
	}

	var records []teRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, pricing.WrapError(pricing.CodeInvalidResponse, "decode trading economics response", false, err)
	}

	prices := make([]pricing.RawPrice, 0, len(records))
	for _, rec := range records {
		if rec.Price <= 0 {
			continue
		}
		currency := strings.ToUpper(rec.Currency)
		if currency == "" {
			currency = pricing.USD
		}
		unit := strings.ToLower(rec.Unit)
		if unit == "" {
			unit = "kg"
		}
		ts := time.Now().UTC()
		if rec.Date != "" {
			if parsedTS, err := parseObservationDate(rec.Date); err == nil {
				ts = parsedTS
			}
		}
		crop := rec.Name
		if crop == "" {
			crop = q.Crop
		}
		prices = append(prices, pricing.RawPrice{
			Crop:      crop,
			Location:  q.Location,
			Price:     decimal.NewFromFloat(rec.Price),
			Currency:  currency,
			Unit:      unit,
			Source:    tradingEconomicsName,
			Timestamp: ts,
		})
	}

	if len(prices) == 0 {
		return nil, pricing.NewError(pricing.CodeDataUnavailable,
			fmt.Sprintf("no usable quotes for %s", q.Crop))
	}
	return prices, nil
}

func (t *TradingEconomics) symbolFor(crop string) string {
	normalized := normalizeName(crop)
	if mapped, ok := teSymbols[normalized]; ok {
		return mapped
	}
	return normalized
}

var _ DataSource = (*TradingEconomics)(nil)
