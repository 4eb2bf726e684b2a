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

// wfpSourceName matches the provider label used in responses and the
// reliability table.
const wfpSourceName = "WFP DataBridges"

// WFP queries the WFP DataBridges food-price database.
type WFP struct {
	cfg    Config
	client *http.Client
	logger zerolog.Logger
}

// NewWFP constructs the WFP adapter.
func NewWFP(cfg Config, logger zerolog.Logger) *WFP {
	cfg = cfg.withDefaults()
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.vam.wfp.org/api/prices"
	}
	return &WFP{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.With().Str("component", "source_wfp").Logger(),
	}
}

func (w *WFP) Name() string { return wfpSourceName }

func (w *WFP) Reliability() float64 { return 0.95 }

// wfpCommodities maps common crop names onto WFP commodity labels.
var wfpCommodities = map[string]string{
	"maize":   "Maize (white)",
	"wheat":   "Wheat (mixed)",
	"rice":    "Rice (milled)",
	"sorghum": "Sorghum (white)",
	"beans":   "Beans (dry)",
	"cassava": "Cassava (fresh)",
}

type wfpRecord struct {
	Commodity string  `json:"commodity"`
	Market    string  `json:"market"`
	Price     float64 `json:"price"`
	Unit      string  `json:"unit"`
	Currency  string  `json:"currency"`
	Date      string  `json:"date"`
	Location  struct {
		Name string `json:"name"`
	} `json:"location"`
}

type wfpResponse struct {
	Data []wfpRecord `json:"data"`
}

// FetchPriceData retrieves the lookback window of observations for the
// crop and market.
func (w *WFP) FetchPriceData(ctx context.Context, q Query) ([]pricing.RawPrice, error) {
	commodity := w.commodityName(q.Crop)
	market := normalizeName(q.Location)

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -w.cfg.LookbackDays)

	query := url.Values{
		"commodity": []string{commodity},
		"market":    []string{market},
		"format":    []string{"json"},
		"from":      []string{start.Format("2006-01-02")},
		"to":        []string{end.Format("2006-01-02")},
	}
	endpoint := strings.TrimRight(w.cfg.BaseURL, "/") + "?" + query.Encode()

	build := func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+w.cfg.APIKey)
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	body, err := doWithRetry(ctx, w.client, build, w.cfg.Retries, w.logger)
	if err != nil {
		return nil, err
	}

	var parsed wfpResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, pricing.WrapError(pricing.CodeInvalidResponse, "decode wfp response", false, err)
	}

	prices := make([]pricing.RawPrice, 0, len(parsed.Data))
	for _, rec := range parsed.Data {
		if rec.Price <= 0 {
			continue
		}
		location := rec.Market
		if location == "" {
			location = rec.Location.Name
		}
		if location == "" {
			location = q.Location
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
		prices = append(prices, pricing.RawPrice{
			Crop:      rec.Commodity,
			Location:  location,
			Price:     decimal.NewFromFloat(rec.Price),
			Currency:  currency,
			Unit:      unit,
			Source:    wfpSourceName,
			Timestamp: ts,
		})
	}

	if len(prices) == 0 {
		return nil, pricing.NewError(pricing.CodeDataUnavailable,
			fmt.Sprintf("no usable records for %s in %s", q.Crop, q.Location))
	}
	return prices, nil
}

func (w *WFP) commodityName(crop string) string {
	normalized := normalizeName(crop)
	if mapped, ok := wfpCommodities[normalized]; ok {
		return mapped
	}
	return crop
}

func parseObservationDate(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}

var _ DataSource = (*WFP)(nil)
