// Package exchange resolves currency conversion rates. All lookups pivot
// through USD, every resolved pair and every full table fetch is cached,
// and upstream failure degrades to a static fallback table instead of
// failing the caller.
package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"cropintel/internal/cache"
	"cropintel/internal/pricing"
)

// Options parameterise the rate service.
type Options struct {
	BaseURL string
	AppID   string
	Timeout time.Duration
	// TTL bounds how long resolved rates and tables are reused.
	TTL time.Duration
}

// Service resolves and converts exchange rates.
type Service struct {
	opts    Options
	cache   *cache.Manager
	client  *http.Client
	logger  zerolog.Logger
	baseURL string
	ttl     time.Duration
}

// New constructs the rate service.
func New(opts Options, cacheManager *cache.Manager, logger zerolog.Logger) *Service {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://open.forex-api.com/v6"
	}

	return &Service{
		opts:    opts,
		cache:   cacheManager,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "exchange").Logger(),
		baseURL: baseURL,
		ttl:     ttl,
	}
}

// GetExchangeRate returns the rate multiplying an amount in from-currency
// into to-currency. Identical currencies short-circuit to exactly 1.
func (s *Service) GetExchangeRate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	pairKey := cache.RateKey(from, to)
	if cached, ok := cache.Get[decimal.Decimal](ctx, s.cache, pairKey); ok {
		return cached, nil
	}

	table := s.rateTable(ctx)

	usdToFrom, err := tableRate(table, from)
	if err != nil {
		return decimal.Decimal{}, err
	}
	usdToTo, err := tableRate(table, to)
	if err != nil {
		return decimal.Decimal{}, err
	}

	rate := usdToTo.Div(usdToFrom)
	if !rate.IsPositive() {
		return decimal.Decimal{}, pricing.NewError(pricing.CodeInvalidResponse,
			fmt.Sprintf("non-positive rate for %s/%s", from, to))
	}

	cache.Set(ctx, s.cache, pairKey, rate, s.ttl)
	return rate, nil
}

// ConvertAmount converts amount from one currency to another. Identity
// conversions return the amount untouched.
func (s *Service) ConvertAmount(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	if strings.EqualFold(strings.TrimSpace(from), strings.TrimSpace(to)) {
		return amount, nil
	}
	rate, err := s.GetExchangeRate(ctx, from, to)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return amount.Mul(rate), nil
}

// rateTable returns USD-based rates, serving from cache, then the live
// API, then the static fallback. It never fails.
func (s *Service) rateTable(ctx context.Context) map[string]decimal.Decimal {
	tableKey := cache.RateTableKey(pricing.USD)
	if cached, ok := cache.Get[map[string]decimal.Decimal](ctx, s.cache, tableKey); ok {
		return cached
	}

	table, err := s.fetchRateTable(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("rate fetch failed, using fallback table")
		return fallbackUSDRates()
	}

	cache.Set(ctx, s.cache, tableKey, table, s.ttl)
	return table
}

type ratesResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

func (s *Service) fetchRateTable(ctx context.Context) (map[string]decimal.Decimal, error) {
	endpoint := s.baseURL + "/latest"
	query := url.Values{"base": []string{pricing.USD}}
	if s.opts.AppID != "" {
		query.Set("app_id", s.opts.AppID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate api error (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed ratesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode rate response: %w", err)
	}
	if len(parsed.Rates) == 0 {
		return nil, fmt.Errorf("rate response contained no rates")
	}

	table := make(map[string]decimal.Decimal, len(parsed.Rates)+1)
	table[pricing.USD] = decimal.NewFromInt(1)
	for code, rate := range parsed.Rates {
		if rate > 0 {
			table[strings.ToUpper(code)] = decimal.NewFromFloat(rate)
		}
	}
	return table, nil
}

func tableRate(table map[string]decimal.Decimal, currency string) (decimal.Decimal, error) {
	if currency == pricing.USD {
		return decimal.NewFromInt(1), nil
	}
	rate, ok := table[currency]
	if !ok || !rate.IsPositive() {
		return decimal.Decimal{}, pricing.NewError(pricing.CodeInvalidResponse,
			fmt.Sprintf("no exchange rate available for %s", currency))
	}
	return rate, nil
}
