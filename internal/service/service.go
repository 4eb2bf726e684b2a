// Package service hosts the pricing intelligence orchestrator: the
// sequential pipeline from cache lookup through source fallback,
// normalization, analysis, advice, and response shaping.
package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"cropintel/internal/advice"
	"cropintel/internal/analysis"
	"cropintel/internal/cache"
	"cropintel/internal/pricing"
	"cropintel/internal/source"
	"cropintel/internal/storage"
)

// RateConverter is the slice of the exchange service the orchestrator
// needs.
type RateConverter interface {
	GetExchangeRate(ctx context.Context, from, to string) (decimal.Decimal, error)
	ConvertAmount(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error)
}

// anomalyFlagThreshold marks the analysis score above which a response
// carries anomaly_flag.
const anomalyFlagThreshold = 0.8

// Options tune the orchestrator.
type Options struct {
	// ResponseTTL bounds how long shaped responses stay cached.
	ResponseTTL time.Duration
}

// Service is the pricing intelligence orchestrator. All dependencies
// are injected; the only state shared between requests is the cache.
type Service struct {
	cache   *cache.Manager
	rates   RateConverter
	sources []source.DataSource
	advisor *advice.Generator
	archive storage.ObservationStore
	logger  zerolog.Logger

	ttl    time.Duration
	flight singleflight.Group
}

// New constructs the orchestrator. sources are tried in the given
// priority order. archive may be nil to disable persistence.
func New(opts Options, cacheManager *cache.Manager, rates RateConverter, sources []source.DataSource, advisor *advice.Generator, archive storage.ObservationStore, logger zerolog.Logger) *Service {
	ttl := opts.ResponseTTL
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	return &Service{
		cache:   cacheManager,
		rates:   rates,
		sources: sources,
		advisor: advisor,
		archive: archive,
		logger:  logger.With().Str("component", "pricing_service").Logger(),
		ttl:     ttl,
	}
}

// Request identifies one market-data lookup.
type Request struct {
	Crop     string
	Location string
	Currency string
	Mode     pricing.OutputMode
	Language string
}

func (r Request) withDefaults() Request {
	if r.Currency == "" {
		r.Currency = pricing.USD
	}
	r.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
	if r.Language == "" {
		r.Language = pricing.LangEnglish
	}
	return r
}

// GetMarketData runs the full pipeline for one request. Identical
// requests on the same calendar day are served from cache; concurrent
// identical misses share one upstream fetch.
func (s *Service) GetMarketData(ctx context.Context, req Request) (*pricing.MarketDataResponse, error) {
	req = req.withDefaults()
	if strings.TrimSpace(req.Crop) == "" || strings.TrimSpace(req.Location) == "" {
		return nil, pricing.NewError(pricing.CodeInvalidInput, "crop and location are required")
	}

	key := cache.DayKey(cache.KeyParams{
		Crop:     req.Crop,
		Location: req.Location,
		Currency: req.Currency,
		Date:     cache.Today(),
		Mode:     string(req.Mode),
		Language: req.Language,
	})

	if cached, ok := cache.Get[pricing.MarketDataResponse](ctx, s.cache, key); ok {
		s.logger.Debug().Str("key", key).Msg("cache hit")
		return &cached, nil
	}

	result, err, _ := s.flight.Do(key, func() (any, error) {
		return s.buildResponse(ctx, req, key)
	})
	if err != nil {
		return nil, pricing.AsError(err, pricing.CodeNetworkError, "failed to fetch market data", true)
	}
	response := result.(*pricing.MarketDataResponse)
	return response, nil
}

// ClearCache wipes every cached entry. Used for forced refresh.
func (s *Service) ClearCache(ctx context.Context) {
	s.cache.ClearAll(ctx)
}

func (s *Service) buildResponse(ctx context.Context, req Request, key string) (*pricing.MarketDataResponse, error) {
	prices, err := s.fetchFromSources(ctx, req)
	if err != nil {
		return nil, err
	}

	normalized, err := s.normalizePrices(ctx, prices)
	if err != nil {
		return nil, err
	}

	stats, err := analysis.Analyze(normalized)
	if err != nil {
		return nil, err
	}

	response, err := s.shapeResponse(ctx, req, normalized, stats)
	if err != nil {
		return nil, err
	}

	s.archiveObservations(ctx, normalized)

	cache.Set(ctx, s.cache, key, response, s.ttl)
	return response, nil
}

// fetchFromSources walks the fallback chain: first source returning at
// least one usable record wins. A failing source is logged and skipped;
// retries happen inside the adapters, never here.
func (s *Service) fetchFromSources(ctx context.Context, req Request) ([]pricing.RawPrice, error) {
	query := source.Query{Crop: req.Crop, Location: req.Location, Currency: req.Currency}

	var lastErr error
	for _, src := range s.sources {
		prices, err := src.FetchPriceData(ctx, query)
		if err != nil {
			s.logger.Warn().Err(err).Str("source", src.Name()).Msg("source fetch failed, trying next")
			lastErr = err
			continue
		}
		if len(prices) > 0 {
			s.logger.Info().Str("source", src.Name()).Int("records", len(prices)).Msg("source fetch succeeded")
			return prices, nil
		}
	}

	if lastErr != nil {
		return nil, pricing.AsError(lastErr, pricing.CodeDataUnavailable, "all price sources failed", true)
	}
	return nil, pricing.NewError(pricing.CodeDataUnavailable,
		fmt.Sprintf("no price data available for %s in %s", req.Crop, req.Location))
}

func (s *Service) normalizePrices(ctx context.Context, prices []pricing.RawPrice) ([]pricing.NormalizedPrice, error) {
	normalized := make([]pricing.NormalizedPrice, 0, len(prices))
	for _, p := range prices {
		np, err := s.normalizePrice(ctx, p)
		if err != nil {
			return nil, err
		}
		normalized = append(normalized, np)
	}
	return normalized, nil
}

func (s *Service) normalizePrice(ctx context.Context, p pricing.RawPrice) (pricing.NormalizedPrice, error) {
	if p.Currency == pricing.USD {
		return pricing.NormalizedPrice{
			RawPrice:           p,
			NormalizedPrice:    p.Price,
			NormalizedCurrency: pricing.USD,
			ExchangeRate:       decimal.NewFromInt(1),
		}, nil
	}

	rate, err := s.rates.GetExchangeRate(ctx, p.Currency, pricing.USD)
	if err != nil {
		return pricing.NormalizedPrice{}, err
	}
	return pricing.NormalizedPrice{
		RawPrice:           p,
		NormalizedPrice:    p.Price.Mul(rate),
		NormalizedCurrency: pricing.USD,
		ExchangeRate:       rate,
	}, nil
}

func (s *Service) shapeResponse(ctx context.Context, req Request, normalized []pricing.NormalizedPrice, stats pricing.Analysis) (*pricing.MarketDataResponse, error) {
	convert := func(usdAmount float64) (decimal.Decimal, error) {
		return s.rates.ConvertAmount(ctx, decimal.NewFromFloat(usdAmount), pricing.USD, req.Currency)
	}

	priceToday, err := convert(stats.CurrentPrice)
	if err != nil {
		return nil, err
	}
	priceLastWeek, err := convert(stats.AveragePrice)
	if err != nil {
		return nil, err
	}

	adviceInput := advice.Input{
		Trend:          stats.Trend,
		Volatility:     stats.Volatility,
		PriceChangePct: stats.PriceChangePct,
		Language:       req.Language,
		Crop:           req.Crop,
		CurrentPrice:   &priceToday,
	}
	generated := s.advisor.Generate(adviceInput)

	response := &pricing.MarketDataResponse{
		Crop:            req.Crop,
		Location:        req.Location,
		PriceToday:      priceToday,
		PriceLastWeek:   priceLastWeek,
		Currency:        req.Currency,
		ChangePct:       stats.PriceChangePct,
		Trend:           stats.Trend,
		VolatilityScore: stats.Volatility,
		AnomalyFlag:     stats.AnomalyScore > anomalyFlagThreshold,
		Advice:          map[string]string{req.Language: generated.Advice},
		Source:          normalized[len(normalized)-1].Source,
		UpdatedAt:       time.Now().UTC(),
		Confidence:      generated.Confidence,
	}

	switch req.Mode {
	case pricing.ModeDashboard:
		metadata, err := s.dashboardMetadata(ctx, req, normalized, stats, convert)
		if err != nil {
			return nil, err
		}
		response.Metadata = metadata
	case pricing.ModeSMS:
		response.Advice = map[string]string{req.Language: s.advisor.GenerateSMS(adviceInput)}
	case pricing.ModeProAPI:
		metadata, err := s.proMetadata(normalized, stats, convert)
		if err != nil {
			return nil, err
		}
		response.Metadata = metadata
	}

	return response, nil
}

func (s *Service) dashboardMetadata(ctx context.Context, req Request, normalized []pricing.NormalizedPrice, stats pricing.Analysis, convert func(float64) (decimal.Decimal, error)) (*pricing.Metadata, error) {
	minPrice, err := convert(stats.MinPrice)
	if err != nil {
		return nil, err
	}
	maxPrice, err := convert(stats.MaxPrice)
	if err != nil {
		return nil, err
	}

	history := make([]pricing.HistoryPoint, 0, len(normalized))
	for _, p := range normalized {
		converted, err := s.rates.ConvertAmount(ctx, p.NormalizedPrice, pricing.USD, req.Currency)
		if err != nil {
			return nil, err
		}
		history = append(history, pricing.HistoryPoint{
			Price:  converted,
			Date:   p.Timestamp,
			Source: p.Source,
		})
	}

	return &pricing.Metadata{
		MinPrice:     &minPrice,
		MaxPrice:     &maxPrice,
		PriceHistory: history,
		ConfidenceIndicators: &pricing.ConfidenceIndicators{
			DataFreshness:     dataFreshness(normalized),
			SourceReliability: s.sourceReliability(normalized[len(normalized)-1].Source),
			DataConsistency:   math.Max(0, 1-stats.Volatility),
		},
	}, nil
}

func (s *Service) proMetadata(normalized []pricing.NormalizedPrice, stats pricing.Analysis, convert func(float64) (decimal.Decimal, error)) (*pricing.Metadata, error) {
	values := make([]float64, len(normalized))
	for i, p := range normalized {
		values[i] = p.NormalizedPrice.InexactFloat64()
	}

	sma7, err := s.trailingSMA(values, 7, convert)
	if err != nil {
		return nil, err
	}
	sma30, err := s.trailingSMA(values, 30, convert)
	if err != nil {
		return nil, err
	}

	support, err := convert(stats.MinPrice * 0.98)
	if err != nil {
		return nil, err
	}
	resistance, err := convert(stats.MaxPrice * 1.02)
	if err != nil {
		return nil, err
	}

	return &pricing.Metadata{
		RawData: normalized,
		Analysis: &pricing.IndicatorSet{
			MovingAverages:  pricing.MovingAverages{SMA7: sma7, SMA30: sma30},
			SupportLevel:    support,
			ResistanceLevel: resistance,
			RSI:             analysis.RSI(values),
			MACD:            analysis.ComputeMACD(values),
		},
	}, nil
}

// trailingSMA converts the newest SMA window, or nil when the series is
// shorter than the window.
func (s *Service) trailingSMA(values []float64, period int, convert func(float64) (decimal.Decimal, error)) (*decimal.Decimal, error) {
	averages, err := analysis.SMA(values, period)
	if err != nil {
		if pricing.CodeOf(err) == pricing.CodeInvalidInput {
			return nil, nil
		}
		return nil, err
	}
	converted, err := convert(averages[len(averages)-1])
	if err != nil {
		return nil, err
	}
	return &converted, nil
}

// dataFreshness scores how recent the newest observation is: 1 within
// the hour, linearly down to 0 at 24 hours.
func dataFreshness(normalized []pricing.NormalizedPrice) float64 {
	if len(normalized) == 0 {
		return 0
	}
	latest := normalized[0].Timestamp
	for _, p := range normalized[1:] {
		if p.Timestamp.After(latest) {
			latest = p.Timestamp
		}
	}
	hours := time.Since(latest).Hours()
	return math.Max(0, 1-hours/24)
}

func (s *Service) sourceReliability(name string) float64 {
	for _, src := range s.sources {
		if src.Name() == name {
			return src.Reliability()
		}
	}
	return source.DefaultReliability
}

// archiveObservations persists the normalized series when an archive is
// configured. Failures are logged, never surfaced: persistence is an
// audit trail, not part of the response contract.
func (s *Service) archiveObservations(ctx context.Context, normalized []pricing.NormalizedPrice) {
	if s.archive == nil {
		return
	}
	observations := make([]storage.Observation, 0, len(normalized))
	for _, p := range normalized {
		observations = append(observations, storage.Observation{
			Crop:          p.Crop,
			Location:      p.Location,
			Source:        p.Source,
			ObservedAt:    p.Timestamp,
			OriginalPrice: p.Price,
			Currency:      p.Currency,
			Unit:          p.Unit,
			PriceUSD:      p.NormalizedPrice,
			ExchangeRate:  p.ExchangeRate,
		})
	}
	if err := s.archive.UpsertObservations(ctx, observations); err != nil {
		s.logger.Error().Err(err).Int("observations", len(observations)).Msg("failed to archive observations")
	}
}
