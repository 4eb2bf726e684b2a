package app

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"cropintel/internal/advice"
	"cropintel/internal/cache"
	"cropintel/internal/config"
	"cropintel/internal/exchange"
	"cropintel/internal/pricing"
	"cropintel/internal/service"
	"cropintel/internal/source"
	"cropintel/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI
// commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

// newCache builds the two-tier cache. Without a Redis address the cache
// is memory-only.
func (a *App) newCache() *cache.Manager {
	var client *redis.Client
	if a.Config.Cache.RedisAddr != "" {
		client = redis.NewClient(&redis.Options{
			Addr: a.Config.Cache.RedisAddr,
			DB:   a.Config.Cache.RedisDB,
		})
	} else {
		a.Logger.Warn().Msg("cache.redis_addr not configured; durable cache tier disabled")
	}
	return cache.NewManager(cache.Options{
		Redis:         client,
		SweepInterval: a.Config.Cache.SweepInterval,
	}, a.Logger)
}

func (a *App) newExchange(cacheManager *cache.Manager) *exchange.Service {
	return exchange.New(exchange.Options{
		BaseURL: a.Config.Exchange.BaseURL,
		AppID:   a.Config.Exchange.AppID,
		Timeout: a.Config.Exchange.RequestTimeout,
		TTL:     a.Config.Exchange.RateTTL,
	}, cacheManager, a.Logger)
}

// newSources returns the fallback chain in priority order.
func (a *App) newSources() []source.DataSource {
	wfp := source.NewWFP(source.Config{
		BaseURL:      a.Config.Sources.WFP.BaseURL,
		APIKey:       a.Config.Sources.WFP.APIKey,
		Timeout:      a.Config.Sources.WFP.RequestTimeout,
		Retries:      a.Config.Sources.WFP.Retries,
		LookbackDays: a.Config.Sources.WFP.LookbackDays,
	}, a.Logger)

	te := source.NewTradingEconomics(source.Config{
		BaseURL:      a.Config.Sources.TradingEconomics.BaseURL,
		APIKey:       a.Config.Sources.TradingEconomics.APIKey,
		Timeout:      a.Config.Sources.TradingEconomics.RequestTimeout,
		Retries:      a.Config.Sources.TradingEconomics.Retries,
		LookbackDays: a.Config.Sources.TradingEconomics.LookbackDays,
	}, a.Logger)

	return []source.DataSource{wfp, te}
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// newService wires the orchestrator and returns a cleanup func.
func (a *App) newService(ctx context.Context) (*service.Service, func(), error) {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	if store == nil {
		a.Logger.Debug().Msg("database.dsn not configured; observation archive disabled")
	}

	cacheManager := a.newCache()
	rates := a.newExchange(cacheManager)
	advisor := advice.New(a.Logger)

	var archive storage.ObservationStore
	if store != nil {
		archive = store
	}

	svc := service.New(service.Options{
		ResponseTTL: a.Config.Cache.ResponseTTL,
	}, cacheManager, rates, a.newSources(), advisor, archive, a.Logger)

	cleanup := func() {
		cacheManager.Close()
		if closeStore != nil {
			closeStore()
		}
	}
	return svc, cleanup, nil
}

// QueryOptions parameterise the query command.
type QueryOptions struct {
	Crop     string
	Location string
	Currency string
	Mode     pricing.OutputMode
	Language string
}

// RatesOptions parameterise the rates command.
type RatesOptions struct {
	Amount float64
	From   string
	To     string
}

// HistoryOptions configure the history command.
type HistoryOptions struct {
	Crop     string
	Location string
	Limit    int
}

// ChartOptions configure the chart command.
type ChartOptions struct {
	Crop      string
	Location  string
	From      *time.Time
	To        *time.Time
	PNGPath   string
	MaxPoints int
}
