package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"cropintel/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Logging  logging.Config `mapstructure:"logging"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Exchange ExchangeConfig `mapstructure:"exchange"`
	Sources  SourcesConfig  `mapstructure:"sources"`
	Database DatabaseConfig `mapstructure:"database"`
	Export   ExportConfig   `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// CacheConfig governs the two-tier cache.
type CacheConfig struct {
	// RedisAddr enables the durable tier when non-empty.
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisDB       int           `mapstructure:"redis_db"`
	ResponseTTL   time.Duration `mapstructure:"response_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// ExchangeConfig covers the currency-rate API.
type ExchangeConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	AppID          string        `mapstructure:"app_id"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	RateTTL        time.Duration `mapstructure:"rate_ttl"`
}

// SourceConfig parameterises one upstream price provider.
type SourceConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Retries        int           `mapstructure:"retries"`
	LookbackDays   int           `mapstructure:"lookback_days"`
}

// SourcesConfig lists the provider adapters. WFP is tried first.
type SourcesConfig struct {
	WFP              SourceConfig `mapstructure:"wfp"`
	TradingEconomics SourceConfig `mapstructure:"trading_economics"`
}

// DatabaseConfig encapsulates the optional observation archive.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// ExportConfig sets chart/history command behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CROPINTEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "cropintel")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("cache.response_ttl", "30m")
	v.SetDefault("cache.sweep_interval", "5m")

	v.SetDefault("exchange.base_url", "https://open.forex-api.com/v6")
	v.SetDefault("exchange.request_timeout", "10s")
	v.SetDefault("exchange.rate_ttl", "1h")

	v.SetDefault("sources.wfp.base_url", "https://api.vam.wfp.org/api/prices")
	v.SetDefault("sources.wfp.request_timeout", "10s")
	v.SetDefault("sources.wfp.retries", 2)
	v.SetDefault("sources.wfp.lookback_days", 30)

	v.SetDefault("sources.trading_economics.base_url", "https://api.tradingeconomics.com/markets/commodity")
	v.SetDefault("sources.trading_economics.request_timeout", "10s")
	v.SetDefault("sources.trading_economics.retries", 2)
	v.SetDefault("sources.trading_economics.lookback_days", 30)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.migrations_path", "migrations")

	v.SetDefault("export.max_data_points", 1000)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Cache.ResponseTTL <= 0 {
		return fmt.Errorf("cache.response_ttl must be greater than zero")
	}
	if c.Exchange.RateTTL <= 0 {
		return fmt.Errorf("exchange.rate_ttl must be greater than zero")
	}
	if c.Sources.WFP.Retries < 0 || c.Sources.TradingEconomics.Retries < 0 {
		return fmt.Errorf("source retries cannot be negative")
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
