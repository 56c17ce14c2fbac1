// Package config loads the agent configuration from YAML with environment
// overrides for credentials, endpoints, and poll intervals.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/meridian-trading/meridian/pkg/errors"
)

// Env variable names recognized as overrides.
const (
	EnvAPIKeyID          = "APCA_API_KEY_ID"
	EnvAPISecretKey      = "APCA_API_SECRET_KEY"
	EnvAPIBaseURL        = "APCA_API_BASE_URL"
	EnvFinnhubToken      = "FINNHUB_TOKEN"
	EnvIntervalMillis    = "API_INTERVAL_MILLIS"
	EnvAlpacaFeedEnabled = "ALPACA_FEED_ENABLED"
	EnvFinnhubEnabled    = "FINNHUB_FEED_ENABLED"
	EnvUpdatesEnabled    = "TRADE_UPDATES_ENABLED"
)

// AlpacaConfig holds broker credentials and endpoints.
type AlpacaConfig struct {
	KeyID         string `yaml:"key_id" validate:"required"`
	SecretKey     string `yaml:"secret_key" validate:"required"`
	BaseURL       string `yaml:"base_url" validate:"required,url"`
	MarketDataURL string `yaml:"market_data_url" validate:"required"`
	UpdatesURL    string `yaml:"updates_url" validate:"required"`
}

// FinnhubConfig holds the Finnhub stream endpoint and token.
type FinnhubConfig struct {
	URL   string `yaml:"url" validate:"required"`
	Token string `yaml:"token" validate:"required"`
}

// FeedsConfig enables or disables individual ingestion sources.
type FeedsConfig struct {
	AlpacaMarketData bool `yaml:"alpaca_market_data"`
	AlpacaUpdates    bool `yaml:"alpaca_updates"`
	Finnhub          bool `yaml:"finnhub"`
}

// PollerConfig holds the REST polling intervals.
type PollerConfig struct {
	OpenInterval   time.Duration `yaml:"open_interval" validate:"gt=0"`
	ClosedInterval time.Duration `yaml:"closed_interval" validate:"gt=0"`
}

// TradingConfig holds trading behavior toggles.
type TradingConfig struct {
	ExtendedHours bool `yaml:"extended_hours"`
}

// Config is the full agent configuration.
type Config struct {
	Database string        `yaml:"database" validate:"required"`
	LogLevel string        `yaml:"log_level"`
	Alpaca   AlpacaConfig  `yaml:"alpaca"`
	Finnhub  FinnhubConfig `yaml:"finnhub"`
	Feeds    FeedsConfig   `yaml:"feeds"`
	Poller   PollerConfig  `yaml:"poller"`
	Trading  TradingConfig `yaml:"trading"`
	Symbols  []string      `yaml:"symbols" validate:"required,min=1"`
}

// DefaultConfig returns a config with the intervals and feed flags used when
// the YAML omits them.
func DefaultConfig() Config {
	return Config{
		Database: "meridian.db",
		LogLevel: "info",
		Alpaca: AlpacaConfig{
			BaseURL:       "https://paper-api.alpaca.markets",
			MarketDataURL: "wss://stream.data.alpaca.markets/v2/iex",
			UpdatesURL:    "wss://paper-api.alpaca.markets/stream",
		},
		Finnhub: FinnhubConfig{
			URL: "wss://ws.finnhub.io",
		},
		Feeds: FeedsConfig{
			AlpacaMarketData: true,
			AlpacaUpdates:    true,
			Finnhub:          true,
		},
		Poller: PollerConfig{
			OpenInterval:   3000 * time.Millisecond,
			ClosedInterval: 10000 * time.Millisecond,
		},
	}
}

// Load reads the YAML file at path, applies environment overrides, and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to read config file", err)
	}

	return Parse(data)
}

// Parse decodes YAML bytes into a Config, applies environment overrides, and
// validates the result.
func Parse(data []byte) (*Config, error) {
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config", err)
	}

	config.applyEnv()

	// vendors expect uppercase tickers in subscriptions and report them
	// uppercase in trade frames and position snapshots
	for i, symbol := range config.Symbols {
		config.Symbols[i] = strings.ToUpper(symbol)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate validates the Config struct.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAPIKeyID); v != "" {
		c.Alpaca.KeyID = v
	}

	if v := os.Getenv(EnvAPISecretKey); v != "" {
		c.Alpaca.SecretKey = v
	}

	if v := os.Getenv(EnvAPIBaseURL); v != "" {
		c.Alpaca.BaseURL = v
	}

	if v := os.Getenv(EnvFinnhubToken); v != "" {
		c.Finnhub.Token = v
	}

	if v := os.Getenv(EnvIntervalMillis); v != "" {
		if millis, err := strconv.Atoi(v); err == nil && millis > 0 {
			c.Poller.OpenInterval = time.Duration(millis) * time.Millisecond
		}
	}

	if v := os.Getenv(EnvAlpacaFeedEnabled); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.Feeds.AlpacaMarketData = enabled
		}
	}

	if v := os.Getenv(EnvFinnhubEnabled); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.Feeds.Finnhub = enabled
		}
	}

	if v := os.Getenv(EnvUpdatesEnabled); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.Feeds.AlpacaUpdates = enabled
		}
	}
}
