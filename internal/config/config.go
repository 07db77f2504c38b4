// Package config loads the confluence engine configuration from YAML. The engine
// itself never touches files or the environment; callers load a Config here and
// hand the plain values in.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the full configuration surface for the confluence binary.
type Config struct {
	Confluence ConfluenceConfig `yaml:"confluence"`
	Indicators IndicatorConfig  `yaml:"indicators"`
	Sentiment  SentimentConfig  `yaml:"sentiment"`
	Cache      CacheConfig      `yaml:"cache"`
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
}

// ConfluenceConfig is the confluence-section layer: entries here override both the
// hard-coded defaults and the per-component weights.
type ConfluenceConfig struct {
	Weights          map[string]float64 `yaml:"weights"`           // component weight overrides, highest priority
	TimeframeWeights map[string]float64 `yaml:"timeframe_weights"` // base/ltf/mtf/htf overrides
	MinBaseBars      int                `yaml:"min_base_bars" default:"50" validate:"gt=0"`
}

// IndicatorConfig carries per-component technical indicator settings.
type IndicatorConfig struct {
	Weights   map[string]float64 `yaml:"weights"` // per-component layer, overrides defaults only
	Lookbacks LookbackConfig     `yaml:"lookbacks"`
}

// LookbackConfig sets the base-timeframe minimum history per indicator. Lower
// timeframes scale these down (80%/70%/50% for ltf/mtf/htf).
type LookbackConfig struct {
	RSI               int `yaml:"rsi" default:"15" validate:"gt=0"`
	MACD              int `yaml:"macd" default:"35" validate:"gt=0"`
	AwesomeOscillator int `yaml:"awesome_oscillator" default:"34" validate:"gt=0"`
	WilliamsR         int `yaml:"williams_r" default:"14" validate:"gt=0"`
	ATR               int `yaml:"atr" default:"15" validate:"gt=0"`
	CCI               int `yaml:"cci" default:"20" validate:"gt=0"`
}

// SentimentConfig carries the sentiment component settings.
type SentimentConfig struct {
	Weights      map[string]float64 `yaml:"weights"` // per-component layer for sentiment keys
	FundingSplit FundingSplit       `yaml:"funding_split"`
	Sigmoid      SigmoidConfig      `yaml:"sigmoid"`
}

// FundingSplit controls how the funding component blends the rate score with the
// funding volatility score. It is independent of the weight map: the two configured
// funding weights are summed into one component weight, and this split divides the
// component internally.
type FundingSplit struct {
	Rate       float64 `yaml:"rate" default:"0.7" validate:"gte=0,lte=1"`
	Volatility float64 `yaml:"volatility" default:"0.3" validate:"gte=0,lte=1"`
}

// SigmoidConfig sets the per-indicator sigmoid sensitivity used to sharpen scores
// around the neutral midpoint. Zero disables the transform for that indicator.
type SigmoidConfig struct {
	FundingRate    float64 `yaml:"funding_rate" default:"0.1" validate:"gte=0"`
	LongShortRatio float64 `yaml:"long_short_ratio" validate:"gte=0"`
	Liquidations   float64 `yaml:"liquidations" validate:"gte=0"`
}

// CacheConfig configures the optional Redis result cache. Disabled by default; the
// engine is correct without it.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Addr    string        `yaml:"addr" default:"localhost:6379"`
	DB      int           `yaml:"db" validate:"gte=0"`
	TTL     time.Duration `yaml:"ttl" default:"5m"`
}

// ServerConfig configures the scoring HTTP API.
type ServerConfig struct {
	Addr            string        `yaml:"addr" default:":8087"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"15s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	RateLimit       float64       `yaml:"rate_limit" default:"20" validate:"gt=0"`  // requests per second
	RateBurst       int           `yaml:"rate_burst" default:"40" validate:"gt=0"`
}

// DatabaseConfig configures the optional PostgreSQL result store.
type DatabaseConfig struct {
	Enabled bool          `yaml:"enabled"`
	DSN     string        `yaml:"dsn"`
	Timeout time.Duration `yaml:"timeout" default:"5s"`
}

// Default returns a Config with all defaults applied and no file input.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply config defaults: %w", err)
	}
	return cfg, nil
}

// Load reads a YAML config file, applies defaults to unset fields, and validates.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field constraints and cross-field invariants.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	if sum := c.Sentiment.FundingSplit.Rate + c.Sentiment.FundingSplit.Volatility; sum <= 0 {
		return fmt.Errorf("funding split sums to %f, need > 0", sum)
	}
	if c.Database.Enabled && c.Database.DSN == "" {
		return fmt.Errorf("database enabled without dsn")
	}
	return nil
}

// ComponentLayer merges the indicator and sentiment per-component weight layers,
// the middle priority of the three weight sources.
func (c *Config) ComponentLayer() map[string]float64 {
	out := make(map[string]float64, len(c.Indicators.Weights)+len(c.Sentiment.Weights))
	for k, v := range c.Indicators.Weights {
		out[k] = v
	}
	for k, v := range c.Sentiment.Weights {
		out[k] = v
	}
	return out
}
