package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rustyeddy/riskbook/market"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config is the complete application configuration.
type Config struct {
	Account AccountConfig `json:"account" yaml:"account"`
	Risk    RiskConfig    `json:"risk" yaml:"risk"`
	Pricing PricingConfig `json:"pricing" yaml:"pricing"`
	Store   StoreConfig   `json:"store" yaml:"store"`
	Log     LogConfig     `json:"log" yaml:"log"`
}

type AccountConfig struct {
	Currency       string  `json:"currency" yaml:"currency"`
	InitialBalance float64 `json:"initial_balance" yaml:"initial_balance"`
}

// Balance returns the initial balance as a decimal.
func (a AccountConfig) Balance() decimal.Decimal {
	return decimal.NewFromFloat(a.InitialBalance)
}

type RiskConfig struct {
	DefaultPercent float64 `json:"default_percent" yaml:"default_percent"` // 1 means 1%
	LotPrecision   int     `json:"lot_precision" yaml:"lot_precision"`
	DefaultPair    string  `json:"default_pair" yaml:"default_pair"`
}

// PricingConfig selects the quote source. Secrets are read from the
// environment, never from the file.
type PricingConfig struct {
	Provider      string `json:"provider" yaml:"provider"` // twelvedata, oanda, binance, router
	BaseURL       string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Timeout       string `json:"timeout" yaml:"timeout"`
	Refresh       string `json:"refresh" yaml:"refresh"`
	RatePerMinute int    `json:"rate_per_minute" yaml:"rate_per_minute"`
	OANDAAccount  string `json:"oanda_account,omitempty" yaml:"oanda_account,omitempty"`
	OANDAEnv      string `json:"oanda_env,omitempty" yaml:"oanda_env,omitempty"`

	TwelveDataKey string `json:"-" yaml:"-"`
	OANDAToken    string `json:"-" yaml:"-"`
	BinanceKey    string `json:"-" yaml:"-"`
	BinanceSecret string `json:"-" yaml:"-"`
}

type StoreConfig struct {
	Type     string `json:"type" yaml:"type"` // file, sqlite, redis, memory
	Path     string `json:"path,omitempty" yaml:"path,omitempty"`
	Addr     string `json:"addr,omitempty" yaml:"addr,omitempty"`
	DB       int    `json:"db,omitempty" yaml:"db,omitempty"`
	Key      string `json:"key" yaml:"key"`
	Password string `json:"-" yaml:"-"`
}

type LogConfig struct {
	Level string `json:"level" yaml:"level"`
}

func (p PricingConfig) TimeoutDuration() (time.Duration, error) {
	return parseDuration(p.Timeout)
}

// RefreshDuration is the price poll interval, DefaultRefresh when unset.
func (p PricingConfig) RefreshDuration() (time.Duration, error) {
	if p.Refresh == "" {
		return DefaultRefresh, nil
	}
	return parseDuration(p.Refresh)
}

const DefaultRefresh = time.Minute

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// LoadFromFile loads configuration from a YAML or JSON file, then applies
// secrets from the environment.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}
	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadDotEnv reads KEY=VALUE pairs from the given files into the process
// environment without overriding variables already set. Missing files are
// ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv copies provider secrets and overrides from the environment.
func (c *Config) ApplyEnv() {
	c.Pricing.TwelveDataKey = os.Getenv("TWELVEDATA_API_KEY")
	c.Pricing.OANDAToken = os.Getenv("OANDA_TOKEN")
	c.Pricing.BinanceKey = os.Getenv("BINANCE_API_KEY")
	c.Pricing.BinanceSecret = os.Getenv("BINANCE_SECRET_KEY")
	c.Store.Password = os.Getenv("RISKBOOK_REDIS_PASSWORD")
	if v := os.Getenv("OANDA_ACCOUNT"); v != "" {
		c.Pricing.OANDAAccount = v
	}
	if v := os.Getenv("RISKBOOK_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// SaveToFile saves configuration as YAML or JSON based on the extension.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Account.Currency != "USD" {
		return fmt.Errorf("account.currency must be USD")
	}
	if c.Account.InitialBalance <= 0 {
		return fmt.Errorf("account.initial_balance must be positive")
	}
	if c.Risk.DefaultPercent <= 0 || c.Risk.DefaultPercent > 100 {
		return fmt.Errorf("risk.default_percent must be in (0, 100]")
	}
	if c.Risk.LotPrecision < 0 || c.Risk.LotPrecision > 8 {
		return fmt.Errorf("risk.lot_precision must be between 0 and 8")
	}
	if c.Risk.DefaultPair != "" {
		if _, err := market.Parse(c.Risk.DefaultPair); err != nil {
			return fmt.Errorf("risk.default_pair: %w", err)
		}
	}

	switch c.Pricing.Provider {
	case "twelvedata", "oanda", "binance", "router":
	default:
		return fmt.Errorf("pricing.provider must be one of twelvedata, oanda, binance, router")
	}
	if c.Pricing.Provider == "oanda" && c.Pricing.OANDAAccount == "" {
		return fmt.Errorf("pricing.oanda_account required for oanda provider")
	}
	if to, err := c.Pricing.TimeoutDuration(); err != nil {
		return fmt.Errorf("pricing.timeout: %w", err)
	} else if to < 0 {
		return fmt.Errorf("pricing.timeout must not be negative")
	}
	if every, err := c.Pricing.RefreshDuration(); err != nil {
		return fmt.Errorf("pricing.refresh: %w", err)
	} else if every <= 0 {
		return fmt.Errorf("pricing.refresh must be positive")
	}
	if c.Pricing.RatePerMinute < 0 {
		return fmt.Errorf("pricing.rate_per_minute must not be negative")
	}

	switch c.Store.Type {
	case "file", "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("store.path required for %s store", c.Store.Type)
		}
	case "redis":
		if c.Store.Addr == "" {
			return fmt.Errorf("store.addr required for redis store")
		}
	case "memory":
	default:
		return fmt.Errorf("store.type must be 'file', 'sqlite', 'redis' or 'memory'")
	}
	if c.Store.Key == "" {
		return fmt.Errorf("store.key is required")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			Currency:       "USD",
			InitialBalance: 5000,
		},
		Risk: RiskConfig{
			DefaultPercent: 1,
			LotPrecision:   2,
			DefaultPair:    "EUR/USD",
		},
		Pricing: PricingConfig{
			Provider:      "twelvedata",
			Timeout:       "10s",
			Refresh:       "1m",
			RatePerMinute: 8,
			OANDAEnv:      "practice",
		},
		Store: StoreConfig{
			Type: "file",
			Path: "./riskbook-data",
			Key:  "fundingChallengeState",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
