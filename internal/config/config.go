package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"slices"
	"strings"

	"HorizonTrader/internal/model"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Binance struct {
		APIKey    string `yaml:"api_key" env:"BINANCE_API_KEY"`
		SecretKey string `yaml:"secret_key" env:"BINANCE_SCR_KEY"`
		Testnet   bool   `yaml:"testnet" env:"BINANCE_TESTNET"`
	} `yaml:"binance"`
	Telegram struct {
		BotToken string `yaml:"bot_token" env:"TELEGRAM_BOT_TOKEN"`
		ChatID   string `yaml:"chat_id" env:"TELEGRAM_CHAT_ID"`
	} `yaml:"telegram"`
	Trading struct {
		Symbols           []string                                  `yaml:"symbols" env:"TRADED_SYMBOLS" envSeparator:","`
		InitialInvestment float64                                   `yaml:"initial_investment" env:"INITIAL_USDT_INVESTMENT"`
		InitialBalances   map[string]float64                        `yaml:"initial_balances"`
		Thresholds        map[string]map[string]model.ThresholdRule `yaml:"thresholds"`
		QueueSize         int                                       `yaml:"queue_size" env:"ORDER_QUEUE_SIZE"`
	} `yaml:"trading"`
	Account struct {
		Assets         []string           `yaml:"assets"`
		WalletBalances map[string]float64 `yaml:"wallet_balances"`
		Investment     float64            `yaml:"investment" env:"ACCOUNT_INVESTMENT"`
	} `yaml:"account"`
	Storage struct {
		PriceFile   string `yaml:"price_file" env:"PRICE_FILE"`
		BalanceFile string `yaml:"balance_file" env:"BALANCE_FILE"`
		SQLitePath  string `yaml:"sqlite_path" env:"SQLITE_PATH"`
	} `yaml:"storage"`
	Redis struct {
		URL string `yaml:"url" env:"REDIS_URL"`
	} `yaml:"redis"`
	HTTP struct {
		Addr string `yaml:"addr" env:"HTTP_ADDR"`
	} `yaml:"http"`
	Log struct {
		File       string `yaml:"file" env:"LOG_FILE"`
		MaxSizeMB  int    `yaml:"max_size_mb" env:"LOG_MAX_SIZE_MB"`
		MaxBackups int    `yaml:"max_backups" env:"LOG_MAX_BACKUPS"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy" env:"HTTPS_PROXY"`
}

// Load reads config from a YAML file and a .env file, then applies
// environment variable overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	} else {
		log.Printf("[WARN] no config at %s, using defaults", path)
	}

	// Environment variable overrides
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if len(c.Trading.Symbols) == 0 {
		c.Trading.Symbols = []string{"ADAUSDT", "VETUSDT"}
	}
	if c.Trading.InitialInvestment == 0 {
		c.Trading.InitialInvestment = 120
	}
	if len(c.Trading.InitialBalances) == 0 {
		c.Trading.InitialBalances = map[string]float64{model.QuoteAsset: c.Trading.InitialInvestment}
		for _, s := range c.Trading.Symbols {
			c.Trading.InitialBalances[s] = 0
		}
	}
	if len(c.Trading.Thresholds) == 0 {
		c.Trading.Thresholds = DefaultThresholds()
	}
	if c.Trading.QueueSize == 0 {
		c.Trading.QueueSize = 64
	}
	if len(c.Account.Assets) == 0 {
		c.Account.Assets = []string{"ETH", "ADA", "DOT", "VET", "DOGE"}
	}
	if c.Storage.PriceFile == "" {
		c.Storage.PriceFile = "data/last_evaluated_prices.json"
	}
	if c.Storage.BalanceFile == "" {
		c.Storage.BalanceFile = "data/traded_asset_amounts.json"
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "data/horizon_trader.db"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 20
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 50
	}
}

// DefaultThresholds is the rule table the trader starts with when the
// config file has none. Keys are horizon labels.
func DefaultThresholds() map[string]map[string]model.ThresholdRule {
	rule := func(buyPct, buyQty, sellPct, sellQty float64) model.ThresholdRule {
		return model.ThresholdRule{
			Buy:  model.Trigger{Percent: buyPct, Quantity: buyQty},
			Sell: model.Trigger{Percent: sellPct, Quantity: sellQty},
		}
	}
	return map[string]map[string]model.ThresholdRule{
		"ADAUSDT": {
			"10s": rule(-0.08, 10, 0.04, 10),
			"10m": rule(-0.1, 10, 0.07, 10),
			"30m": rule(-0.3, 10, 0.1, 10),
			"1h":  rule(-0.5, 10, 0.5, 10),
			"12h": rule(-2, 10, 2, 20),
		},
		"VETUSDT": {
			"10s": rule(-0.05, 200, 0.05, 200),
			"10m": rule(-0.1, 200, 0.07, 300),
			"30m": rule(-0.3, 200, 0.5, 400),
			"1h":  rule(-0.5, 200, 0.7, 500),
			"12h": rule(-3, 500, 4, 1000),
		},
	}
}

// Thresholds converts the configured table to horizon keyed rules.
func (c *Config) Thresholds() (model.Thresholds, error) {
	out := make(model.Thresholds, len(c.Trading.Thresholds))
	for symbol, rules := range c.Trading.Thresholds {
		out[symbol] = make(map[model.Horizon]model.ThresholdRule, len(rules))
		for key, rule := range rules {
			h, err := model.ParseHorizon(key)
			if err != nil {
				return nil, fmt.Errorf("trading.thresholds.%s: %w", symbol, err)
			}
			out[symbol][h] = rule
		}
	}
	return out, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Binance.APIKey == "" || c.Binance.SecretKey == "" {
		return fmt.Errorf("binance.api_key and binance.secret_key are required")
	}
	if len(c.Trading.Symbols) == 0 {
		return fmt.Errorf("trading.symbols must not be empty")
	}
	for _, s := range c.Trading.Symbols {
		if !strings.HasSuffix(s, model.QuoteAsset) || s == model.QuoteAsset {
			return fmt.Errorf("trading.symbols: %s is not a %s pair", s, model.QuoteAsset)
		}
	}
	if c.Trading.InitialInvestment <= 0 {
		return fmt.Errorf("trading.initial_investment must be positive")
	}
	if c.Trading.QueueSize < 1 {
		return fmt.Errorf("trading.queue_size must be at least 1")
	}
	for asset, amount := range c.Trading.InitialBalances {
		if amount < 0 {
			return fmt.Errorf("trading.initial_balances.%s must not be negative", asset)
		}
		if asset != model.QuoteAsset && !slices.Contains(c.Trading.Symbols, asset) {
			return fmt.Errorf("trading.initial_balances.%s is not a traded symbol", asset)
		}
	}
	if _, ok := c.Trading.InitialBalances[model.QuoteAsset]; !ok {
		return fmt.Errorf("trading.initial_balances.%s is required", model.QuoteAsset)
	}

	thresholds, err := c.Thresholds()
	if err != nil {
		return err
	}
	for _, s := range c.Trading.Symbols {
		if _, ok := thresholds[s]; !ok {
			return fmt.Errorf("trading.thresholds: no rules for %s", s)
		}
	}
	for symbol, rules := range thresholds {
		for h, r := range rules {
			if r.Buy.Percent >= r.Sell.Percent {
				return fmt.Errorf("trading.thresholds.%s.%s: buy percent must be below sell percent", symbol, h)
			}
			if r.Buy.Quantity < 0 || r.Sell.Quantity < 0 {
				return fmt.Errorf("trading.thresholds.%s.%s: quantities must not be negative", symbol, h)
			}
		}
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}
