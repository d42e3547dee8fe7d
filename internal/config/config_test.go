package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"HorizonTrader/internal/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(cfg.Trading.Symbols) != 2 || cfg.Trading.Symbols[0] != "ADAUSDT" {
		t.Errorf("symbols = %v", cfg.Trading.Symbols)
	}
	if cfg.Trading.InitialInvestment != 120 {
		t.Errorf("initial investment = %v", cfg.Trading.InitialInvestment)
	}
	if cfg.Log.MaxSizeMB != 20 || cfg.Log.MaxBackups != 50 {
		t.Errorf("log rotation = %dMB x %d", cfg.Log.MaxSizeMB, cfg.Log.MaxBackups)
	}
	want := map[string]float64{"ADAUSDT": 0, "VETUSDT": 0, "USDT": 120}
	for k, v := range want {
		if got, ok := cfg.Trading.InitialBalances[k]; !ok || got != v {
			t.Errorf("initial balance %s = %v, want %v", k, got, v)
		}
	}

	th, err := cfg.Thresholds()
	if err != nil {
		t.Fatalf("Thresholds: %v", err)
	}
	rule, ok := th.Lookup("VETUSDT", model.Horizon12Hours)
	if !ok || rule.Buy.Percent != -3 || rule.Sell.Quantity != 1000 {
		t.Errorf("VETUSDT 12h rule = %+v (found %v)", rule, ok)
	}
}

func TestLoad_YAMLAndEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
binance:
  api_key: file-key
  secret_key: file-secret
trading:
  symbols: [ADAUSDT]
  initial_investment: 50
  initial_balances:
    ADAUSDT: 5
    USDT: 50
  thresholds:
    ADAUSDT:
      "10": {buy: {percent: -1, quantity: 2}, sell: {percent: 1, quantity: 3}}
      1h: {buy: {percent: -2, quantity: 2}, sell: {percent: 2, quantity: 3}}
`)
	t.Setenv("BINANCE_API_KEY", "env-key")
	t.Setenv("HTTP_ADDR", ":9999")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Binance.APIKey != "env-key" {
		t.Errorf("api key = %q, want env override", cfg.Binance.APIKey)
	}
	if cfg.Binance.SecretKey != "file-secret" {
		t.Errorf("secret key = %q, want file value", cfg.Binance.SecretKey)
	}
	if cfg.HTTP.Addr != ":9999" {
		t.Errorf("http addr = %q", cfg.HTTP.Addr)
	}

	th, err := cfg.Thresholds()
	if err != nil {
		t.Fatalf("Thresholds: %v", err)
	}
	if r, ok := th.Lookup("ADAUSDT", model.Horizon10Sec); !ok || r.Sell.Quantity != 3 {
		t.Errorf("10s rule = %+v", r)
	}
	if _, ok := th.Lookup("ADAUSDT", model.Horizon1Hour); !ok {
		t.Error("1h rule missing")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		cfg.Binance.APIKey, cfg.Binance.SecretKey = "k", "s"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(*Config) {}, ""},
		{"missing keys", func(c *Config) { c.Binance.SecretKey = "" }, "binance"},
		{"non usdt pair", func(c *Config) { c.Trading.Symbols = []string{"ADABTC"} }, "not a USDT pair"},
		{"negative balance", func(c *Config) { c.Trading.InitialBalances["ADAUSDT"] = -1 }, "negative"},
		{"untraded balance", func(c *Config) { c.Trading.InitialBalances["DOGEUSDT"] = 1 }, "not a traded symbol"},
		{"no usdt", func(c *Config) { delete(c.Trading.InitialBalances, "USDT") }, "USDT is required"},
		{"bad horizon", func(c *Config) {
			c.Trading.Thresholds["ADAUSDT"]["5m"] = model.ThresholdRule{}
		}, "unknown horizon"},
		{"inverted rule", func(c *Config) {
			c.Trading.Thresholds["ADAUSDT"]["10s"] = model.ThresholdRule{
				Buy:  model.Trigger{Percent: 1},
				Sell: model.Trigger{Percent: -1},
			}
		}, "buy percent"},
		{"half telegram", func(c *Config) { c.Telegram.BotToken = "t" }, "telegram"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
