package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	c := &Config{
		Environment: "test",
		Assets:      []string{"BTC", "ETH"},
	}
	c.Ingest.Mode = "poll"
	c.Engine.PollInterval = 30 * time.Minute
	c.Engine.Windows = []time.Duration{15 * time.Minute, time.Hour, 4 * time.Hour}
	c.Engine.MinAlignedPairs = 3
	c.Engine.TrendUpPct = 0.5
	c.Engine.TrendStrongPct = 2.0
	c.Mood.VolElevated = 0.002
	c.Mood.VolHigh = 0.005
	c.Mood.VolExtreme = 0.012
	c.Mood.CorrAligned = 0.6
	c.Mood.CorrInverse = -0.2
	c.Mood.MinDwellCycles = 3
	c.Decision.Channel = "twitter"
	c.Decision.MinActionInterval = 30 * time.Minute
	c.Decision.DedupLookback = 6 * time.Hour
	c.Decision.HeartbeatInterval = 4 * time.Hour
	c.CoinGecko.BaseURL = "https://api.coingecko.com/api/v3"
	c.Binance.WebSocketURL = "wss://stream.binance.com:9443/ws"
	return c
}

func TestValidateOK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{"missing environment", func(c *Config) { c.Environment = "" }, "environment"},
		{"single asset", func(c *Config) { c.Assets = []string{"BTC"} }, "two tracked assets"},
		{"bad ingest mode", func(c *Config) { c.Ingest.Mode = "batch" }, "ingest.mode"},
		{"zero poll interval", func(c *Config) { c.Engine.PollInterval = 0 }, "poll_interval"},
		{"no windows", func(c *Config) { c.Engine.Windows = nil }, "windows"},
		{"descending windows", func(c *Config) {
			c.Engine.Windows = []time.Duration{time.Hour, 15 * time.Minute}
		}, "ascending"},
		{"duplicate windows", func(c *Config) {
			c.Engine.Windows = []time.Duration{time.Hour, time.Hour}
		}, "ascending"},
		{"min aligned pairs too low", func(c *Config) { c.Engine.MinAlignedPairs = 1 }, "min_aligned_pairs"},
		{"trend thresholds inverted", func(c *Config) {
			c.Engine.TrendUpPct = 2.0
			c.Engine.TrendStrongPct = 0.5
		}, "trend"},
		{"zero dwell", func(c *Config) { c.Mood.MinDwellCycles = 0 }, "min_dwell_cycles"},
		{"vol thresholds not ascending", func(c *Config) { c.Mood.VolHigh = 0.02 }, "volatility thresholds"},
		{"corr thresholds crossed", func(c *Config) { c.Mood.CorrInverse = 0.7 }, "corr_inverse"},
		{"missing channel", func(c *Config) { c.Decision.Channel = "" }, "channel"},
		{"zero action interval", func(c *Config) { c.Decision.MinActionInterval = 0 }, "min_action_interval"},
		{"zero dedup lookback", func(c *Config) { c.Decision.DedupLookback = 0 }, "dedup_lookback"},
		{"heartbeat below poll interval", func(c *Config) {
			c.Decision.HeartbeatInterval = time.Minute
		}, "heartbeat_interval"},
		{"poll mode without coingecko", func(c *Config) { c.CoinGecko.BaseURL = "" }, "coingecko"},
		{"stream mode without binance", func(c *Config) {
			c.Ingest.Mode = "stream"
			c.Binance.WebSocketURL = ""
		}, "binance"},
	}
	for _, tc := range cases {
		c := validConfig()
		tc.mutate(c)
		err := c.Validate()
		if err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
		if !strings.Contains(err.Error(), tc.wantSub) {
			t.Fatalf("%s: error %q does not mention %q", tc.name, err, tc.wantSub)
		}
	}
}

func TestLoadFromYAML(t *testing.T) {
	yaml := `
environment: test
assets: [BTC, ETH, SOL]
ingest:
  mode: poll
engine:
  poll_interval: 30m
  windows: [15m, 1h, 4h]
  min_aligned_pairs: 3
  trend_up_pct: 0.5
  trend_strong_pct: 2.0
mood:
  vol_elevated: 0.002
  vol_high: 0.005
  vol_extreme: 0.012
  corr_aligned: 0.6
  corr_inverse: -0.2
  min_dwell_cycles: 3
decision:
  channel: twitter
  min_action_interval: 30m
  dedup_lookback: 6h
  heartbeat_interval: 4h
coingecko:
  base_url: https://api.coingecko.com/api/v3
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(c.Assets) != 3 || c.Assets[2] != "SOL" {
		t.Fatalf("assets: got %v", c.Assets)
	}
	if c.Engine.Windows[1] != time.Hour {
		t.Fatalf("windows: got %v", c.Engine.Windows)
	}
	if c.Decision.HeartbeatInterval != 4*time.Hour {
		t.Fatalf("heartbeat: got %v", c.Decision.HeartbeatInterval)
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	yaml := `
environment: test
assets: [BTC, ETH]
ingest:
  mode: poll
engine:
  poll_interval: 30m
  windows: [15m, 1h]
  min_aligned_pairs: 3
  trend_up_pct: 0.5
  trend_strong_pct: 2.0
mood:
  vol_elevated: 0.002
  vol_high: 0.005
  vol_extreme: 0.012
  corr_aligned: 0.6
  corr_inverse: -0.2
  min_dwell_cycles: 3
decision:
  channel: twitter
  min_action_interval: 30m
  dedup_lookback: 6h
  heartbeat_interval: 4h
coingecko:
  base_url: https://api.coingecko.com/api/v3
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	t.Setenv("COINGECKO_API_KEY", "cg-test-key")
	t.Setenv("ASSETS", "BTC,ETH,DOGE")

	c, err := LoadWithEnv(path)
	if err != nil {
		t.Fatalf("load with env: %v", err)
	}
	if c.CoinGecko.APIKey != "cg-test-key" {
		t.Fatalf("api key override: got %q", c.CoinGecko.APIKey)
	}
	if len(c.Assets) != 3 || c.Assets[2] != "DOGE" {
		t.Fatalf("assets override: got %v", c.Assets)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
