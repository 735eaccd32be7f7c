package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string   `yaml:"environment"`
	Assets      []string `yaml:"assets"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Ingest struct {
		Mode             string        `yaml:"mode"` // poll, stream, or both
		ClockSkew        time.Duration `yaml:"clock_skew_tolerance"`
		StreamMaxRPS     int           `yaml:"stream_max_rps"`
		StreamBufferSize int           `yaml:"stream_buffer_size"`
	} `yaml:"ingest"`
	Engine struct {
		PollInterval    time.Duration   `yaml:"poll_interval"`
		Windows         []time.Duration `yaml:"windows"` // ascending, short to long
		AlignTolerance  time.Duration   `yaml:"align_tolerance"`
		MinAlignedPairs int             `yaml:"min_aligned_pairs"`
		TrendUpPct      float64         `yaml:"trend_up_pct"`
		TrendStrongPct  float64         `yaml:"trend_strong_pct"`
		VolumeModPct    float64         `yaml:"volume_moderate_pct"`
		VolumeSigPct    float64         `yaml:"volume_significant_pct"`
	} `yaml:"engine"`
	Mood struct {
		VolElevated    float64 `yaml:"vol_elevated"`
		VolHigh        float64 `yaml:"vol_high"`
		VolExtreme     float64 `yaml:"vol_extreme"`
		CorrAligned    float64 `yaml:"corr_aligned"`
		CorrInverse    float64 `yaml:"corr_inverse"`
		MinDwellCycles int     `yaml:"min_dwell_cycles"`
	} `yaml:"mood"`
	Decision struct {
		Channel           string        `yaml:"channel"`
		MinActionInterval time.Duration `yaml:"min_action_interval"`
		DedupLookback     time.Duration `yaml:"dedup_lookback"`
		HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
		PriceChangePct    float64       `yaml:"price_change_pct"`
		VolumeChangePct   float64       `yaml:"volume_change_pct"`
	} `yaml:"decision"`
	CoinGecko struct {
		BaseURL      string        `yaml:"base_url"`
		APIKey       string        `yaml:"api_key"`
		Timeout      time.Duration `yaml:"timeout"`
		CacheTTL     time.Duration `yaml:"cache_ttl"`
		MaxRPS       float64       `yaml:"max_rps"`
		MaxRetries   int           `yaml:"max_retries"`
		RetryBackoff time.Duration `yaml:"retry_backoff"`
	} `yaml:"coingecko"`
	Binance struct {
		WebSocketURL   string        `yaml:"websocket_url"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"binance"`
	LLM struct {
		BaseURL     string        `yaml:"base_url"`
		APIKey      string        `yaml:"api_key"`
		Model       string        `yaml:"model"`
		Temperature float64       `yaml:"temperature"`
		Timeout     time.Duration `yaml:"timeout"`
	} `yaml:"llm"`
	Poster struct {
		WebhookURL string        `yaml:"webhook_url"`
		Timeout    time.Duration `yaml:"timeout"`
	} `yaml:"poster"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		ActionsTopic string   `yaml:"actions_topic"`
		LogsTopic    string   `yaml:"logs_topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	Export struct {
		Workers    int           `yaml:"workers"`
		QueueSize  int           `yaml:"queue_size"`
		RetryLimit int           `yaml:"retry_limit"`
		RetryDelay time.Duration `yaml:"retry_delay"`
	} `yaml:"export"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("COINGECKO_API_KEY"); v != "" {
		c.CoinGecko.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("ASSETS"); v != "" {
		c.Assets = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("POSTER_WEBHOOK_URL"); v != "" {
		c.Poster.WebhookURL = v
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks if the configuration is valid. Any violation is fatal:
// the process must not start the loop with a broken configuration.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if len(c.Assets) < 2 {
		return fmt.Errorf("at least two tracked assets are required, got %d", len(c.Assets))
	}
	switch c.Ingest.Mode {
	case "poll", "stream", "both":
	default:
		return fmt.Errorf("ingest.mode must be 'poll', 'stream' or 'both', got '%s'", c.Ingest.Mode)
	}
	if c.Engine.PollInterval <= 0 {
		return fmt.Errorf("engine.poll_interval must be positive")
	}
	if len(c.Engine.Windows) == 0 {
		return fmt.Errorf("engine.windows cannot be empty")
	}
	for i := 1; i < len(c.Engine.Windows); i++ {
		if c.Engine.Windows[i] <= c.Engine.Windows[i-1] {
			return fmt.Errorf("engine.windows must be strictly ascending")
		}
	}
	if c.Engine.MinAlignedPairs < 2 {
		return fmt.Errorf("engine.min_aligned_pairs must be at least 2")
	}
	if c.Engine.TrendUpPct <= 0 || c.Engine.TrendStrongPct <= c.Engine.TrendUpPct {
		return fmt.Errorf("engine trend thresholds must satisfy 0 < trend_up_pct < trend_strong_pct")
	}
	if c.Mood.MinDwellCycles < 1 {
		return fmt.Errorf("mood.min_dwell_cycles must be at least 1")
	}
	if !(c.Mood.VolElevated < c.Mood.VolHigh && c.Mood.VolHigh < c.Mood.VolExtreme) {
		return fmt.Errorf("mood volatility thresholds must be ascending: elevated < high < extreme")
	}
	if c.Mood.CorrInverse >= c.Mood.CorrAligned {
		return fmt.Errorf("mood.corr_inverse must be below mood.corr_aligned")
	}
	if c.Decision.Channel == "" {
		return fmt.Errorf("decision.channel is required")
	}
	if c.Decision.MinActionInterval <= 0 {
		return fmt.Errorf("decision.min_action_interval must be positive")
	}
	if c.Decision.DedupLookback <= 0 {
		return fmt.Errorf("decision.dedup_lookback must be positive")
	}
	if c.Decision.HeartbeatInterval < c.Engine.PollInterval {
		return fmt.Errorf("decision.heartbeat_interval must be at least engine.poll_interval")
	}
	if c.Ingest.Mode != "stream" && c.CoinGecko.BaseURL == "" {
		return fmt.Errorf("coingecko.base_url is required for poll ingest")
	}
	if c.Ingest.Mode != "poll" && c.Binance.WebSocketURL == "" {
		return fmt.Errorf("binance.websocket_url is required for stream ingest")
	}
	return nil
}
