package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
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
	Backend struct {
		Type         string        `yaml:"type"`
		BatchSize    int           `yaml:"batch_size"`
		BatchTimeout time.Duration `yaml:"batch_timeout"`
	} `yaml:"backend"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		OpsTopic     string   `yaml:"ops_topic"`
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
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
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
	FMP struct {
		APIKey           string        `yaml:"api_key"`
		BaseURL          string        `yaml:"base_url"`
		StockSymbols     []string      `yaml:"stock_symbols"`
		IndexSymbols     []string      `yaml:"index_symbols"`
		CommoditySymbols []string      `yaml:"commodity_symbols"`
		RequestTimeout   time.Duration `yaml:"request_timeout"`
		RateLimit        int           `yaml:"rate_limit"`
	} `yaml:"fmp"`
	Pipeline struct {
		ExtractInterval time.Duration `yaml:"extract_interval"`
		LookbackDays    int           `yaml:"lookback_days"`
		SessionOpen     string        `yaml:"session_open"`
		SessionClose    string        `yaml:"session_close"`
		CommodityClose  string        `yaml:"commodity_close"`
	} `yaml:"pipeline"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Queue    struct {
			Name    string `yaml:"name"`
			Workers int    `yaml:"workers"`
		} `yaml:"queue"`
		CacheTTL struct {
			Candles    time.Duration `yaml:"candles"`
			Indicators time.Duration `yaml:"indicators"`
			Breadth    time.Duration `yaml:"breadth"`
			Yields     time.Duration `yaml:"yields"`
		} `yaml:"cache_ttl"`
	} `yaml:"redis"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func parse(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment
// variables. Validation runs after the overrides so secrets may come from
// the environment alone.
func LoadWithEnv(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("FMP_API_KEY"); v != "" {
		c.FMP.APIKey = v
	}
	if v := os.Getenv("STOCK_SYMBOLS"); v != "" {
		c.FMP.StockSymbols = strings.Split(v, ",")
	}
	if v := os.Getenv("INDEX_SYMBOLS"); v != "" {
		c.FMP.IndexSymbols = strings.Split(v, ",")
	}
	if v := os.Getenv("COMMODITY_SYMBOLS"); v != "" {
		c.FMP.CommoditySymbols = strings.Split(v, ",")
	}
	if v := os.Getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Backend.Type == "" {
		return fmt.Errorf("backend.type is required")
	}
	if c.Backend.Type != "kafka" && c.Backend.Type != "clickhouse" {
		return fmt.Errorf("backend.type must be 'kafka' or 'clickhouse', got '%s'", c.Backend.Type)
	}
	if c.FMP.APIKey == "" {
		return fmt.Errorf("fmp.api_key is required")
	}
	if len(c.FMP.StockSymbols) == 0 && len(c.FMP.IndexSymbols) == 0 && len(c.FMP.CommoditySymbols) == 0 {
		return fmt.Errorf("at least one fmp symbol list is required")
	}
	for _, s := range []struct {
		name  string
		value string
	}{
		{"pipeline.session_open", c.Pipeline.SessionOpen},
		{"pipeline.session_close", c.Pipeline.SessionClose},
		{"pipeline.commodity_close", c.Pipeline.CommodityClose},
	} {
		if s.value == "" {
			continue
		}
		if _, err := time.Parse("15:04", s.value); err != nil {
			return fmt.Errorf("%s must be HH:MM, got '%s'", s.name, s.value)
		}
	}
	return nil
}

// SessionMinutes parses an HH:MM session boundary into minutes past
// midnight, falling back to def when unset.
func SessionMinutes(value string, def int) int {
	if value == "" {
		return def
	}
	t, err := time.Parse("15:04", value)
	if err != nil {
		return def
	}
	return t.Hour()*60 + t.Minute()
}
