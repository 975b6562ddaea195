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
	QuoteMedia struct {
		BaseURL      string        `yaml:"base_url"`
		WmID         string        `yaml:"wm_id"`
		Username     string        `yaml:"username"`
		Password     string        `yaml:"password"`
		Timeout      time.Duration `yaml:"timeout"`
		SessionTTL   time.Duration `yaml:"session_ttl"`
		MaxRPS       float64       `yaml:"max_rps"`
		BurstSize    float64       `yaml:"burst_size"`
		ExchangeCode string        `yaml:"exchange_code"`
	} `yaml:"quotemedia"`
	Analysis struct {
		MinPrice         float64 `yaml:"min_price"`
		MaxPrice         float64 `yaml:"max_price"`
		MinPercent       float64 `yaml:"min_percent"`
		MaxPercent       float64 `yaml:"max_percent"`
		MinShares        int64   `yaml:"min_shares"`
		MinBrokerPercent float64 `yaml:"min_broker_percent"`
		LookbackDays     int     `yaml:"lookback_days"`
	} `yaml:"analysis"`
	Cache struct {
		HistoryTTL time.Duration `yaml:"history_ttl"`
		Redis      struct {
			Enabled  bool   `yaml:"enabled"`
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic"`
		RequiredAcks int           `yaml:"required_acks"`
		Compression  string        `yaml:"compression"`
		MaxAttempts  int           `yaml:"max_attempts"`
		Linger       time.Duration `yaml:"linger"`
		BatchSize    int           `yaml:"batch_size"`
		BatchBytes   int           `yaml:"batch_bytes"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		Async        bool          `yaml:"async"`
	} `yaml:"kafka"`
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

	c.applyDefaults()

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
	if v := os.Getenv("QM_WM_ID"); v != "" {
		c.QuoteMedia.WmID = v
	}
	if v := os.Getenv("QM_USERNAME"); v != "" {
		c.QuoteMedia.Username = v
	}
	if v := os.Getenv("QM_PASSWORD"); v != "" {
		c.QuoteMedia.Password = v
	}
	if v := os.Getenv("QM_BASE_URL"); v != "" {
		c.QuoteMedia.BaseURL = v
	}
	if v := os.Getenv("EXCHANGE_CODE"); v != "" {
		c.QuoteMedia.ExchangeCode = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Cache.Redis.Host = v
		c.Cache.Redis.Enabled = true
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.QuoteMedia.BaseURL == "" {
		c.QuoteMedia.BaseURL = "https://app.quotemedia.com"
	}
	if c.QuoteMedia.Timeout <= 0 {
		c.QuoteMedia.Timeout = 30 * time.Second
	}
	if c.QuoteMedia.SessionTTL <= 0 {
		c.QuoteMedia.SessionTTL = 25 * time.Minute
	}
	if c.QuoteMedia.MaxRPS <= 0 {
		c.QuoteMedia.MaxRPS = 5
	}
	if c.QuoteMedia.BurstSize <= 0 {
		c.QuoteMedia.BurstSize = 10
	}
	if c.QuoteMedia.ExchangeCode == "" {
		c.QuoteMedia.ExchangeCode = "CDX"
	}
	if c.Analysis.MaxPrice <= 0 {
		c.Analysis.MaxPrice = 100
	}
	if c.Analysis.MinPercent <= 0 {
		c.Analysis.MinPercent = 80
	}
	if c.Analysis.MaxPercent <= 0 {
		c.Analysis.MaxPercent = 200
	}
	if c.Analysis.MinBrokerPercent <= 0 {
		c.Analysis.MinBrokerPercent = 10.0
	}
	if c.Analysis.LookbackDays <= 0 {
		c.Analysis.LookbackDays = 20
	}
	if c.Cache.HistoryTTL <= 0 {
		c.Cache.HistoryTTL = 24 * time.Hour
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.QuoteMedia.BaseURL == "" {
		return fmt.Errorf("quotemedia.base_url is required")
	}
	if c.Analysis.MinPercent > c.Analysis.MaxPercent {
		return fmt.Errorf("analysis.min_percent must not exceed analysis.max_percent")
	}
	if c.Analysis.MinPrice > c.Analysis.MaxPrice {
		return fmt.Errorf("analysis.min_price must not exceed analysis.max_price")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Kafka.Enabled && c.Kafka.Topic == "" {
		return fmt.Errorf("kafka.topic is required when kafka is enabled")
	}
	return nil
}
