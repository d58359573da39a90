package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"YutaiScan/pkg/util"

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
		Type string `yaml:"type"` // kafka or clickhouse
	} `yaml:"backend"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		ResultTopic  string   `yaml:"result_topic"`
		BarsTopic    string   `yaml:"bars_topic"`
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
	Scan struct {
		DataPeriodYears int `yaml:"data_period_years"`
		MaxDaysBefore   int `yaml:"max_days_before"`
		MinTradeCount   int `yaml:"min_trade_count"`
		Kenrlast        int `yaml:"kenrlast"`
	} `yaml:"scan"`
	Batch struct {
		Workers int `yaml:"workers"`
	} `yaml:"batch"`
	Portfolio struct {
		Correlation    float64 `yaml:"correlation"`
		RiskFreeRate   float64 `yaml:"risk_free_rate"`
		PeriodsPerYear int     `yaml:"periods_per_year"`
	} `yaml:"portfolio"`
	Cache struct {
		Redis struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
		PriceTTL time.Duration `yaml:"price_ttl"`
	} `yaml:"cache"`
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
	if v := os.Getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_RESULT_TOPIC"); v != "" {
		c.Kafka.ResultTopic = v
	}
	if v := os.Getenv("KAFKA_BARS_TOPIC"); v != "" {
		c.Kafka.BarsTopic = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
		c.Cache.Redis.Enabled = true
	}
	if v := os.Getenv("BATCH_WORKERS"); v != "" {
		c.Batch.Workers = util.ParseIntDefault(v, c.Batch.Workers)
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Scan.MaxDaysBefore == 0 {
		c.Scan.MaxDaysBefore = 120
	}
	if c.Scan.MinTradeCount == 0 {
		c.Scan.MinTradeCount = 3
	}
	if c.Scan.Kenrlast == 0 {
		c.Scan.Kenrlast = 2
	}
	if c.Batch.Workers == 0 {
		c.Batch.Workers = 4
	}
	if c.Portfolio.Correlation == 0 {
		c.Portfolio.Correlation = 0.3
	}
	if c.Portfolio.PeriodsPerYear == 0 {
		c.Portfolio.PeriodsPerYear = 252
	}
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
	if c.Scan.MaxDaysBefore < 1 {
		return fmt.Errorf("scan.max_days_before must be positive")
	}
	if c.Scan.MinTradeCount < 1 {
		return fmt.Errorf("scan.min_trade_count must be positive")
	}
	if c.Scan.Kenrlast < 1 {
		return fmt.Errorf("scan.kenrlast must be positive")
	}
	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers must be positive")
	}
	if c.Portfolio.Correlation < -1 || c.Portfolio.Correlation > 1 {
		return fmt.Errorf("portfolio.correlation must lie in [-1, 1]")
	}
	return nil
}
