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

	Server struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // json or console
		Output string `yaml:"output"` // stdout, stderr, or file path
	} `yaml:"logging"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`

	// Backend routes validated observations either straight into ClickHouse
	// or through Kafka first.
	Backend struct {
		Type         string        `yaml:"type"` // "clickhouse" or "kafka"
		BatchSize    int           `yaml:"batch_size"`
		BatchTimeout time.Duration `yaml:"batch_timeout"`
	} `yaml:"backend"`

	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks string   `yaml:"required_acks"` // none, one, all
		Compression  string   `yaml:"compression"`   // none, gzip, snappy, lz4, zstd

		Producer struct {
			BatchSize    int           `yaml:"batch_size"`
			BatchTimeout time.Duration `yaml:"batch_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`

		Consumer struct {
			GroupID      string        `yaml:"group_id"`
			Workers      int           `yaml:"workers"`
			MaxRetries   int           `yaml:"max_retries"`
			RetryBackoff time.Duration `yaml:"retry_backoff"`
			DLQTopic     string        `yaml:"dlq_topic"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`

	ClickHouse struct {
		Host         string        `yaml:"host"`
		Port         int           `yaml:"port"`
		Database     string        `yaml:"database"`
		Username     string        `yaml:"username"`
		Password     string        `yaml:"password"`
		DialTimeout  time.Duration `yaml:"dial_timeout"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		MaxOpenConns int           `yaml:"max_open_conns"`
		MaxIdleConns int           `yaml:"max_idle_conns"`
	} `yaml:"clickhouse"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Cache struct {
		ResultTTL time.Duration `yaml:"result_ttl"`
		PostsTTL  time.Duration `yaml:"posts_ttl"`
	} `yaml:"cache"`

	// Queue drives the periodic analysis refresh jobs over Redis.
	Queue struct {
		Enabled         bool          `yaml:"enabled"`
		Workers         int           `yaml:"workers"`
		RefreshInterval time.Duration `yaml:"refresh_interval"`
	} `yaml:"queue"`

	Reddit struct {
		ClientID      string        `yaml:"client_id"`
		ClientSecret  string        `yaml:"client_secret"`
		UserAgent     string        `yaml:"user_agent"`
		BaseURL       string        `yaml:"base_url"`
		TokenURL      string        `yaml:"token_url"`
		Subreddits    []string      `yaml:"subreddits"`
		QueryTemplate string        `yaml:"query_template"` // %s replaced with the ticker
		PostLimit     int           `yaml:"post_limit"`
		Timeout       time.Duration `yaml:"timeout"`
		MaxRetries    int           `yaml:"max_retries"`
		RetryBackoff  time.Duration `yaml:"retry_backoff"`
	} `yaml:"reddit"`

	MarketData struct {
		BaseURL      string        `yaml:"base_url"`
		HistoryDays  int           `yaml:"history_days"`
		Timeout      time.Duration `yaml:"timeout"`
		MaxRetries   int           `yaml:"max_retries"`
		RetryBackoff time.Duration `yaml:"retry_backoff"`
	} `yaml:"marketdata"`

	Newswire struct {
		Enabled      bool          `yaml:"enabled"`
		MaxHeadlines int           `yaml:"max_headlines"`
		Timeout      time.Duration `yaml:"timeout"`
	} `yaml:"newswire"`

	Collector struct {
		Enabled           bool          `yaml:"enabled"`
		Tickers           []string      `yaml:"tickers"`
		PollInterval      time.Duration `yaml:"poll_interval"`
		PricePollInterval time.Duration `yaml:"price_poll_interval"`
		Concurrency       int           `yaml:"concurrency"`
		RequestTimeout    time.Duration `yaml:"request_timeout"`
	} `yaml:"collector"`

	Analysis struct {
		BucketInterval   time.Duration `yaml:"bucket_interval"`
		MinSampleSize    int           `yaml:"min_sample_size"`
		BullishThreshold float64       `yaml:"bullish_threshold"`
		BearishThreshold float64       `yaml:"bearish_threshold"`
		WindowDays       int           `yaml:"window_days"`

		Summary struct {
			PositiveCutoff float64 `yaml:"positive_cutoff"`
			NegativeCutoff float64 `yaml:"negative_cutoff"`
			BullishAverage float64 `yaml:"bullish_average"`
			BearishAverage float64 `yaml:"bearish_average"`
		} `yaml:"summary"`

		ScoringServiceURL string        `yaml:"scoring_service_url"` // empty: use the built-in lexicon
		ScoringTimeout    time.Duration `yaml:"scoring_timeout"`
	} `yaml:"analysis"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithEnv loads the config file and then applies environment overrides.
// The usual deployment keeps credentials out of the yaml file.
func LoadWithEnv(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("REDDIT_CLIENT_ID"); v != "" {
		cfg.Reddit.ClientID = v
	}
	if v := os.Getenv("REDDIT_CLIENT_SECRET"); v != "" {
		cfg.Reddit.ClientSecret = v
	}
	if v := os.Getenv("REDDIT_USER_AGENT"); v != "" {
		cfg.Reddit.UserAgent = v
	}
	if v := os.Getenv("TICKERS"); v != "" {
		cfg.Collector.Tickers = splitAndTrim(v)
	}
	if v := os.Getenv("BACKEND"); v != "" {
		cfg.Backend.Type = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitAndTrim(v)
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		cfg.Kafka.Topic = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, strings.ToUpper(p))
		}
	}
	return out
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Backend.Type {
	case "clickhouse", "kafka":
	default:
		return fmt.Errorf("invalid backend type: %q (expected clickhouse or kafka)", c.Backend.Type)
	}

	if c.Backend.Type == "kafka" {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka backend requires at least one broker")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka backend requires a topic")
		}
	}

	if c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse host is required")
	}
	if c.ClickHouse.Database == "" {
		return fmt.Errorf("clickhouse database is required")
	}

	if c.Collector.Enabled {
		if len(c.Collector.Tickers) == 0 {
			return fmt.Errorf("collector enabled but no tickers configured")
		}
		if c.Collector.PollInterval <= 0 {
			return fmt.Errorf("collector poll_interval must be positive")
		}
		if c.Reddit.ClientID == "" || c.Reddit.ClientSecret == "" {
			return fmt.Errorf("collector enabled but reddit credentials are missing")
		}
		if c.Reddit.UserAgent == "" {
			return fmt.Errorf("reddit user_agent is required (reddit rejects anonymous clients)")
		}
	}

	if c.Analysis.BucketInterval <= 0 {
		return fmt.Errorf("analysis bucket_interval must be positive")
	}
	if c.Analysis.MinSampleSize < 1 {
		return fmt.Errorf("analysis min_sample_size must be >= 1, got %d", c.Analysis.MinSampleSize)
	}
	if c.Analysis.BullishThreshold <= 0 || c.Analysis.BullishThreshold > 1 {
		return fmt.Errorf("analysis bullish_threshold must be in (0, 1], got %v", c.Analysis.BullishThreshold)
	}
	if c.Analysis.BearishThreshold >= 0 || c.Analysis.BearishThreshold < -1 {
		return fmt.Errorf("analysis bearish_threshold must be in [-1, 0), got %v", c.Analysis.BearishThreshold)
	}
	if c.Analysis.WindowDays <= 0 {
		return fmt.Errorf("analysis window_days must be positive")
	}

	if c.Queue.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("queue enabled but redis addr is empty")
	}

	return nil
}
