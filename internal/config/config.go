package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	API      APIConfig      `yaml:"api"`
	Feed     FeedConfig     `yaml:"feed"`
	Store    StoreConfig    `yaml:"store"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	DevAPI   DevAPIConfig   `yaml:"devapi"`
	LogLevel string         `yaml:"log_level"`
}

type APIConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

type FeedConfig struct {
	PageSize      int           `yaml:"page_size"`
	Overlap       string        `yaml:"overlap"` // "drop" or "supersede"
	WatchInterval time.Duration `yaml:"watch_interval"`
	PollTimeout   time.Duration `yaml:"poll_timeout"`
}

type StoreConfig struct {
	Driver    string      `yaml:"driver"` // sqlite, postgres, redis, memory
	DSN       string      `yaml:"dsn"`
	Redis     RedisConfig `yaml:"redis"`
	Namespace string      `yaml:"namespace"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// RabbitMQConfig enables activity publishing when URL is set.
type RabbitMQConfig struct {
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	QueueName  string `yaml:"queue_name"`
}

func (r RabbitMQConfig) Enabled() bool {
	return r.URL != ""
}

type DevAPIConfig struct {
	Addr      string        `yaml:"addr"`
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// Load reads the YAML file at path. A missing file yields the defaults so the
// client works without any configuration.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config file: %w", err)
	default:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.setDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = "http://localhost:3000/api"
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = 10 * time.Second
	}
	if c.API.UserAgent == "" {
		c.API.UserAgent = "edublog/1.0"
	}
	if c.Feed.PageSize == 0 {
		c.Feed.PageSize = 10
	}
	if c.Feed.Overlap == "" {
		c.Feed.Overlap = "supersede"
	}
	if c.Feed.WatchInterval == 0 {
		c.Feed.WatchInterval = 30 * time.Second
	}
	if c.Feed.PollTimeout == 0 {
		c.Feed.PollTimeout = c.API.Timeout
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "sqlite"
	}
	if c.Store.DSN == "" && c.Store.Driver == "sqlite" {
		c.Store.DSN = "edublog.db"
	}
	if c.Store.Redis.Addr == "" {
		c.Store.Redis.Addr = "localhost:6379"
	}
	if c.Store.Namespace == "" {
		c.Store.Namespace = "edublog"
	}
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "edublog"
	}
	if c.RabbitMQ.RoutingKey == "" {
		c.RabbitMQ.RoutingKey = "activity"
	}
	if c.RabbitMQ.QueueName == "" {
		c.RabbitMQ.QueueName = "edublog_activity"
	}
	if c.DevAPI.Addr == "" {
		c.DevAPI.Addr = ":3000"
	}
	if c.DevAPI.JWTSecret == "" {
		c.DevAPI.JWTSecret = "dev-secret"
	}
	if c.DevAPI.TokenTTL == 0 {
		c.DevAPI.TokenTTL = 24 * time.Hour
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) validate() error {
	switch c.Feed.Overlap {
	case "drop", "supersede":
	default:
		return fmt.Errorf("feed.overlap: unknown policy %q", c.Feed.Overlap)
	}

	switch c.Store.Driver {
	case "sqlite", "postgres", "redis", "memory":
	default:
		return fmt.Errorf("store.driver: unknown driver %q", c.Store.Driver)
	}
	if c.Store.Driver == "postgres" && c.Store.DSN == "" {
		return errors.New("store.dsn: required for postgres")
	}

	if c.Feed.PageSize < 1 {
		return fmt.Errorf("feed.page_size: must be positive, got %d", c.Feed.PageSize)
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"api.timeout", c.API.Timeout},
		{"feed.watch_interval", c.Feed.WatchInterval},
		{"feed.poll_timeout", c.Feed.PollTimeout},
	}
	for _, d := range durations {
		if d.value <= 0 {
			return fmt.Errorf("%s: must be positive, got %s", d.name, d.value)
		}
	}
	return nil
}
