package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Store     StoreConfig
	Publisher PublisherConfig
	Webhook   WebhookConfig
	Scheduler SchedulerConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	MaxBodySize  int64
}

// DatabaseConfig holds database connection settings for the SQL-backed
// key/value store
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// StoreConfig selects the persisted store backend
type StoreConfig struct {
	// Backend is "postgres", "redis" or "memory"
	Backend string
}

// PublisherConfig holds publishing orchestration settings
type PublisherConfig struct {
	// PlatformDelay is the courtesy pause between platforms in one fan-out
	PlatformDelay time.Duration
	// BatchSize bounds concurrent properties inside one batch group
	BatchSize int
	// BatchDelay is the pause between batch groups
	BatchDelay time.Duration
	// RetryDelay is how far in the future a failed-platform retry is scheduled
	RetryDelay time.Duration
	// MaxRetries bounds automatic retries per property
	MaxRetries int
	// HTTPTimeout is the per-request timeout for platform calls
	HTTPTimeout time.Duration
}

// WebhookConfig holds webhook pipeline settings
type WebhookConfig struct {
	// QueueSize bounds the in-flight event queue
	QueueSize int
	// DrainPause is the pause between processed events
	DrainPause time.Duration
	// DedupTTL is the retention window for remote event id deduplication
	DedupTTL time.Duration
	// EndpointBase is the externally visible webhook URL prefix used when
	// seeding subscriptions
	EndpointBase string
}

// SchedulerConfig holds the schedule runner configuration
type SchedulerConfig struct {
	Enabled      bool
	PollInterval time.Duration
}

// Load loads configuration from TOML file and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with PROPMAN_ prefix (e.g. PROPMAN_REDIS_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file is fine, defaults and env vars apply
	}

	v.SetEnvPrefix("PROPMAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:  v.GetDuration("http.read_timeout"),
			WriteTimeout: v.GetDuration("http.write_timeout"),
			IdleTimeout:  v.GetDuration("http.idle_timeout"),
			MaxBodySize:  v.GetInt64("http.max_body_size"),
		},
		Database: DatabaseConfig{
			Host:         v.GetString("database.host"),
			Port:         v.GetInt("database.port"),
			User:         v.GetString("database.user"),
			Password:     v.GetString("database.password"),
			DBName:       v.GetString("database.dbname"),
			SSLMode:      v.GetString("database.sslmode"),
			MaxOpenConns: v.GetInt("database.max_open_conns"),
			MaxIdleConns: v.GetInt("database.max_idle_conns"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Store: StoreConfig{
			Backend: v.GetString("store.backend"),
		},
		Publisher: PublisherConfig{
			PlatformDelay: v.GetDuration("publisher.platform_delay"),
			BatchSize:     v.GetInt("publisher.batch_size"),
			BatchDelay:    v.GetDuration("publisher.batch_delay"),
			RetryDelay:    v.GetDuration("publisher.retry_delay"),
			MaxRetries:    v.GetInt("publisher.max_retries"),
			HTTPTimeout:   v.GetDuration("publisher.http_timeout"),
		},
		Webhook: WebhookConfig{
			QueueSize:    v.GetInt("webhook.queue_size"),
			DrainPause:   v.GetDuration("webhook.drain_pause"),
			DedupTTL:     v.GetDuration("webhook.dedup_ttl"),
			EndpointBase: v.GetString("webhook.endpoint_base"),
		},
		Scheduler: SchedulerConfig{
			Enabled:      v.GetBool("scheduler.enabled"),
			PollInterval: v.GetDuration("scheduler.poll_interval"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "propman-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		if cfg.App.Env == "production" {
			cfg.Log.Format = "json"
		} else {
			cfg.Log.Format = "console"
		}
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "propman"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 2
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "postgres"
	}
	if cfg.Publisher.PlatformDelay == 0 {
		cfg.Publisher.PlatformDelay = 500 * time.Millisecond
	}
	if cfg.Publisher.BatchSize == 0 {
		cfg.Publisher.BatchSize = 5
	}
	if cfg.Publisher.BatchDelay == 0 {
		cfg.Publisher.BatchDelay = 2 * time.Second
	}
	if cfg.Publisher.RetryDelay == 0 {
		cfg.Publisher.RetryDelay = 5 * time.Minute
	}
	if cfg.Publisher.MaxRetries == 0 {
		cfg.Publisher.MaxRetries = 3
	}
	if cfg.Publisher.HTTPTimeout == 0 {
		cfg.Publisher.HTTPTimeout = 30 * time.Second
	}
	if cfg.Webhook.QueueSize == 0 {
		cfg.Webhook.QueueSize = 256
	}
	if cfg.Webhook.DrainPause == 0 {
		cfg.Webhook.DrainPause = 100 * time.Millisecond
	}
	if cfg.Webhook.DedupTTL == 0 {
		cfg.Webhook.DedupTTL = 24 * time.Hour
	}
	if cfg.Webhook.EndpointBase == "" {
		cfg.Webhook.EndpointBase = "/api/v1/webhooks"
	}
	if cfg.Scheduler.PollInterval == 0 {
		cfg.Scheduler.PollInterval = 30 * time.Second
	}
}

// validate checks the loaded configuration for inconsistencies
func (c *Config) validate() error {
	switch c.Store.Backend {
	case "postgres", "redis", "memory":
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Store.Backend)
	}
	if c.Publisher.BatchSize < 1 {
		return fmt.Errorf("config: publisher batch_size must be positive")
	}
	if c.Webhook.QueueSize < 1 {
		return fmt.Errorf("config: webhook queue_size must be positive")
	}
	return nil
}

// DSN builds the postgres connection string for the kv store
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// Addr returns the host:port address for Redis
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
