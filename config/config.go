package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config is the process-wide configuration tree. Every component receives
// its slice of this struct through the fx graph; nothing reads viper directly.
type Config struct {
	Service     ServiceConfig     `mapstructure:"service"`
	Log         LogConfig         `mapstructure:"log"`
	Processor   ProcessorConfig   `mapstructure:"processor"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Aggregation AggregationConfig `mapstructure:"aggregation"`
	Registry    RegistryConfig    `mapstructure:"registry"`
	Bus         BusConfig         `mapstructure:"bus"`
}

type ServiceConfig struct {
	Name string `mapstructure:"name"`
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "text"
}

type ProcessorConfig struct {
	Workers         int           `mapstructure:"workers"`
	QueueSize       int           `mapstructure:"queue_size"`
	RateLimitWindow time.Duration `mapstructure:"rate_limit_window"`
	RateLimitMax    int           `mapstructure:"rate_limit_max"`
	HistorySize     int           `mapstructure:"history_size"`
}

type CacheConfig struct {
	TTL  time.Duration `mapstructure:"ttl"`
	Size int           `mapstructure:"size"`
}

type AggregationConfig struct {
	Interval      time.Duration `mapstructure:"interval"`
	MaxBucketSize int           `mapstructure:"max_bucket_size"`
}

type RegistryConfig struct {
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	SendTimeout       time.Duration `mapstructure:"send_timeout"`
	MailboxSize       int           `mapstructure:"mailbox_size"`
}

type BusConfig struct {
	// AMQPURL switches ingestion from the in-process channel Pub/Sub
	// to a broker. Empty means single-node, in-process delivery.
	AMQPURL string `mapstructure:"amqp_url"`
}

// LoadConfig reads defaults, an optional YAML file and DSS_* environment
// overrides, in that order of precedence.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("dss")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config: validation: %w", err)
	}

	return &cfg, nil
}

// WatchLogLevel re-reads the log level when the config file changes on disk.
// Only the level is hot-reloaded; everything else requires a restart.
func WatchLogLevel(configFile string, onLevel func(level string)) {
	if configFile == "" {
		return
	}

	v := viper.New()
	v.SetConfigFile(configFile)
	if err := v.ReadInConfig(); err != nil {
		return
	}

	v.OnConfigChange(func(_ fsnotify.Event) {
		if lvl := v.GetString("log.level"); lvl != "" {
			onLevel(lvl)
		}
	})
	v.WatchConfig()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.name", "dashboard-stream-service")
	v.SetDefault("service.addr", ":8087")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("processor.workers", 4)
	v.SetDefault("processor.queue_size", 1024)
	v.SetDefault("processor.rate_limit_window", time.Minute)
	v.SetDefault("processor.rate_limit_max", 1000)
	v.SetDefault("processor.history_size", 256)

	v.SetDefault("cache.ttl", 30*time.Second)
	v.SetDefault("cache.size", 512)

	v.SetDefault("aggregation.interval", 5*time.Second)
	v.SetDefault("aggregation.max_bucket_size", 10000)

	v.SetDefault("registry.heartbeat_interval", 30*time.Second)
	v.SetDefault("registry.send_timeout", 500*time.Millisecond)
	v.SetDefault("registry.mailbox_size", 256)
}

func validate(cfg *Config) error {
	if cfg.Processor.Workers <= 0 {
		return fmt.Errorf("processor.workers must be positive, got %d", cfg.Processor.Workers)
	}
	if cfg.Processor.QueueSize <= 0 {
		return fmt.Errorf("processor.queue_size must be positive, got %d", cfg.Processor.QueueSize)
	}
	if cfg.Processor.RateLimitMax <= 0 {
		return fmt.Errorf("processor.rate_limit_max must be positive, got %d", cfg.Processor.RateLimitMax)
	}
	if cfg.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive, got %s", cfg.Cache.TTL)
	}
	if cfg.Registry.HeartbeatInterval <= 0 {
		return fmt.Errorf("registry.heartbeat_interval must be positive, got %s", cfg.Registry.HeartbeatInterval)
	}
	return nil
}
