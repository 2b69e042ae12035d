// Package config loads service settings from a YAML file with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mcdev12/snakedraft/go/internal/draft/analytics"
	"github.com/mcdev12/snakedraft/go/internal/draft/ledger"
	"github.com/mcdev12/snakedraft/go/internal/draft/lock"
	"github.com/mcdev12/snakedraft/go/internal/draft/outbox"
	"github.com/mcdev12/snakedraft/go/internal/draft/outbox/worker"
	"gopkg.in/yaml.v3"
)

// Lock backends
const (
	LockLocal = "local"
	LockRedis = "redis"
)

type Config struct {
	Server    ServerConfig       `yaml:"server"`
	Lock      LockConfig         `yaml:"lock"`
	Redis     RedisConfig        `yaml:"redis"`
	Retry     ledger.RetryConfig `yaml:"retry"`
	Outbox    OutboxConfig       `yaml:"outbox"`
	NATS      NATSConfig         `yaml:"nats"`
	Analytics AnalyticsConfig    `yaml:"analytics"`
	Draft     DraftConfig        `yaml:"draft"`
}

type ServerConfig struct {
	Port           string        `yaml:"port"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
}

type LockConfig struct {
	Backend string           `yaml:"backend"` // local or redis
	Redis   lock.RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type OutboxConfig struct {
	// Relay runs the outbox listener inside the API process
	Relay           bool                  `yaml:"relay"`
	HealthThreshold time.Duration         `yaml:"health_threshold"`
	Listener        outbox.ListenerConfig `yaml:",inline"`
}

type NATSConfig struct {
	// Embedded starts an in-process server instead of dialing URL
	Embedded  bool                   `yaml:"embedded"`
	StoreDir  string                 `yaml:"store_dir"`
	JetStream worker.JetStreamConfig `yaml:",inline"`
}

type AnalyticsConfig struct {
	Consumer   analytics.ConsumerConfig   `yaml:"consumer"`
	ClickHouse analytics.ClickHouseConfig `yaml:"clickhouse"`
}

type DraftConfig struct {
	OrderPolicy string `yaml:"order_policy"` // registration or random
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:           "8080",
			AllowedOrigins: []string{"*"},
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   15 * time.Second,
		},
		Lock: LockConfig{
			Backend: LockLocal,
			Redis:   lock.DefaultRedisConfig(),
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
		Retry: ledger.DefaultRetryConfig(),
		Outbox: OutboxConfig{
			Relay:           true,
			HealthThreshold: 5 * time.Minute,
			Listener:        outbox.DefaultListenerConfig(),
		},
		NATS: NATSConfig{
			JetStream: worker.DefaultJetStreamConfig(),
		},
		Analytics: AnalyticsConfig{
			Consumer:   analytics.DefaultConsumerConfig(),
			ClickHouse: analytics.DefaultClickHouseConfig(),
		},
		Draft: DraftConfig{OrderPolicy: "registration"},
	}
}

// Load reads path on top of the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides settings from environment variables
func (c *Config) ApplyEnv() {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}

	c.Lock.Backend = getEnv("LOCK_BACKEND", c.Lock.Backend)
	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvAsInt("REDIS_DB", c.Redis.DB)

	c.Retry.MaxAttempts = getEnvAsInt("PICK_MAX_ATTEMPTS", c.Retry.MaxAttempts)

	c.Outbox.Relay = getEnvAsBool("OUTBOX_RELAY", c.Outbox.Relay)
	c.Outbox.Listener.FallbackInterval = getEnvAsDuration("FALLBACK_INTERVAL", c.Outbox.Listener.FallbackInterval)

	c.NATS.JetStream.URL = getEnv("NATS_URL", c.NATS.JetStream.URL)
	c.NATS.Embedded = getEnvAsBool("NATS_EMBEDDED", c.NATS.Embedded)

	ch := &c.Analytics.ClickHouse
	ch.Addr = getEnv("CLICKHOUSE_ADDR", ch.Addr)
	ch.Database = getEnv("CLICKHOUSE_DATABASE", ch.Database)
	ch.Username = getEnv("CLICKHOUSE_USER", ch.Username)
	ch.Password = getEnv("CLICKHOUSE_PASSWORD", ch.Password)

	c.Draft.OrderPolicy = getEnv("DRAFT_ORDER_POLICY", c.Draft.OrderPolicy)
}

// Validate rejects settings the services cannot run with
func (c Config) Validate() error {
	switch c.Lock.Backend {
	case LockLocal, LockRedis:
	default:
		return fmt.Errorf("unsupported lock backend %q", c.Lock.Backend)
	}
	switch c.Draft.OrderPolicy {
	case "registration", "random":
	default:
		return fmt.Errorf("unsupported draft order policy %q", c.Draft.OrderPolicy)
	}
	if c.Outbox.Listener.FallbackInterval <= 0 || c.Outbox.Listener.PingInterval <= 0 {
		return fmt.Errorf("outbox intervals must be positive")
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry max_attempts must be at least 1")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
