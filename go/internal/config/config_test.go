package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_OverlaysFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
lock:
  backend: redis
  redis:
    ttl: 10s
redis:
  addr: redis:6379
retry:
  max_attempts: 5
outbox:
  relay: false
  fallback_interval: 1m
  batch_size: 25
nats:
  url: nats://bus:4222
  stream_name: TEST_EVENTS
analytics:
  clickhouse:
    addr: ch:9000
draft:
  order_policy: random
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, LockRedis, cfg.Lock.Backend)
	assert.Equal(t, 10*time.Second, cfg.Lock.Redis.TTL)
	// untouched nested fields keep their defaults
	assert.Equal(t, 20*time.Millisecond, cfg.Lock.Redis.RetryInterval)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.False(t, cfg.Outbox.Relay)
	assert.Equal(t, time.Minute, cfg.Outbox.Listener.FallbackInterval)
	assert.Equal(t, 25, cfg.Outbox.Listener.BatchSize)
	assert.Equal(t, 5, cfg.Outbox.Listener.MaxRetries)
	assert.Equal(t, "nats://bus:4222", cfg.NATS.JetStream.URL)
	assert.Equal(t, "TEST_EVENTS", cfg.NATS.JetStream.StreamName)
	assert.Equal(t, "draft.events", cfg.NATS.JetStream.SubjectPrefix)
	assert.Equal(t, "ch:9000", cfg.Analytics.ClickHouse.Addr)
	assert.Equal(t, "random", cfg.Draft.OrderPolicy)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [unterminated"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("PORT", "7000")
	t.Setenv("ALLOWED_ORIGINS", "https://draft.example.com, http://localhost:3000")
	t.Setenv("LOCK_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("NATS_URL", "nats://nats:4222")
	t.Setenv("NATS_EMBEDDED", "true")
	t.Setenv("OUTBOX_RELAY", "false")
	t.Setenv("FALLBACK_INTERVAL", "5s")
	t.Setenv("CLICKHOUSE_ADDR", "clickhouse:9000")
	t.Setenv("DRAFT_ORDER_POLICY", "random")
	t.Setenv("PICK_MAX_ATTEMPTS", "not-a-number")

	cfg := Default()
	cfg.ApplyEnv()

	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, []string{"https://draft.example.com", "http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, LockRedis, cfg.Lock.Backend)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, "nats://nats:4222", cfg.NATS.JetStream.URL)
	assert.True(t, cfg.NATS.Embedded)
	assert.False(t, cfg.Outbox.Relay)
	assert.Equal(t, 5*time.Second, cfg.Outbox.Listener.FallbackInterval)
	assert.Equal(t, "clickhouse:9000", cfg.Analytics.ClickHouse.Addr)
	assert.Equal(t, "random", cfg.Draft.OrderPolicy)
	// unparseable values fall back
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"lock backend", func(c *Config) { c.Lock.Backend = "etcd" }},
		{"order policy", func(c *Config) { c.Draft.OrderPolicy = "alphabetical" }},
		{"fallback interval", func(c *Config) { c.Outbox.Listener.FallbackInterval = 0 }},
		{"retry attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
