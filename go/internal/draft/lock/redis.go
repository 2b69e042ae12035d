package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// releaseScript deletes the key only if we still own it
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisConfig tunes the distributed lock
type RedisConfig struct {
	// TTL bounds how long a crashed holder can block the league
	TTL           time.Duration `yaml:"ttl"`
	RetryInterval time.Duration `yaml:"retry_interval"`
}

func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		TTL:           5 * time.Second,
		RetryInterval: 20 * time.Millisecond,
	}
}

// RedisLocker is a single-instance Redis lock using SET NX PX and a
// compare-and-delete release.
type RedisLocker struct {
	client   redis.UniversalClient
	cfg      RedisConfig
	clock    clockwork.Clock
	newToken func() string
}

var _ Locker = (*RedisLocker)(nil)

func NewRedisLocker(client redis.UniversalClient, cfg RedisConfig, clock clockwork.Clock) *RedisLocker {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultRedisConfig().TTL
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = DefaultRedisConfig().RetryInterval
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &RedisLocker{
		client:   client,
		cfg:      cfg,
		clock:    clock,
		newToken: uuid.NewString,
	}
}

func (r *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	token := r.newToken()

	for {
		ok, err := r.client.SetNX(ctx, key, token, r.cfg.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-r.clock.After(r.cfg.RetryInterval):
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// release must not be skipped because the request ctx is done
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
			defer cancel()

			n, err := releaseScript.Run(releaseCtx, r.client, []string{key}, token).Int()
			if err != nil {
				log.Error().Err(err).Str("key", key).Msg("failed to release draft lock")
				return
			}
			if n == 0 {
				log.Warn().Str("key", key).Msg("draft lock expired before release")
			}
		})
	}, nil
}
