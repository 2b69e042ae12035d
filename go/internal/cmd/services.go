package main

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/snakedraft/go/internal/config"
	"github.com/mcdev12/snakedraft/go/internal/draft"
	lifecycle "github.com/mcdev12/snakedraft/go/internal/draft/draft"
	"github.com/mcdev12/snakedraft/go/internal/draft/gateway"
	"github.com/mcdev12/snakedraft/go/internal/draft/ledger"
	"github.com/mcdev12/snakedraft/go/internal/draft/lock"
	"github.com/mcdev12/snakedraft/go/internal/draft/pick"
	"github.com/mcdev12/snakedraft/go/internal/draft/state"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type Services struct {
	Draft   *draft.Service
	Gateway *gateway.StateHandler

	redis *redis.Client
}

func setupServices(ctx context.Context, cfg config.Config, store ledger.Ledger, clock clockwork.Clock) (*Services, error) {
	// Wire up dependency injection chain
	// Ledger → Lock → App layer → Service layer
	s := &Services{}

	locker, err := s.setupLocker(ctx, cfg, clock)
	if err != nil {
		return nil, err
	}

	lifecycleApp := lifecycle.NewApp(store, locker, clock,
		lifecycle.WithOrderPolicy(lifecycle.PolicyByName(cfg.Draft.OrderPolicy)),
		lifecycle.WithRetry(cfg.Retry),
	)
	pickApp := pick.NewApp(store, store, locker, clock, cfg.Retry)
	stateApp := state.NewApp(store)

	s.Draft = draft.NewService(lifecycleApp, pickApp, stateApp)
	s.Gateway = gateway.NewStateHandler(lifecycleApp, pickApp, stateApp)
	return s, nil
}

func (s *Services) setupLocker(ctx context.Context, cfg config.Config, clock clockwork.Clock) (lock.Locker, error) {
	if cfg.Lock.Backend != config.LockRedis {
		log.Info().Msg("using in-process league lock")
		return lock.NewLocalLocker(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	s.redis = client

	log.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Lock.Redis.TTL).Msg("using redis league lock")
	return lock.NewRedisLocker(client, cfg.Lock.Redis, clock), nil
}

func (s *Services) Close() error {
	if s.redis != nil {
		return s.redis.Close()
	}
	return nil
}
