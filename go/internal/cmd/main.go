package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/snakedraft/go/internal/config"
	"github.com/mcdev12/snakedraft/go/internal/dbconfig"
	"github.com/mcdev12/snakedraft/go/internal/draft/ledger"
	"github.com/mcdev12/snakedraft/go/internal/draft/outbox/worker"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}
	setupLogging(getEnv("LOG_LEVEL", "info"))

	cfg, err := loadConfig(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// signal-aware context
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("draft server exited")
	}
	log.Info().Msg("graceful shutdown complete")
}

func run(ctx context.Context, cfg config.Config) error {
	clock := clockwork.NewRealClock()

	dbCfg := dbconfig.NewConfigFromEnv()
	store, err := setupLedger(ctx, dbCfg, clock)
	if err != nil {
		return err
	}
	defer store.Close()

	services, err := setupServices(ctx, cfg, store, clock)
	if err != nil {
		return err
	}
	defer services.Close()

	g, gctx := errgroup.WithContext(ctx)

	var health http.Handler
	if cfg.Outbox.Relay {
		relay, err := setupRelay(ctx, cfg, dbCfg, store, clock)
		if err != nil {
			return err
		}
		defer relay.Close()
		health = relay.Health
		g.Go(func() error { return relay.Run(gctx) })
	}

	srv := setupServer(cfg.Server, services, health)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("draft server listening")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutdown signal received")
		// allow in-flight requests to finish
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// setupRelay runs the outbox relay in-process. Postgres ledgers get
// LISTEN/NOTIFY wakeups; the others rely on the fallback poll.
func setupRelay(ctx context.Context, cfg config.Config, dbCfg dbconfig.Config, store ledger.Ledger, clock clockwork.Clock) (*worker.Relay, error) {
	relayCfg := worker.RelayConfig{
		JetStream:       cfg.NATS.JetStream,
		Listener:        cfg.Outbox.Listener,
		Embedded:        cfg.NATS.Embedded,
		StoreDir:        cfg.NATS.StoreDir,
		HealthThreshold: cfg.Outbox.HealthThreshold,
	}
	if dbCfg.Driver == dbconfig.DriverPostgres {
		relayCfg.NotifyDSN = dbCfg.DSN()
	}
	return worker.NewRelay(ctx, store, relayCfg, clock)
}
