package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/snakedraft/go/internal/config"
	"github.com/mcdev12/snakedraft/go/internal/dbconfig"
	"github.com/mcdev12/snakedraft/go/internal/draft/ledger"
	"github.com/mcdev12/snakedraft/go/internal/draft/outbox/worker"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// load .env
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	// configure zerolog console output and level
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	// signal-aware context
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock := clockwork.NewRealClock()

	// DB config
	dbCfg := dbconfig.NewConfigFromEnv()
	if dbCfg.Driver == dbconfig.DriverMemory {
		log.Fatal().Msg("the relay needs a shared ledger, set DB_DRIVER to postgres or sqlite")
	}
	store, err := ledger.Open(ctx, dbCfg, clock)
	if err != nil {
		log.Fatal().Err(err).Msg("open ledger")
	}
	defer store.Close()
	log.Info().
		Str("driver", string(dbCfg.Driver)).
		Str("host", dbCfg.Host).
		Str("database", dbCfg.Database).
		Msg("connected to ledger")

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

	relay, err := worker.NewRelay(ctx, store, relayCfg, clock)
	if err != nil {
		log.Fatal().Err(err).Msg("create outbox relay")
	}
	defer func() {
		if err := relay.Close(); err != nil {
			log.Error().Err(err).Msg("close relay")
		}
	}()

	// health endpoint for the orchestrator
	healthSrv := &http.Server{
		Addr:              ":" + getEnv("HEALTH_PORT", "8081"),
		Handler:           relay.Health,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server failed")
		}
	}()

	// run listener
	errCh := make(chan error, 1)
	go func() {
		errCh <- relay.Run(ctx)
	}()

	// wait for shutdown or error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
		if err := <-errCh; err != nil {
			log.Error().Err(err).Msg("listener stopped with error")
		}
	case err := <-errCh:
		log.Error().Err(err).Msg("listener exited unexpectedly")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = healthSrv.Shutdown(shutdownCtx)
	log.Info().Msg("graceful shutdown complete")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
