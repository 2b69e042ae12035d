package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mcdev12/snakedraft/go/internal/config"
	"github.com/mcdev12/snakedraft/go/internal/draft/analytics"
	"github.com/mcdev12/snakedraft/go/internal/draft/outbox/worker"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	cfg.ApplyEnv()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	nc, err := worker.Connect(cfg.NATS.JetStream)
	if err != nil {
		log.Fatal().Err(err).Str("url", cfg.NATS.JetStream.URL).Msg("connect to NATS")
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		log.Fatal().Err(err).Msg("create JetStream context")
	}
	if err := worker.EnsureStream(ctx, js, cfg.NATS.JetStream); err != nil {
		log.Fatal().Err(err).Msg("ensure stream")
	}

	writer, err := analytics.NewClickHouseWriter(ctx, cfg.Analytics.ClickHouse)
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.Analytics.ClickHouse.Addr).Msg("connect to ClickHouse")
	}
	defer writer.Close()

	consumer, err := analytics.NewConsumer(ctx, js, writer, cfg.Analytics.Consumer)
	if err != nil {
		log.Fatal().Err(err).Msg("create analytics consumer")
	}

	if err := consumer.Start(ctx); err != nil {
		log.Error().Err(err).Msg("analytics consumer exited")
	}
	log.Info().Msg("graceful shutdown complete")
}
