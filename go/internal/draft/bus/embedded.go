// Package bus runs an in-process NATS server with JetStream for local
// development and tests.
package bus

import (
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/rs/zerolog/log"
)

type EmbeddedOptions struct {
	Port     int    // -1 picks a random free port
	StoreDir string // JetStream storage; empty uses a temp dir
}

func DefaultEmbeddedOptions() EmbeddedOptions {
	return EmbeddedOptions{Port: -1}
}

// StartEmbedded starts a JetStream enabled server and waits until it accepts
// connections. Callers shut it down with Shutdown.
func StartEmbedded(opts EmbeddedOptions) (*server.Server, error) {
	port := opts.Port
	if port == 0 {
		port = -1
	}

	ns, err := server.NewServer(&server.Options{
		Port:      port,
		JetStream: true,
		StoreDir:  opts.StoreDir,
		NoSigs:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedded NATS server: %w", err)
	}
	ns.SetLogger(natsLogger{}, false, false)

	go ns.Start()

	if !ns.ReadyForConnections(10 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("embedded NATS server failed to start within timeout")
	}

	log.Info().Str("url", ns.ClientURL()).Msg("embedded NATS server started")
	return ns, nil
}

// Shutdown stops ns and waits for it to exit
func Shutdown(ns *server.Server) {
	ns.Shutdown()
	ns.WaitForShutdown()
}

// natsLogger routes server logs through zerolog
type natsLogger struct{}

func (natsLogger) Noticef(format string, v ...any) {
	log.Debug().Str("component", "nats").Msgf(format, v...)
}

func (natsLogger) Warnf(format string, v ...any) {
	log.Warn().Str("component", "nats").Msgf(format, v...)
}

func (natsLogger) Fatalf(format string, v ...any) {
	log.Error().Str("component", "nats").Msgf(format, v...)
}

func (natsLogger) Errorf(format string, v ...any) {
	log.Error().Str("component", "nats").Msgf(format, v...)
}

func (natsLogger) Debugf(format string, v ...any) {
	log.Debug().Str("component", "nats").Msgf(format, v...)
}

func (natsLogger) Tracef(format string, v ...any) {
	log.Trace().Str("component", "nats").Msgf(format, v...)
}
