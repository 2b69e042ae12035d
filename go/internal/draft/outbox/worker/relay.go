package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/snakedraft/go/internal/draft/bus"
	"github.com/mcdev12/snakedraft/go/internal/draft/ledger"
	"github.com/mcdev12/snakedraft/go/internal/draft/outbox"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/rs/zerolog/log"
)

// RelayConfig assembles a relay for one process
type RelayConfig struct {
	JetStream JetStreamConfig
	Listener  outbox.ListenerConfig

	// Embedded starts an in-process NATS server and ignores JetStream.URL
	Embedded bool
	StoreDir string

	// NotifyDSN enables Postgres LISTEN/NOTIFY wakeups when set
	NotifyDSN string

	HealthThreshold time.Duration
}

// Relay owns the bus connection, notifier and listener that move outbox
// rows onto the stream.
type Relay struct {
	Listener  *outbox.Listener
	Publisher *JetStreamPublisher
	Health    *outbox.HealthChecker

	server *server.Server
}

// NewRelay connects everything but does not start the listener
func NewRelay(ctx context.Context, store ledger.OutboxStore, cfg RelayConfig, clock clockwork.Clock) (*Relay, error) {
	r := &Relay{}

	jsCfg := cfg.JetStream
	if cfg.Embedded {
		ns, err := bus.StartEmbedded(bus.EmbeddedOptions{Port: -1, StoreDir: cfg.StoreDir})
		if err != nil {
			return nil, err
		}
		r.server = ns
		jsCfg.URL = ns.ClientURL()
	}

	publisher, err := NewJetStreamPublisher(ctx, jsCfg, clock)
	if err != nil {
		r.shutdownServer()
		return nil, fmt.Errorf("failed to create JetStream publisher: %w", err)
	}
	r.Publisher = publisher

	var notifier outbox.Notifier
	if cfg.NotifyDSN != "" {
		n, err := outbox.NewPQNotifier(cfg.NotifyDSN)
		if err != nil {
			_ = publisher.Close()
			r.shutdownServer()
			return nil, err
		}
		notifier = n
	} else {
		log.Info().Dur("interval", cfg.Listener.FallbackInterval).Msg("no outbox notifier, relay will poll")
	}

	r.Listener = outbox.NewListener(store, publisher, notifier, clock, cfg.Listener)
	r.Health = outbox.NewHealthChecker(r.Listener, store, publisher.Connected, clock, cfg.HealthThreshold)
	return r, nil
}

// Run blocks until ctx is cancelled
func (r *Relay) Run(ctx context.Context) error {
	log.Info().Str("stream", r.Publisher.config.StreamName).Msg("starting outbox relay")
	return r.Listener.Start(ctx)
}

// Close releases the bus connection and any embedded server
func (r *Relay) Close() error {
	err := r.Publisher.Close()
	r.shutdownServer()
	return err
}

func (r *Relay) shutdownServer() {
	if r.server != nil {
		bus.Shutdown(r.server)
		r.server = nil
	}
}
