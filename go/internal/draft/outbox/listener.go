// Package outbox relays committed outbox events to the event bus.
package outbox

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/snakedraft/go/internal/draft/ledger"
	"github.com/mcdev12/snakedraft/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Listener publishes unsent outbox rows and marks them sent. It wakes on
// notifications when a Notifier is configured and always polls on the
// fallback interval.
type Listener struct {
	store     ledger.OutboxStore
	publisher Publisher
	notifier  Notifier
	clock     clockwork.Clock
	cfg       ListenerConfig

	running       atomic.Bool
	published     atomic.Uint64
	lastPublished atomic.Int64 // unix nanos
}

// NewListener creates a relay. notifier may be nil, in which case the relay
// only polls.
func NewListener(store ledger.OutboxStore, publisher Publisher, notifier Notifier, clock clockwork.Clock, cfg ListenerConfig) *Listener {
	return &Listener{
		store:     store,
		publisher: publisher,
		notifier:  notifier,
		clock:     clock,
		cfg:       cfg,
	}
}

// Start runs the relay until ctx is cancelled. It drains once before waiting.
func (l *Listener) Start(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return fmt.Errorf("outbox listener already running")
	}
	defer l.running.Store(false)

	log.Info().
		Bool("notify", l.notifier != nil).
		Dur("fallback_interval", l.cfg.FallbackInterval).
		Msg("outbox listener started")

	if _, err := l.Drain(ctx); err != nil {
		log.Error().Err(err).Msg("failed to process unsent events")
	}

	fallback := l.clock.NewTicker(l.cfg.FallbackInterval)
	defer fallback.Stop()

	var (
		notes <-chan string
		pings <-chan time.Time
	)
	if l.notifier != nil {
		notes = l.notifier.Notifications()
		ping := l.clock.NewTicker(l.cfg.PingInterval)
		defer ping.Stop()
		pings = ping.Chan()
	}

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("outbox listener shutting down")
			if l.notifier != nil {
				return l.notifier.Close()
			}
			return nil
		case id, ok := <-notes:
			if !ok {
				// notifier closed underneath us; keep polling
				notes = nil
				continue
			}
			if err := l.HandleNotification(ctx, id); err != nil {
				log.Error().Err(err).Msg("failed to handle notification")
			}
		case <-fallback.Chan():
			if _, err := l.Drain(ctx); err != nil {
				log.Error().Err(err).Msg("failed to process unsent events")
			}
		case <-pings:
			if err := l.notifier.Ping(); err != nil {
				log.Error().Err(err).Msg("failed to ping listener")
			}
		}
	}
}

// HandleNotification publishes the outbox row named by id. An empty id
// drains everything unsent. A row that is already sent is skipped.
func (l *Listener) HandleNotification(ctx context.Context, id string) error {
	if id == "" {
		_, err := l.Drain(ctx)
		return err
	}

	eventID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid event ID in notification: %w", err)
	}

	event, err := l.store.FetchOutboxByID(ctx, eventID)
	if errors.Is(err, ledger.ErrNotFound) {
		log.Debug().Str("event_id", id).Msg("outbox event already sent")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to fetch outbox event: %w", err)
	}

	return l.deliver(ctx, *event)
}

// Drain publishes up to BatchSize unsent rows in insertion order and returns
// how many were delivered. A row that fails is left for the next drain.
func (l *Listener) Drain(ctx context.Context) (int, error) {
	unsent, err := l.store.FetchUnsentOutbox(ctx, l.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch unsent outbox events: %w", err)
	}

	sent := 0
	for _, event := range unsent {
		if err := l.deliver(ctx, event); err != nil {
			log.Error().Err(err).Str("event_id", event.ID.String()).Msg("failed to deliver event")
			continue
		}
		sent++
	}

	if len(unsent) > 0 {
		log.Debug().
			Int("fetched", len(unsent)).
			Int("sent", sent).
			Msg("drained outbox")
	}
	return sent, nil
}

func (l *Listener) deliver(ctx context.Context, event models.OutboxEvent) error {
	if err := l.publishWithRetry(ctx, event); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	now := l.clock.Now().UTC()
	if err := l.store.MarkOutboxSent(ctx, event.ID, now); err != nil && !errors.Is(err, ledger.ErrNotFound) {
		return fmt.Errorf("failed to mark outbox event as sent: %w", err)
	}

	l.published.Add(1)
	l.lastPublished.Store(now.UnixNano())

	log.Info().
		Str("event_id", event.ID.String()).
		Str("event_type", event.EventType).
		Str("league_id", event.LeagueID.String()).
		Msg("published and marked event as sent")
	return nil
}

// publishWithRetry backs off linearly by RetryDelay between attempts.
func (l *Listener) publishWithRetry(ctx context.Context, event models.OutboxEvent) error {
	var lastErr error

	for attempt := 0; attempt <= l.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if delay := l.cfg.RetryDelay * time.Duration(attempt); delay > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-l.clock.After(delay):
				}
			}
		}

		if err := l.publisher.Publish(ctx, event); err != nil {
			lastErr = err
			log.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Str("event_id", event.ID.String()).
				Msg("failed to publish, retrying")
			continue
		}

		if attempt > 0 {
			log.Info().
				Int("attempt", attempt+1).
				Str("event_id", event.ID.String()).
				Msg("publish succeeded after retry")
		}
		return nil
	}

	return fmt.Errorf("publish failed after %d attempts: %w", l.cfg.MaxRetries+1, lastErr)
}

// Stats returns how many events this relay has published and when it last did.
func (l *Listener) Stats() (uint64, time.Time) {
	var last time.Time
	if n := l.lastPublished.Load(); n > 0 {
		last = time.Unix(0, n).UTC()
	}
	return l.published.Load(), last
}

// Running reports whether Start is active
func (l *Listener) Running() bool {
	return l.running.Load()
}
