// Package analytics copies pick events from JetStream into ClickHouse.
package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/snakedraft/go/internal/draft/events"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// ErrMalformed marks a message that can never be processed. It is
// terminated instead of redelivered.
var ErrMalformed = errors.New("malformed event")

// Consumer reads draft events from a durable JetStream consumer and hands
// picks and completions to a Writer
type Consumer struct {
	js       jetstream.JetStream
	consumer jetstream.Consumer
	writer   Writer
	config   ConsumerConfig
}

// NewConsumer binds to, or creates, the durable consumer named in cfg
func NewConsumer(ctx context.Context, js jetstream.JetStream, writer Writer, cfg ConsumerConfig) (*Consumer, error) {
	c := &Consumer{
		js:     js,
		writer: writer,
		config: cfg,
	}
	if err := c.ensureConsumer(ctx); err != nil {
		return nil, fmt.Errorf("ensure consumer: %w", err)
	}
	return c, nil
}

func (c *Consumer) ensureConsumer(ctx context.Context) error {
	stream, err := c.js.Stream(ctx, c.config.StreamName)
	if err != nil {
		return fmt.Errorf("get stream: %w", err)
	}

	// every pick matters, so start from the first message in the stream
	consumerConfig := jetstream.ConsumerConfig{
		Name:          c.config.ConsumerName,
		Durable:       c.config.ConsumerName,
		Description:   "Draft pick analytics consumer",
		FilterSubject: c.config.SubjectFilter,
		DeliverPolicy: jetstream.DeliverAllPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    c.config.MaxDeliver,
		AckWait:       c.config.AckWait,
		MaxAckPending: c.config.MaxAckPending,
		ReplayPolicy:  jetstream.ReplayInstantPolicy,
	}

	consumer, err := stream.Consumer(ctx, c.config.ConsumerName)
	if err != nil {
		consumer, err = stream.CreateConsumer(ctx, consumerConfig)
		if err != nil {
			return fmt.Errorf("create consumer: %w", err)
		}
		log.Info().
			Str("consumer", c.config.ConsumerName).
			Str("stream", c.config.StreamName).
			Msg("created JetStream consumer")
	} else {
		log.Info().
			Str("consumer", c.config.ConsumerName).
			Str("stream", c.config.StreamName).
			Msg("using existing JetStream consumer")
	}

	c.consumer = consumer
	return nil
}

// Start consumes until ctx is cancelled. Messages are processed one at a
// time in delivery order.
func (c *Consumer) Start(ctx context.Context) error {
	log.Info().
		Str("consumer", c.config.ConsumerName).
		Str("stream", c.config.StreamName).
		Msg("starting analytics consumer")

	messageCh := make(chan jetstream.Msg, 100)

	consumeCtx, err := c.consumer.Consume(func(msg jetstream.Msg) {
		select {
		case messageCh <- msg:
		case <-ctx.Done():
			_ = msg.Nak()
		}
	})
	if err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}
	defer consumeCtx.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("analytics consumer shutting down")
			return nil
		case msg := <-messageCh:
			c.settle(msg, c.Handle(ctx, msg.Data()))
		}
	}
}

func (c *Consumer) settle(msg jetstream.Msg, err error) {
	switch {
	case err == nil:
		if ackErr := msg.Ack(); ackErr != nil {
			log.Error().Err(ackErr).Msg("failed to ACK message")
		}
	case errors.Is(err, ErrMalformed):
		log.Error().Err(err).Str("subject", msg.Subject()).Msg("dropping malformed message")
		if termErr := msg.Term(); termErr != nil {
			log.Error().Err(termErr).Msg("failed to TERM message")
		}
	default:
		log.Error().Err(err).Str("subject", msg.Subject()).Msg("failed to process message")
		if nakErr := msg.Nak(); nakErr != nil {
			log.Error().Err(nakErr).Msg("failed to NAK message")
		}
	}
}

// Handle decodes one message body and writes the matching row. Event types
// without an analytics row are acknowledged and skipped.
func (c *Consumer) Handle(ctx context.Context, data []byte) error {
	var env events.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("%w: unmarshal event envelope: %v", ErrMalformed, err)
	}
	eventID, err := uuid.Parse(env.EventID)
	if err != nil {
		return fmt.Errorf("%w: parse event ID: %v", ErrMalformed, err)
	}

	log.Debug().
		Str("event_id", env.EventID).
		Str("league_id", env.LeagueID).
		Str("event_type", env.EventType).
		Msg("processing JetStream event")

	switch env.EventType {
	case events.EventTypePickMade:
		row, err := pickRow(eventID, env.Payload)
		if err != nil {
			return err
		}
		if err := c.writer.WritePick(ctx, row); err != nil {
			return fmt.Errorf("write pick: %w", err)
		}
	case events.EventTypeDraftCompleted:
		row, err := draftRow(eventID, env.Payload)
		if err != nil {
			return err
		}
		if err := c.writer.WriteDraftCompleted(ctx, row); err != nil {
			return fmt.Errorf("write draft completion: %w", err)
		}
	default:
		log.Debug().Str("event_type", env.EventType).Msg("no analytics row for event type")
	}
	return nil
}

func pickRow(eventID uuid.UUID, payload json.RawMessage) (PickRow, error) {
	var p events.PickMadePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return PickRow{}, fmt.Errorf("%w: unmarshal PickMade payload: %v", ErrMalformed, err)
	}

	ids, err := parseIDs(p.LeagueID, p.TeamID, p.PlayerID)
	if err != nil {
		return PickRow{}, err
	}

	return PickRow{
		EventID:         eventID,
		LeagueID:        ids[0],
		TeamID:          ids[1],
		PlayerID:        ids[2],
		PlayerName:      p.PlayerName,
		PlayerPosition:  p.PlayerPosition,
		Round:           p.Round,
		PositionInRound: p.PositionInRound,
		PickNumber:      p.PickNumber,
		MadeAt:          p.MadeAt.UTC(),
	}, nil
}

func draftRow(eventID uuid.UUID, payload json.RawMessage) (DraftRow, error) {
	var p events.DraftCompletedPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return DraftRow{}, fmt.Errorf("%w: unmarshal DraftCompleted payload: %v", ErrMalformed, err)
	}

	ids, err := parseIDs(p.LeagueID)
	if err != nil {
		return DraftRow{}, err
	}

	var seconds float64
	if p.Duration != "" {
		d, err := time.ParseDuration(p.Duration)
		if err != nil {
			return DraftRow{}, fmt.Errorf("%w: parse duration: %v", ErrMalformed, err)
		}
		seconds = d.Seconds()
	}

	return DraftRow{
		EventID:         eventID,
		LeagueID:        ids[0],
		CompletedAt:     p.CompletedAt.UTC(),
		DurationSeconds: seconds,
		TotalPicks:      p.TotalPicks,
	}, nil
}

func parseIDs(raw ...string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, len(raw))
	for i, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("%w: parse id %q: %v", ErrMalformed, s, err)
		}
		ids[i] = id
	}
	return ids, nil
}

// Info returns the durable consumer's state
func (c *Consumer) Info(ctx context.Context) (*jetstream.ConsumerInfo, error) {
	return c.consumer.Info(ctx)
}
