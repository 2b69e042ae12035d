package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/snakedraft/go/internal/models"
)

// Event types written to the outbox and published as NATS subjects
const (
	EventTypeDraftStarted   = "DraftStarted"
	EventTypePickMade       = "PickMade"
	EventTypeDraftCompleted = "DraftCompleted"
)

// Event payload types shared between the draft apps, the outbox relay and
// downstream consumers

// DraftStartedPayload is the payload for a DraftStarted event
type DraftStartedPayload struct {
	LeagueID    string    `json:"league_id"`
	DraftOrder  []string  `json:"draft_order"`
	StartedAt   time.Time `json:"started_at"`
	TotalRounds int       `json:"total_rounds"`
	TotalPicks  int       `json:"total_picks"`
}

// PickMadePayload is the payload for a PickMade event
type PickMadePayload struct {
	LeagueID        string    `json:"league_id"`
	TeamID          string    `json:"team_id"`
	PlayerID        string    `json:"player_id"`
	PlayerName      string    `json:"player_name"`
	PlayerPosition  string    `json:"player_position"`
	Round           int       `json:"round"`
	PositionInRound int       `json:"position_in_round"`
	PickNumber      int       `json:"pick_number"`
	MadeAt          time.Time `json:"made_at"`
}

// DraftCompletedPayload is the payload for a DraftCompleted event
type DraftCompletedPayload struct {
	LeagueID    string    `json:"league_id"`
	CompletedAt time.Time `json:"completed_at"`
	Duration    string    `json:"duration"`
	TotalPicks  int       `json:"total_picks"`
}

// NewOutboxEvent encodes payload into an outbox row for leagueID
func NewOutboxEvent(leagueID uuid.UUID, eventType string, payload any, at time.Time) (models.OutboxEvent, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return models.OutboxEvent{}, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}

	return models.OutboxEvent{
		ID:        uuid.New(),
		LeagueID:  leagueID,
		EventType: eventType,
		Payload:   b,
		CreatedAt: at,
	}, nil
}

// Envelope is the message body published to the event bus
type Envelope struct {
	EventID   string          `json:"eventId"`
	EventType string          `json:"eventType"`
	LeagueID  string          `json:"leagueId"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// NewEnvelope wraps an outbox row for publishing
func NewEnvelope(ev models.OutboxEvent, at time.Time) Envelope {
	return Envelope{
		EventID:   ev.ID.String(),
		EventType: ev.EventType,
		LeagueID:  ev.LeagueID.String(),
		Timestamp: at.UTC(),
		Payload:   ev.Payload,
	}
}
