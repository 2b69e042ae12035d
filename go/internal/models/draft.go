package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DraftConfiguration is fixed at draft start and never modified afterwards.
type DraftConfiguration struct {
	LeagueID       uuid.UUID      `json:"league_id"`
	DraftOrder     []uuid.UUID    `json:"draft_order"`
	RosterSettings RosterSettings `json:"roster_settings"`
	TotalPicks     int            `json:"total_picks"`
	TotalRounds    int            `json:"total_rounds"`
	CreatedAt      time.Time      `json:"created_at"`
}

// DraftProgress is the turn pointer for a league's draft.
//
// CurrentRound and CurrentTeamID are derived from CurrentPickNumber and the
// pick schedule; they are cached here, never written independently. Once
// IsComplete is true CurrentPickNumber is TotalPicks+1 and CurrentTeamID is nil.
type DraftProgress struct {
	LeagueID          uuid.UUID  `json:"league_id"`
	CurrentPickNumber int        `json:"current_pick_number"`
	CurrentRound      int        `json:"current_round"`
	CurrentTeamID     *uuid.UUID `json:"current_team_id,omitempty"`
	TotalPicks        int        `json:"total_picks"`
	IsComplete        bool       `json:"is_complete"`
	StartedAt         time.Time  `json:"started_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// OutboxEvent is a domain event persisted alongside the state change that produced it.
type OutboxEvent struct {
	ID        uuid.UUID       `json:"id"`
	LeagueID  uuid.UUID       `json:"league_id"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	SentAt    *time.Time      `json:"sent_at,omitempty"`
}
