package models

import (
	"github.com/google/uuid"
	"time"
)

// PickSlot is a single reservation in the draft schedule. TeamID is resolved
// when the draft starts; PlayerID and PickedAt are set exactly once.
type PickSlot struct {
	LeagueID        uuid.UUID  `json:"league_id"`
	PickNumber      int        `json:"pick_number"` // pick number overall
	Round           int        `json:"round"`
	PositionInRound int        `json:"position_in_round"`
	TeamID          uuid.UUID  `json:"team_id"`
	PlayerID        *uuid.UUID `json:"player_id,omitempty"` // nil until picked
	PickedAt        *time.Time `json:"picked_at,omitempty"`
}

// IsFilled reports whether a player has been assigned to the slot.
func (p PickSlot) IsFilled() bool {
	return p.PlayerID != nil
}
