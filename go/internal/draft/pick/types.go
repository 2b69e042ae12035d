package pick

import (
	"github.com/google/uuid"
	"github.com/mcdev12/snakedraft/go/internal/models"
)

// MakePickRequest represents a request to make a draft pick
type MakePickRequest struct {
	LeagueID uuid.UUID `json:"league_id"`
	TeamID   uuid.UUID `json:"team_id"`
	PlayerID uuid.UUID `json:"player_id"`
}

// MakePickResult is the committed slot and the progress after the pick
type MakePickResult struct {
	Pick     models.PickSlot      `json:"pick"`
	Progress models.DraftProgress `json:"progress"`
}
