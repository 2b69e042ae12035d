package models

import (
	"github.com/google/uuid"
	"time"
)

// FantasyTeam is a team registered in a league. CreatedAt doubles as the
// registration time used for default draft ordering.
type FantasyTeam struct {
	ID        uuid.UUID `json:"id" yaml:"id"`
	LeagueID  uuid.UUID `json:"league_id" yaml:"league_id"`
	OwnerID   uuid.UUID `json:"owner_id" yaml:"owner_id"`
	Name      string    `json:"name" yaml:"name"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}
