package models

import (
	"github.com/google/uuid"
)

// Player represents a draftable player from the catalog
type Player struct {
	ID       uuid.UUID `json:"id" yaml:"id"`
	FullName string    `json:"full_name" yaml:"full_name"`
	Position string    `json:"position" yaml:"position"` // 'QB', 'RB', 'WR', etc.
	NFLTeam  string    `json:"nfl_team,omitempty" yaml:"nfl_team"`
}
