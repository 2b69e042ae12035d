package models

import (
	"github.com/google/uuid"
	"time"
)

// DraftStatus is the league-level draft state. Transitions only move forward:
// SCHEDULED -> IN_PROGRESS -> COMPLETED.
type DraftStatus string

const (
	DraftStatusScheduled  DraftStatus = "SCHEDULED"
	DraftStatusInProgress DraftStatus = "IN_PROGRESS"
	DraftStatusCompleted  DraftStatus = "COMPLETED"
)

// RosterSettings maps a roster slot (QB, RB, BENCH, ...) to how many players fill it.
type RosterSettings map[string]int

// League represents a fantasy league as seen by the draft engine
type League struct {
	ID             uuid.UUID      `json:"id" yaml:"id"`
	Name           string         `json:"name" yaml:"name"`
	TeamCount      int            `json:"team_count" yaml:"team_count"`
	RosterSettings RosterSettings `json:"roster_settings" yaml:"roster_settings"`
	DraftStatus    DraftStatus    `json:"draft_status" yaml:"draft_status"`
	CreatedAt      time.Time      `json:"created_at" yaml:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" yaml:"updated_at"`
}
