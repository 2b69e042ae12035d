package state

import (
	"github.com/google/uuid"
	"github.com/mcdev12/snakedraft/go/internal/models"
)

// PollIntervalSeconds is how often clients are expected to refresh while a
// draft is in progress
const PollIntervalSeconds = 3

// DraftState is the read-only snapshot returned to polling clients
type DraftState struct {
	LeagueID            uuid.UUID          `json:"league_id"`
	Status              models.DraftStatus `json:"status"`
	PollIntervalSeconds int                `json:"poll_interval_seconds"`

	// set while SCHEDULED
	CanStart bool   `json:"can_start"`
	Reason   string `json:"reason,omitempty"`

	// set once the draft has started
	Configuration    *models.DraftConfiguration `json:"configuration,omitempty"`
	Progress         *models.DraftProgress      `json:"progress,omitempty"`
	Picks            []models.PickSlot          `json:"picks,omitempty"`
	AvailablePlayers []models.Player            `json:"available_players,omitempty"`

	// set when the requesting user owns a team in the league
	UserTeamID *uuid.UUID     `json:"user_team_id,omitempty"`
	UserRoster []RosterPlayer `json:"user_roster,omitempty"`
	IsUserTurn bool           `json:"is_user_turn"`
}

// RosterPlayer is a roster entry joined with its catalog record
type RosterPlayer struct {
	models.Roster
	Player *models.Player `json:"player,omitempty"`
}

// ShouldPoll reports whether a client should keep refreshing
func (s *DraftState) ShouldPoll() bool {
	return s.Status == models.DraftStatusInProgress
}
