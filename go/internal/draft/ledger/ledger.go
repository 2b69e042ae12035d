// Package ledger persists draft configuration, pick slots and progress together
// with the league, team, player and roster records the draft reads and writes.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/snakedraft/go/internal/models"
)

var (
	// ErrNotFound is returned when a requested record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a compare-and-set write finds the row has
	// already moved on. It is transient: the caller re-validates and retries.
	ErrConflict = errors.New("concurrent modification")
)

// OutboxNotifyChannel is the Postgres channel notified on every outbox insert
const OutboxNotifyChannel = "draft_outbox_events"

// Reader exposes lock-free reads used by state projection.
type Reader interface {
	GetLeague(ctx context.Context, leagueID uuid.UUID) (*models.League, error)
	GetTeamsByLeague(ctx context.Context, leagueID uuid.UUID) ([]models.FantasyTeam, error)
	GetDraftConfiguration(ctx context.Context, leagueID uuid.UUID) (*models.DraftConfiguration, error)
	GetProgress(ctx context.Context, leagueID uuid.UUID) (*models.DraftProgress, error)
	ListPickSlots(ctx context.Context, leagueID uuid.UUID) ([]models.PickSlot, error)
	GetRoster(ctx context.Context, teamID uuid.UUID) ([]models.Roster, error)
	GetAllPlayers(ctx context.Context) ([]models.Player, error)
	GetPlayersByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Player, error)
}

// Tx is the set of operations available inside one atomic unit. Every write
// made through a Tx commits or rolls back together.
type Tx interface {
	GetLeague(ctx context.Context, leagueID uuid.UUID) (*models.League, error)
	GetTeamsByLeague(ctx context.Context, leagueID uuid.UUID) ([]models.FantasyTeam, error)
	GetDraftConfiguration(ctx context.Context, leagueID uuid.UUID) (*models.DraftConfiguration, error)
	GetProgress(ctx context.Context, leagueID uuid.UUID) (*models.DraftProgress, error)
	GetPickSlot(ctx context.Context, leagueID uuid.UUID, pickNumber int) (*models.PickSlot, error)
	IsPlayerDrafted(ctx context.Context, leagueID, playerID uuid.UUID) (bool, error)

	CreateDraft(ctx context.Context, cfg models.DraftConfiguration, progress models.DraftProgress, slots []models.PickSlot) error
	// AssignPlayer fills an empty slot. Returns ErrConflict if the slot is
	// already filled or the player is already held by another slot in the league.
	AssignPlayer(ctx context.Context, leagueID uuid.UUID, pickNumber int, playerID uuid.UUID, at time.Time) error
	// AdvanceProgress replaces the progress row only if it still points at
	// expectedPick and is not complete. Returns ErrConflict otherwise.
	AdvanceProgress(ctx context.Context, expectedPick int, next models.DraftProgress) error
	SetDraftStatus(ctx context.Context, leagueID uuid.UUID, status models.DraftStatus) error
	// AddPlayerToRoster is a no-op if the player is already on the team's roster.
	AddPlayerToRoster(ctx context.Context, entry models.Roster) error
	InsertOutboxEvent(ctx context.Context, event models.OutboxEvent) error
}

// OutboxStore is what the outbox relay needs from the ledger
type OutboxStore interface {
	FetchUnsentOutbox(ctx context.Context, limit int) ([]models.OutboxEvent, error)
	FetchOutboxByID(ctx context.Context, id uuid.UUID) (*models.OutboxEvent, error)
	MarkOutboxSent(ctx context.Context, id uuid.UUID, at time.Time) error
}

// Ledger is a complete draft store
type Ledger interface {
	Reader
	OutboxStore
	RunInTx(ctx context.Context, fn func(tx Tx) error) error
	Seed(ctx context.Context, f Fixture) error
	Close() error
}
