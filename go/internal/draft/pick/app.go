package pick

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/snakedraft/go/internal/draft/drafterr"
	"github.com/mcdev12/snakedraft/go/internal/draft/events"
	"github.com/mcdev12/snakedraft/go/internal/draft/ledger"
	"github.com/mcdev12/snakedraft/go/internal/draft/lock"
	"github.com/mcdev12/snakedraft/go/internal/draft/order"
	"github.com/mcdev12/snakedraft/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Store defines what the pick app needs from the ledger
type Store interface {
	ListPickSlots(ctx context.Context, leagueID uuid.UUID) ([]models.PickSlot, error)
	RunInTx(ctx context.Context, fn func(tx ledger.Tx) error) error
}

// PlayerCatalog is the read-only player source
type PlayerCatalog interface {
	GetPlayersByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Player, error)
}

// App handles pick business logic. MakePick is the only writer of pick
// slots and draft progress once a draft has started.
type App struct {
	store   Store
	catalog PlayerCatalog
	locker  lock.Locker
	clock   clockwork.Clock
	retry   ledger.RetryConfig
}

// NewApp creates a new pick App
func NewApp(store Store, catalog PlayerCatalog, locker lock.Locker, clock clockwork.Clock, retry ledger.RetryConfig) *App {
	return &App{
		store:   store,
		catalog: catalog,
		locker:  locker,
		clock:   clock,
		retry:   retry,
	}
}

// MakePick validates and commits one pick, then advances the turn pointer.
// The final pick also completes the draft and the league.
func (a *App) MakePick(ctx context.Context, req MakePickRequest) (*MakePickResult, error) {
	if err := validateMakePickRequest(req); err != nil {
		return nil, err
	}

	release, err := a.locker.Lock(ctx, lock.LeagueKey(req.LeagueID.String()))
	if err != nil {
		return nil, drafterr.Wrap(err, drafterr.KindUnavailable, "failed to acquire league lock")
	}
	defer release()

	// read outside the transaction; a missing player is only reported once
	// the turn and availability checks have passed
	player, lookupErr := a.lookupPlayer(ctx, req.PlayerID)

	var result *MakePickResult
	err = ledger.Retry(ctx, a.retry, "make_pick", func() error {
		return a.store.RunInTx(ctx, func(tx ledger.Tx) error {
			r, err := a.commit(ctx, tx, req, player, lookupErr)
			if err != nil {
				return err
			}
			result = r
			return nil
		})
	})
	if err != nil {
		return nil, a.classify(req, err)
	}

	logEvent := log.Info().
		Str("league_id", req.LeagueID.String()).
		Str("team_id", req.TeamID.String()).
		Str("player_id", req.PlayerID.String()).
		Int("pick_number", result.Pick.PickNumber).
		Int("round", result.Pick.Round)
	if result.Progress.IsComplete {
		logEvent.Msg("final pick made, draft completed")
	} else {
		logEvent.Msg("pick made")
	}
	return result, nil
}

func (a *App) commit(ctx context.Context, tx ledger.Tx, req MakePickRequest, player *models.Player, lookupErr error) (*MakePickResult, error) {
	// 1. draft exists and is not complete
	progress, err := tx.GetProgress(ctx, req.LeagueID)
	if errors.Is(err, ledger.ErrNotFound) {
		return nil, drafterr.NotFoundf("no draft found for league %s", req.LeagueID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load draft progress: %w", err)
	}
	if progress.IsComplete {
		return nil, drafterr.New(drafterr.KindDraftAlreadyComplete, "draft is already complete")
	}

	// 2. requesting team owns the current pick
	slot, err := tx.GetPickSlot(ctx, req.LeagueID, progress.CurrentPickNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to load pick slot %d: %w", progress.CurrentPickNumber, err)
	}
	if slot.TeamID != req.TeamID {
		return nil, drafterr.Newf(drafterr.KindNotYourTurn, "it is not team %s's turn", req.TeamID).
			WithMeta("current_pick_number", slot.PickNumber).
			WithMeta("current_team_id", slot.TeamID.String())
	}

	// 3. player still available in this league
	drafted, err := tx.IsPlayerDrafted(ctx, req.LeagueID, req.PlayerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check drafted players: %w", err)
	}
	if drafted {
		return nil, drafterr.Newf(drafterr.KindPlayerAlreadyDrafted, "player %s has already been drafted", req.PlayerID).
			WithMeta("player_id", req.PlayerID.String())
	}

	// 4. player exists in the catalog
	if lookupErr != nil {
		return nil, lookupErr
	}
	if player == nil {
		return nil, drafterr.Newf(drafterr.KindPlayerNotFound, "player %s not found", req.PlayerID)
	}

	cfg, err := tx.GetDraftConfiguration(ctx, req.LeagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to load draft configuration: %w", err)
	}

	now := a.clock.Now().UTC()
	if err := tx.AssignPlayer(ctx, req.LeagueID, slot.PickNumber, req.PlayerID, now); err != nil {
		return nil, err
	}
	pid := req.PlayerID
	slot.PlayerID = &pid
	slot.PickedAt = &now

	if err := tx.AddPlayerToRoster(ctx, rosterEntry(slot.TeamID, req.PlayerID, now)); err != nil {
		return nil, err
	}

	next, err := advance(*progress, cfg, now)
	if err != nil {
		return nil, err
	}
	if err := tx.AdvanceProgress(ctx, progress.CurrentPickNumber, next); err != nil {
		return nil, err
	}

	pickEvent, err := events.NewOutboxEvent(req.LeagueID, events.EventTypePickMade, events.PickMadePayload{
		LeagueID:        req.LeagueID.String(),
		TeamID:          req.TeamID.String(),
		PlayerID:        req.PlayerID.String(),
		PlayerName:      player.FullName,
		PlayerPosition:  player.Position,
		Round:           slot.Round,
		PositionInRound: slot.PositionInRound,
		PickNumber:      slot.PickNumber,
		MadeAt:          now,
	}, now)
	if err != nil {
		return nil, err
	}
	if err := tx.InsertOutboxEvent(ctx, pickEvent); err != nil {
		return nil, err
	}

	if next.IsComplete {
		if err := tx.SetDraftStatus(ctx, req.LeagueID, models.DraftStatusCompleted); err != nil {
			return nil, fmt.Errorf("failed to complete league draft: %w", err)
		}

		doneEvent, err := events.NewOutboxEvent(req.LeagueID, events.EventTypeDraftCompleted, events.DraftCompletedPayload{
			LeagueID:    req.LeagueID.String(),
			CompletedAt: now,
			Duration:    now.Sub(progress.StartedAt).String(),
			TotalPicks:  next.TotalPicks,
		}, now)
		if err != nil {
			return nil, err
		}
		if err := tx.InsertOutboxEvent(ctx, doneEvent); err != nil {
			return nil, err
		}
	}

	return &MakePickResult{Pick: *slot, Progress: next}, nil
}

// advance computes the progress after the current pick is committed. Round
// and team are always re-derived from the pick number.
func advance(cur models.DraftProgress, cfg *models.DraftConfiguration, now time.Time) (models.DraftProgress, error) {
	next := cur
	next.CurrentPickNumber = cur.CurrentPickNumber + 1
	next.UpdatedAt = now

	if next.CurrentPickNumber > cur.TotalPicks {
		next.IsComplete = true
		next.CurrentTeamID = nil
		completedAt := now
		next.CompletedAt = &completedAt
		return next, nil
	}

	pos, err := order.Resolve(cfg.DraftOrder, next.CurrentPickNumber)
	if err != nil {
		return models.DraftProgress{}, err
	}
	teamID := pos.TeamID
	next.CurrentRound = pos.Round
	next.CurrentTeamID = &teamID
	return next, nil
}

func rosterEntry(teamID, playerID uuid.UUID, at time.Time) models.Roster {
	return models.Roster{
		ID:              uuid.New(),
		FantasyTeamID:   teamID,
		PlayerID:        playerID,
		Position:        models.RosterPositionBench,
		AcquiredAt:      at,
		AcquisitionType: models.AcquisitionTypeDraft,
	}
}

func (a *App) lookupPlayer(ctx context.Context, playerID uuid.UUID) (*models.Player, error) {
	players, err := a.catalog.GetPlayersByIDs(ctx, []uuid.UUID{playerID})
	if err != nil {
		return nil, fmt.Errorf("failed to look up player: %w", err)
	}
	for i := range players {
		if players[i].ID == playerID {
			return &players[i], nil
		}
	}
	return nil, nil
}

// classify turns a failed commit into the error returned to the caller
func (a *App) classify(req MakePickRequest, err error) error {
	var de *drafterr.Error
	if errors.As(err, &de) {
		log.Debug().
			Str("league_id", req.LeagueID.String()).
			Str("team_id", req.TeamID.String()).
			Str("kind", string(de.Kind)).
			Msg(de.Message)
		return de
	}
	if ledger.IsTransient(err) {
		log.Warn().Err(err).Str("league_id", req.LeagueID.String()).Msg("pick abandoned after retries")
		return drafterr.Wrap(err, drafterr.KindUnavailable, "pick could not be committed, refresh and retry")
	}
	return fmt.Errorf("failed to make pick: %w", err)
}

// ReconcileRosters re-adds every drafted player to its team's roster.
// Pick slots are the source of truth; the roster is a derived copy.
func (a *App) ReconcileRosters(ctx context.Context, leagueID uuid.UUID) (int, error) {
	slots, err := a.store.ListPickSlots(ctx, leagueID)
	if err != nil {
		return 0, fmt.Errorf("failed to list pick slots: %w", err)
	}
	if len(slots) == 0 {
		return 0, drafterr.NotFoundf("no draft found for league %s", leagueID)
	}

	replayed := 0
	err = a.store.RunInTx(ctx, func(tx ledger.Tx) error {
		replayed = 0
		for _, s := range slots {
			if !s.IsFilled() {
				continue
			}
			at := a.clock.Now().UTC()
			if s.PickedAt != nil {
				at = *s.PickedAt
			}
			if err := tx.AddPlayerToRoster(ctx, rosterEntry(s.TeamID, *s.PlayerID, at)); err != nil {
				return err
			}
			replayed++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to reconcile rosters: %w", err)
	}

	log.Info().
		Str("league_id", leagueID.String()).
		Int("slots_replayed", replayed).
		Msg("rosters reconciled")
	return replayed, nil
}

func validateMakePickRequest(req MakePickRequest) error {
	if req.LeagueID == uuid.Nil {
		return drafterr.InvalidArgumentf("league_id is required")
	}
	if req.TeamID == uuid.Nil {
		return drafterr.InvalidArgumentf("team_id is required")
	}
	if req.PlayerID == uuid.Nil {
		return drafterr.InvalidArgumentf("player_id is required")
	}
	return nil
}
