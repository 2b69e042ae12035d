package draft

import (
	"context"
	"errors"
	"fmt"

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

// Store defines what the lifecycle app needs from the ledger
type Store interface {
	RunInTx(ctx context.Context, fn func(tx ledger.Tx) error) error
}

// App handles draft lifecycle business logic
type App struct {
	store  Store
	locker lock.Locker
	clock  clockwork.Clock
	policy OrderPolicy
	retry  ledger.RetryConfig
}

type Option func(*App)

func WithOrderPolicy(p OrderPolicy) Option {
	return func(a *App) { a.policy = p }
}

func WithRetry(cfg ledger.RetryConfig) Option {
	return func(a *App) { a.retry = cfg }
}

// NewApp creates a new lifecycle App
func NewApp(store Store, locker lock.Locker, clock clockwork.Clock, opts ...Option) *App {
	a := &App{
		store:  store,
		locker: locker,
		clock:  clock,
		policy: ByRegistration{},
		retry:  ledger.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// CheckStart reports the first unmet precondition for starting the draft,
// or nil if it can start. It has no side effects.
func CheckStart(league *models.League, teams []models.FantasyTeam) error {
	if league.DraftStatus != models.DraftStatusScheduled {
		return drafterr.InvalidStatef("draft cannot be started from status %s", league.DraftStatus).
			WithMeta("draft_status", string(league.DraftStatus))
	}

	if len(teams) != league.TeamCount {
		return drafterr.InvalidStatef("expected %d teams, found %d", league.TeamCount, len(teams)).
			WithMeta("expected_teams", league.TeamCount).
			WithMeta("found_teams", len(teams))
	}

	total, err := order.TotalPicksFor(league.TeamCount, league.RosterSettings)
	if err != nil {
		return drafterr.Wrap(err, drafterr.KindInvalidState, "league roster settings are invalid")
	}
	if total == 0 {
		return drafterr.InvalidStatef("roster settings define no roster slots")
	}
	return nil
}

// StartDraft fixes the draft order, pre-creates every pick slot and moves the
// league to IN_PROGRESS in a single transaction.
func (a *App) StartDraft(ctx context.Context, leagueID uuid.UUID) (*models.DraftProgress, error) {
	release, err := a.locker.Lock(ctx, lock.LeagueKey(leagueID.String()))
	if err != nil {
		return nil, drafterr.Wrap(err, drafterr.KindUnavailable, "failed to acquire league lock")
	}
	defer release()

	var progress *models.DraftProgress
	err = ledger.Retry(ctx, a.retry, "start_draft", func() error {
		return a.store.RunInTx(ctx, func(tx ledger.Tx) error {
			p, err := a.startInTx(ctx, tx, leagueID)
			if err != nil {
				return err
			}
			progress = p
			return nil
		})
	})
	if err != nil {
		if ledger.IsTransient(err) {
			return nil, drafterr.Wrap(err, drafterr.KindUnavailable, "draft start could not be committed")
		}
		var de *drafterr.Error
		if errors.As(err, &de) {
			log.Debug().
				Str("league_id", leagueID.String()).
				Str("kind", string(de.Kind)).
				Msg(de.Message)
			return nil, de
		}
		return nil, fmt.Errorf("failed to start draft: %w", err)
	}

	log.Info().
		Str("league_id", leagueID.String()).
		Str("order_policy", a.policy.Name()).
		Int("total_picks", progress.TotalPicks).
		Msg("draft started")
	return progress, nil
}

func (a *App) startInTx(ctx context.Context, tx ledger.Tx, leagueID uuid.UUID) (*models.DraftProgress, error) {
	league, err := tx.GetLeague(ctx, leagueID)
	if errors.Is(err, ledger.ErrNotFound) {
		return nil, drafterr.NotFoundf("league %s not found", leagueID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load league: %w", err)
	}

	teams, err := tx.GetTeamsByLeague(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to load teams: %w", err)
	}

	if err := CheckStart(league, teams); err != nil {
		return nil, err
	}

	draftOrder := a.policy.Order(teams)
	totalPicks, err := order.TotalPicksFor(len(draftOrder), league.RosterSettings)
	if err != nil {
		return nil, err
	}
	schedule, err := order.Schedule(draftOrder, totalPicks)
	if err != nil {
		return nil, err
	}

	now := a.clock.Now().UTC()
	slots := make([]models.PickSlot, len(schedule))
	for i, pos := range schedule {
		slots[i] = models.PickSlot{
			LeagueID:        leagueID,
			PickNumber:      i + 1,
			Round:           pos.Round,
			PositionInRound: pos.PositionInRound,
			TeamID:          pos.TeamID,
		}
	}

	cfg := models.DraftConfiguration{
		LeagueID:       leagueID,
		DraftOrder:     draftOrder,
		RosterSettings: league.RosterSettings,
		TotalPicks:     totalPicks,
		TotalRounds:    order.TotalRounds(totalPicks, len(draftOrder)),
		CreatedAt:      now,
	}

	first := slots[0].TeamID
	progress := models.DraftProgress{
		LeagueID:          leagueID,
		CurrentPickNumber: 1,
		CurrentRound:      slots[0].Round,
		CurrentTeamID:     &first,
		TotalPicks:        totalPicks,
		StartedAt:         now,
		UpdatedAt:         now,
	}

	if err := tx.CreateDraft(ctx, cfg, progress, slots); err != nil {
		return nil, fmt.Errorf("failed to create draft: %w", err)
	}
	if err := tx.SetDraftStatus(ctx, leagueID, models.DraftStatusInProgress); err != nil {
		return nil, fmt.Errorf("failed to set draft status: %w", err)
	}

	orderStrs := make([]string, len(draftOrder))
	for i, id := range draftOrder {
		orderStrs[i] = id.String()
	}
	ev, err := events.NewOutboxEvent(leagueID, events.EventTypeDraftStarted, events.DraftStartedPayload{
		LeagueID:    leagueID.String(),
		DraftOrder:  orderStrs,
		StartedAt:   now,
		TotalRounds: cfg.TotalRounds,
		TotalPicks:  totalPicks,
	}, now)
	if err != nil {
		return nil, err
	}
	if err := tx.InsertOutboxEvent(ctx, ev); err != nil {
		return nil, err
	}

	return &progress, nil
}
