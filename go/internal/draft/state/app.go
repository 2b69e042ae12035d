// Package state projects the ledger into the snapshot polling clients read.
package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/snakedraft/go/internal/draft/draft"
	"github.com/mcdev12/snakedraft/go/internal/draft/drafterr"
	"github.com/mcdev12/snakedraft/go/internal/draft/ledger"
	"github.com/mcdev12/snakedraft/go/internal/models"
)

// App assembles draft snapshots. It only reads and never takes the league lock.
type App struct {
	reader ledger.Reader
}

func NewApp(reader ledger.Reader) *App {
	return &App{reader: reader}
}

// GetDraftState returns the current snapshot for leagueID. userID is optional;
// when it owns a team in the league the snapshot includes that team's view.
func (a *App) GetDraftState(ctx context.Context, leagueID uuid.UUID, userID *uuid.UUID) (*DraftState, error) {
	league, err := a.reader.GetLeague(ctx, leagueID)
	if errors.Is(err, ledger.ErrNotFound) {
		return nil, drafterr.NotFoundf("league %s not found", leagueID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get league: %w", err)
	}

	teams, err := a.reader.GetTeamsByLeague(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to get teams: %w", err)
	}

	st := &DraftState{
		LeagueID:            leagueID,
		Status:              league.DraftStatus,
		PollIntervalSeconds: PollIntervalSeconds,
	}

	if league.DraftStatus == models.DraftStatusScheduled {
		if err := draft.CheckStart(league, teams); err != nil {
			st.Reason = err.Error()
		} else {
			st.CanStart = true
		}
		return st, nil
	}

	if err := a.fillDraft(ctx, st); err != nil {
		return nil, err
	}

	if userID != nil {
		if err := a.fillUserView(ctx, st, teams, *userID); err != nil {
			return nil, err
		}
	}
	return st, nil
}

func (a *App) fillDraft(ctx context.Context, st *DraftState) error {
	cfg, err := a.reader.GetDraftConfiguration(ctx, st.LeagueID)
	if errors.Is(err, ledger.ErrNotFound) {
		return drafterr.NotFoundf("no draft found for league %s", st.LeagueID)
	}
	if err != nil {
		return fmt.Errorf("failed to get draft configuration: %w", err)
	}
	progress, err := a.reader.GetProgress(ctx, st.LeagueID)
	if errors.Is(err, ledger.ErrNotFound) {
		return drafterr.NotFoundf("no draft found for league %s", st.LeagueID)
	}
	if err != nil {
		return fmt.Errorf("failed to get draft progress: %w", err)
	}
	slots, err := a.reader.ListPickSlots(ctx, st.LeagueID)
	if err != nil {
		return fmt.Errorf("failed to list pick slots: %w", err)
	}
	players, err := a.reader.GetAllPlayers(ctx)
	if err != nil {
		return fmt.Errorf("failed to get players: %w", err)
	}

	drafted := make(map[uuid.UUID]bool, len(slots))
	for _, s := range slots {
		if s.IsFilled() {
			drafted[*s.PlayerID] = true
		}
	}

	available := make([]models.Player, 0, len(players))
	for _, p := range players {
		if !drafted[p.ID] {
			available = append(available, p)
		}
	}

	st.Configuration = cfg
	st.Progress = progress
	st.Picks = slots
	st.AvailablePlayers = available
	return nil
}

func (a *App) fillUserView(ctx context.Context, st *DraftState, teams []models.FantasyTeam, userID uuid.UUID) error {
	var team *models.FantasyTeam
	for i := range teams {
		if teams[i].OwnerID == userID {
			team = &teams[i]
			break
		}
	}
	if team == nil {
		return nil
	}

	roster, err := a.reader.GetRoster(ctx, team.ID)
	if err != nil {
		return fmt.Errorf("failed to get roster: %w", err)
	}

	ids := make([]uuid.UUID, len(roster))
	for i, r := range roster {
		ids[i] = r.PlayerID
	}
	players, err := a.reader.GetPlayersByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to get roster players: %w", err)
	}
	byID := make(map[uuid.UUID]*models.Player, len(players))
	for i := range players {
		byID[players[i].ID] = &players[i]
	}

	st.UserRoster = make([]RosterPlayer, len(roster))
	for i, r := range roster {
		st.UserRoster[i] = RosterPlayer{Roster: r, Player: byID[r.PlayerID]}
	}

	teamID := team.ID
	st.UserTeamID = &teamID
	st.IsUserTurn = st.Progress != nil &&
		!st.Progress.IsComplete &&
		st.Progress.CurrentTeamID != nil &&
		*st.Progress.CurrentTeamID == teamID
	return nil
}
