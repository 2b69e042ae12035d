package state

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/snakedraft/go/internal/draft/draft"
	"github.com/mcdev12/snakedraft/go/internal/draft/drafterr"
	"github.com/mcdev12/snakedraft/go/internal/draft/ledger"
	"github.com/mcdev12/snakedraft/go/internal/draft/lock"
	"github.com/mcdev12/snakedraft/go/internal/draft/pick"
	"github.com/mcdev12/snakedraft/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type StateTestSuite struct {
	suite.Suite
	ctx   context.Context
	clock *clockwork.FakeClock
	store *ledger.MemoryLedger

	lifecycle *draft.App
	picks     *pick.App
	app       *App

	leagueID uuid.UUID
	owners   []uuid.UUID
	teams    []uuid.UUID
	players  []uuid.UUID
}

func TestStateTestSuite(t *testing.T) {
	suite.Run(t, new(StateTestSuite))
}

func (s *StateTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = clockwork.NewFakeClockAt(time.Date(2025, 9, 4, 20, 0, 0, 0, time.UTC))
	s.store = ledger.NewMemoryLedger(s.clock)

	locker := lock.NewLocalLocker()
	s.lifecycle = draft.NewApp(s.store, locker, s.clock)
	s.picks = pick.NewApp(s.store, s.store, locker, s.clock, ledger.DefaultRetryConfig())
	s.app = NewApp(s.store)

	s.leagueID = uuid.New()
	s.owners = []uuid.UUID{uuid.New(), uuid.New()}
	s.teams = []uuid.UUID{uuid.New(), uuid.New()}
	s.players = []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New(), uuid.New()}
}

// seed registers registered of the league's two teams
func (s *StateTestSuite) seed(registered int) {
	f := ledger.Fixture{
		Leagues: []models.League{{
			ID:             s.leagueID,
			Name:           "State League",
			TeamCount:      2,
			RosterSettings: models.RosterSettings{"QB": 1, "BENCH": 1},
		}},
	}
	for i := 0; i < registered; i++ {
		f.Teams = append(f.Teams, models.FantasyTeam{
			ID:        s.teams[i],
			LeagueID:  s.leagueID,
			OwnerID:   s.owners[i],
			Name:      "Team",
			CreatedAt: s.clock.Now().Add(time.Duration(i) * time.Second),
		})
	}
	for _, id := range s.players {
		f.Players = append(f.Players, models.Player{ID: id, FullName: "Player " + id.String()[:4], Position: "QB"})
	}
	s.Require().NoError(s.store.Seed(s.ctx, f))
}

func (s *StateTestSuite) TestUnknownLeague() {
	_, err := s.app.GetDraftState(s.ctx, uuid.New(), nil)
	s.Equal(drafterr.KindNotFound, drafterr.KindOf(err))
}

func (s *StateTestSuite) TestInProgressWithoutDraftRows() {
	s.Require().NoError(s.store.Seed(s.ctx, ledger.Fixture{
		Leagues: []models.League{{
			ID:             s.leagueID,
			Name:           "Orphaned League",
			TeamCount:      2,
			DraftStatus:    models.DraftStatusInProgress,
			RosterSettings: models.RosterSettings{"QB": 1},
		}},
	}))

	_, err := s.app.GetDraftState(s.ctx, s.leagueID, nil)
	s.Require().Error(err)
	s.Equal(drafterr.KindNotFound, drafterr.KindOf(err))
}

func (s *StateTestSuite) TestScheduledNotReady() {
	s.seed(1)

	st, err := s.app.GetDraftState(s.ctx, s.leagueID, nil)
	s.Require().NoError(err)
	s.Equal(models.DraftStatusScheduled, st.Status)
	s.False(st.CanStart)
	s.Equal("expected 2 teams, found 1", st.Reason)
	s.Equal(PollIntervalSeconds, st.PollIntervalSeconds)
	s.Nil(st.Progress)
	s.Empty(st.Picks)
}

func (s *StateTestSuite) TestScheduledReady() {
	s.seed(2)

	st, err := s.app.GetDraftState(s.ctx, s.leagueID, &s.owners[0])
	s.Require().NoError(err)
	s.True(st.CanStart)
	s.Empty(st.Reason)
	s.False(st.ShouldPoll())
	// no user view before the draft starts
	s.Nil(st.UserTeamID)
}

func (s *StateTestSuite) TestInProgress() {
	s.seed(2)
	_, err := s.lifecycle.StartDraft(s.ctx, s.leagueID)
	s.Require().NoError(err)

	_, err = s.picks.MakePick(s.ctx, pick.MakePickRequest{LeagueID: s.leagueID, TeamID: s.teams[0], PlayerID: s.players[0]})
	s.Require().NoError(err)

	st, err := s.app.GetDraftState(s.ctx, s.leagueID, &s.owners[1])
	s.Require().NoError(err)

	s.Equal(models.DraftStatusInProgress, st.Status)
	s.True(st.ShouldPoll())
	s.Require().NotNil(st.Configuration)
	s.Equal([]uuid.UUID{s.teams[0], s.teams[1]}, st.Configuration.DraftOrder)
	s.Require().NotNil(st.Progress)
	s.Equal(2, st.Progress.CurrentPickNumber)
	s.Require().Len(st.Picks, 4)
	s.True(st.Picks[0].IsFilled())

	s.Len(st.AvailablePlayers, 4)
	for _, p := range st.AvailablePlayers {
		s.NotEqual(s.players[0], p.ID)
	}

	s.Require().NotNil(st.UserTeamID)
	s.Equal(s.teams[1], *st.UserTeamID)
	s.True(st.IsUserTurn)
	s.Empty(st.UserRoster)

	// the team that just picked sees its roster and waits
	st, err = s.app.GetDraftState(s.ctx, s.leagueID, &s.owners[0])
	s.Require().NoError(err)
	s.False(st.IsUserTurn)
	s.Require().Len(st.UserRoster, 1)
	s.Equal(s.players[0], st.UserRoster[0].PlayerID)
	s.Require().NotNil(st.UserRoster[0].Player)
	s.Equal("QB", st.UserRoster[0].Player.Position)
}

func (s *StateTestSuite) TestUserWithoutTeam() {
	s.seed(2)
	_, err := s.lifecycle.StartDraft(s.ctx, s.leagueID)
	s.Require().NoError(err)

	stranger := uuid.New()
	st, err := s.app.GetDraftState(s.ctx, s.leagueID, &stranger)
	s.Require().NoError(err)
	s.Nil(st.UserTeamID)
	s.False(st.IsUserTurn)
	s.NotNil(st.Progress)
}

func (s *StateTestSuite) TestCompleted() {
	s.seed(2)
	_, err := s.lifecycle.StartDraft(s.ctx, s.leagueID)
	s.Require().NoError(err)

	order := []uuid.UUID{s.teams[0], s.teams[1], s.teams[1], s.teams[0]}
	for i, team := range order {
		_, err := s.picks.MakePick(s.ctx, pick.MakePickRequest{LeagueID: s.leagueID, TeamID: team, PlayerID: s.players[i]})
		s.Require().NoError(err)
	}

	st, err := s.app.GetDraftState(s.ctx, s.leagueID, &s.owners[0])
	s.Require().NoError(err)
	s.Equal(models.DraftStatusCompleted, st.Status)
	s.False(st.ShouldPoll())
	s.True(st.Progress.IsComplete)
	s.False(st.IsUserTurn)
	s.Len(st.UserRoster, 2)
	s.Len(st.AvailablePlayers, 1)
}

func TestGetDraftState_DoesNotWaitOnLock(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := ledger.NewMemoryLedger(clock)
	leagueID := uuid.New()
	require.NoError(t, store.Seed(context.Background(), ledger.Fixture{
		Leagues: []models.League{{ID: leagueID, Name: "L", TeamCount: 1, RosterSettings: models.RosterSettings{"QB": 1}}},
	}))

	locker := lock.NewLocalLocker()
	release, err := locker.Lock(context.Background(), lock.LeagueKey(leagueID.String()))
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	st, err := NewApp(store).GetDraftState(ctx, leagueID, nil)
	require.NoError(t, err)
	assert.Equal(t, "expected 1 teams, found 0", st.Reason)
}
