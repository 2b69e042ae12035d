package draft

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/jonboulle/clockwork"
	lifecycle "github.com/mcdev12/snakedraft/go/internal/draft/draft"
	"github.com/mcdev12/snakedraft/go/internal/draft/drafterr"
	"github.com/mcdev12/snakedraft/go/internal/draft/ledger"
	"github.com/mcdev12/snakedraft/go/internal/draft/lock"
	"github.com/mcdev12/snakedraft/go/internal/draft/pick"
	"github.com/mcdev12/snakedraft/go/internal/draft/state"
	"github.com/mcdev12/snakedraft/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	fixtureLeague = "6f1c7a52-3b7e-4b8e-9a51-0d6f0c1f2a01"
	firstTeam     = "0b8b2b9e-45a4-4f44-8a8e-1c7f6a0a0001"
	secondTeam    = "0b8b2b9e-45a4-4f44-8a8e-1c7f6a0a0002"
	firstOwner    = "9d2e6c1a-1111-4a3b-9c1d-000000000001"
	joshAllen     = "3a3e0c7e-7d7b-4a8e-8f51-00000000a001"
)

func newTestClient(t *testing.T) *DraftServiceClient {
	t.Helper()
	ctx := context.Background()

	clock := clockwork.NewFakeClockAt(time.Date(2025, 9, 7, 17, 0, 0, 0, time.UTC))
	store := ledger.NewMemoryLedger(clock)
	f, err := ledger.LoadFixture("ledger/testdata/fixture.yaml")
	require.NoError(t, err)
	require.NoError(t, store.Seed(ctx, f))

	locker := lock.NewLocalLocker()
	svc := NewService(
		lifecycle.NewApp(store, locker, clock),
		pick.NewApp(store, store, locker, clock, ledger.DefaultRetryConfig()),
		state.NewApp(store),
	)

	mux := http.NewServeMux()
	mux.Handle(NewDraftServiceHandler(svc))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return NewDraftServiceClient(srv.Client(), srv.URL)
}

func TestService_DraftFlow(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	st, err := client.GetDraftState(ctx, connect.NewRequest(&GetDraftStateRequest{LeagueID: fixtureLeague}))
	require.NoError(t, err)
	assert.Equal(t, models.DraftStatusScheduled, st.Msg.State.Status)
	assert.True(t, st.Msg.State.CanStart)

	started, err := client.StartDraft(ctx, connect.NewRequest(&StartDraftRequest{LeagueID: fixtureLeague}))
	require.NoError(t, err)
	require.NotNil(t, started.Msg.Progress.CurrentTeamID)
	assert.Equal(t, firstTeam, started.Msg.Progress.CurrentTeamID.String())
	assert.Equal(t, 4, started.Msg.Progress.TotalPicks)

	made, err := client.MakePick(ctx, connect.NewRequest(&MakePickRequest{
		LeagueID: fixtureLeague,
		TeamID:   firstTeam,
		PlayerID: joshAllen,
	}))
	require.NoError(t, err)
	assert.Equal(t, 1, made.Msg.Pick.PickNumber)
	assert.Equal(t, 2, made.Msg.Progress.CurrentPickNumber)
	assert.Equal(t, secondTeam, made.Msg.Progress.CurrentTeamID.String())

	st, err = client.GetDraftState(ctx, connect.NewRequest(&GetDraftStateRequest{
		LeagueID: fixtureLeague,
		UserID:   firstOwner,
	}))
	require.NoError(t, err)
	assert.Equal(t, models.DraftStatusInProgress, st.Msg.State.Status)
	assert.False(t, st.Msg.State.IsUserTurn)
	require.Len(t, st.Msg.State.UserRoster, 1)
	assert.Equal(t, joshAllen, st.Msg.State.UserRoster[0].PlayerID.String())
	assert.Len(t, st.Msg.State.AvailablePlayers, 2)
}

func TestService_Errors(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	_, err := client.StartDraft(ctx, connect.NewRequest(&StartDraftRequest{LeagueID: fixtureLeague}))
	require.NoError(t, err)

	tests := []struct {
		name string
		req  *MakePickRequest
		code connect.Code
		kind drafterr.Kind
	}{
		{
			name: "malformed id",
			req:  &MakePickRequest{LeagueID: "nope", TeamID: firstTeam, PlayerID: joshAllen},
			code: connect.CodeInvalidArgument,
		},
		{
			name: "not your turn",
			req:  &MakePickRequest{LeagueID: fixtureLeague, TeamID: secondTeam, PlayerID: joshAllen},
			code: connect.CodePermissionDenied,
			kind: drafterr.KindNotYourTurn,
		},
		{
			name: "unknown player",
			req:  &MakePickRequest{LeagueID: fixtureLeague, TeamID: firstTeam, PlayerID: "3a3e0c7e-7d7b-4a8e-8f51-00000000ffff"},
			code: connect.CodeNotFound,
			kind: drafterr.KindPlayerNotFound,
		},
		{
			name: "no draft",
			req:  &MakePickRequest{LeagueID: "6f1c7a52-3b7e-4b8e-9a51-0d6f0c1fffff", TeamID: firstTeam, PlayerID: joshAllen},
			code: connect.CodeNotFound,
			kind: drafterr.KindNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.MakePick(ctx, connect.NewRequest(tt.req))
			require.Error(t, err)

			var cerr *connect.Error
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, tt.code, cerr.Code())
			if tt.kind != "" {
				assert.Equal(t, string(tt.kind), cerr.Meta().Get(ErrorKindHeader))
			}
		})
	}

	t.Run("not your turn carries the team on the clock", func(t *testing.T) {
		_, err := client.MakePick(ctx, connect.NewRequest(&MakePickRequest{
			LeagueID: fixtureLeague,
			TeamID:   secondTeam,
			PlayerID: joshAllen,
		}))
		var cerr *connect.Error
		require.True(t, errors.As(err, &cerr))
		assert.Equal(t, firstTeam, cerr.Meta().Get("Draft-Current-Team-Id"))
		assert.Equal(t, "1", cerr.Meta().Get("Draft-Current-Pick-Number"))
	})

	t.Run("start twice", func(t *testing.T) {
		_, err := client.StartDraft(ctx, connect.NewRequest(&StartDraftRequest{LeagueID: fixtureLeague}))
		assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))
	})

	t.Run("unknown league state", func(t *testing.T) {
		_, err := client.GetDraftState(ctx, connect.NewRequest(&GetDraftStateRequest{LeagueID: "6f1c7a52-3b7e-4b8e-9a51-0d6f0c1fffff"}))
		assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
	})
}

func TestConnectCode(t *testing.T) {
	assert.Equal(t, connect.CodeAlreadyExists, ConnectCode(drafterr.KindPlayerAlreadyDrafted))
	assert.Equal(t, connect.CodeFailedPrecondition, ConnectCode(drafterr.KindDraftAlreadyComplete))
	assert.Equal(t, connect.CodeUnavailable, ConnectCode(drafterr.KindUnavailable))
	assert.Equal(t, connect.CodeInternal, ConnectCode(drafterr.KindInternal))
}

func TestMetaHeader(t *testing.T) {
	assert.Equal(t, "Draft-Current-Team-Id", metaHeader("current_team_id"))
	assert.Equal(t, "Draft-Player-Id", metaHeader("player_id"))
}
