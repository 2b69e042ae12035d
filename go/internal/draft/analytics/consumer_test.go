package analytics_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/snakedraft/go/internal/draft/analytics"
	"github.com/mcdev12/snakedraft/go/internal/draft/analytics/mock"
	"github.com/mcdev12/snakedraft/go/internal/draft/bus"
	"github.com/mcdev12/snakedraft/go/internal/draft/events"
	"github.com/mcdev12/snakedraft/go/internal/draft/outbox/worker"
	"github.com/mcdev12/snakedraft/go/internal/models"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var madeAt = time.Date(2025, 9, 4, 20, 15, 0, 0, time.UTC)

type env struct {
	js jetstream.JetStream
}

func setup(t *testing.T) env {
	t.Helper()
	ns, err := bus.StartEmbedded(bus.EmbeddedOptions{Port: -1, StoreDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { bus.Shutdown(ns) })

	nc, err := nats.Connect(ns.ClientURL())
	require.NoError(t, err)
	t.Cleanup(nc.Close)

	js, err := jetstream.New(nc)
	require.NoError(t, err)

	require.NoError(t, worker.EnsureStream(context.Background(), js, worker.DefaultJetStreamConfig()))
	return env{js: js}
}

func newConsumer(t *testing.T, e env, w analytics.Writer) *analytics.Consumer {
	t.Helper()
	c, err := analytics.NewConsumer(context.Background(), e.js, w, analytics.DefaultConsumerConfig())
	require.NoError(t, err)
	return c
}

func pickEvent(t *testing.T, leagueID, teamID, playerID uuid.UUID, pickNumber int) ([]byte, analytics.PickRow, uuid.UUID) {
	t.Helper()
	ev, err := events.NewOutboxEvent(leagueID, events.EventTypePickMade, events.PickMadePayload{
		LeagueID:        leagueID.String(),
		TeamID:          teamID.String(),
		PlayerID:        playerID.String(),
		PlayerName:      "Josh Allen",
		PlayerPosition:  "QB",
		Round:           1,
		PositionInRound: pickNumber,
		PickNumber:      pickNumber,
		MadeAt:          madeAt,
	}, madeAt)
	require.NoError(t, err)

	data := mustEnvelope(t, ev)
	return data, analytics.PickRow{
		EventID:         ev.ID,
		LeagueID:        leagueID,
		TeamID:          teamID,
		PlayerID:        playerID,
		PlayerName:      "Josh Allen",
		PlayerPosition:  "QB",
		Round:           1,
		PositionInRound: pickNumber,
		PickNumber:      pickNumber,
		MadeAt:          madeAt,
	}, ev.ID
}

func TestHandle(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	leagueID, teamID, playerID := uuid.New(), uuid.New(), uuid.New()

	t.Run("pick made", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		w := mock.NewMockWriter(ctrl)
		data, row, _ := pickEvent(t, leagueID, teamID, playerID, 3)
		w.EXPECT().WritePick(gomock.Any(), row).Return(nil)

		require.NoError(t, newConsumer(t, e, w).Handle(ctx, data))
	})

	t.Run("draft completed", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		w := mock.NewMockWriter(ctrl)

		ev, err := events.NewOutboxEvent(leagueID, events.EventTypeDraftCompleted, events.DraftCompletedPayload{
			LeagueID:    leagueID.String(),
			CompletedAt: madeAt,
			Duration:    (90 * time.Minute).String(),
			TotalPicks:  56,
		}, madeAt)
		require.NoError(t, err)

		w.EXPECT().WriteDraftCompleted(gomock.Any(), analytics.DraftRow{
			EventID:         ev.ID,
			LeagueID:        leagueID,
			CompletedAt:     madeAt,
			DurationSeconds: 5400,
			TotalPicks:      56,
		}).Return(nil)

		require.NoError(t, newConsumer(t, e, w).Handle(ctx, mustEnvelope(t, ev)))
	})

	t.Run("draft started is skipped", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		w := mock.NewMockWriter(ctrl)

		ev, err := events.NewOutboxEvent(leagueID, events.EventTypeDraftStarted, events.DraftStartedPayload{LeagueID: leagueID.String()}, madeAt)
		require.NoError(t, err)
		require.NoError(t, newConsumer(t, e, w).Handle(ctx, mustEnvelope(t, ev)))
	})

	t.Run("malformed", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		c := newConsumer(t, e, mock.NewMockWriter(ctrl))

		for _, data := range [][]byte{
			[]byte("not json"),
			[]byte(`{"eventId":"nope","eventType":"PickMade"}`),
			[]byte(`{"eventId":"` + uuid.NewString() + `","eventType":"PickMade","payload":{"league_id":"x"}}`),
		} {
			assert.ErrorIs(t, c.Handle(ctx, data), analytics.ErrMalformed)
		}
	})

	t.Run("writer failure is retryable", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		w := mock.NewMockWriter(ctrl)
		data, _, _ := pickEvent(t, leagueID, teamID, playerID, 4)
		w.EXPECT().WritePick(gomock.Any(), gomock.Any()).Return(errors.New("clickhouse: connection refused"))

		err := newConsumer(t, e, w).Handle(ctx, data)
		require.Error(t, err)
		assert.NotErrorIs(t, err, analytics.ErrMalformed)
	})
}

func TestConsumer_Start(t *testing.T) {
	e := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctrl := gomock.NewController(t)
	w := mock.NewMockWriter(ctrl)

	leagueID := uuid.New()
	written := make(chan analytics.PickRow, 4)
	gomock.InOrder(
		// first delivery fails and is redelivered
		w.EXPECT().WritePick(gomock.Any(), gomock.Any()).Return(errors.New("clickhouse: timeout")),
		w.EXPECT().WritePick(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, row analytics.PickRow) error {
			written <- row
			return nil
		}).Times(2),
	)

	c := newConsumer(t, e, w)
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	first, _, firstID := pickEvent(t, leagueID, uuid.New(), uuid.New(), 1)
	_, err := e.js.Publish(ctx, "draft.events.PickMade", first)
	require.NoError(t, err)
	// malformed messages are terminated without reaching the writer
	_, err = e.js.Publish(ctx, "draft.events.PickMade", []byte("garbage"))
	require.NoError(t, err)
	second, _, secondID := pickEvent(t, leagueID, uuid.New(), uuid.New(), 2)
	_, err = e.js.Publish(ctx, "draft.events.PickMade", second)
	require.NoError(t, err)

	got := map[uuid.UUID]bool{}
	for i := 0; i < 2; i++ {
		select {
		case row := <-written:
			got[row.EventID] = true
		case <-time.After(10 * time.Second):
			t.Fatal("timed out waiting for analytics rows")
		}
	}
	assert.Equal(t, map[uuid.UUID]bool{firstID: true, secondID: true}, got)

	require.Eventually(t, func() bool {
		info, err := c.Info(context.Background())
		return err == nil && info.NumAckPending == 0 && info.NumPending == 0
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func mustEnvelope(t *testing.T, ev models.OutboxEvent) []byte {
	t.Helper()
	data, err := json.Marshal(events.NewEnvelope(ev, madeAt))
	require.NoError(t, err)
	return data
}
