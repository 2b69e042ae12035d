package outbox_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/snakedraft/go/internal/draft/events"
	"github.com/mcdev12/snakedraft/go/internal/draft/ledger"
	"github.com/mcdev12/snakedraft/go/internal/draft/outbox"
	"github.com/mcdev12/snakedraft/go/internal/draft/outbox/mock"
	"github.com/mcdev12/snakedraft/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func testConfig() outbox.ListenerConfig {
	cfg := outbox.DefaultListenerConfig()
	cfg.RetryDelay = 0
	cfg.MaxRetries = 2
	cfg.FallbackInterval = 10 * time.Second
	return cfg
}

func insertEvents(t *testing.T, store *ledger.MemoryLedger, clock clockwork.Clock, n int) []models.OutboxEvent {
	t.Helper()
	leagueID := uuid.New()
	out := make([]models.OutboxEvent, 0, n)
	require.NoError(t, store.RunInTx(context.Background(), func(tx ledger.Tx) error {
		for i := 0; i < n; i++ {
			ev, err := events.NewOutboxEvent(leagueID, events.EventTypePickMade, events.PickMadePayload{
				LeagueID:   leagueID.String(),
				PickNumber: i + 1,
			}, clock.Now())
			if err != nil {
				return err
			}
			if err := tx.InsertOutboxEvent(context.Background(), ev); err != nil {
				return err
			}
			out = append(out, ev)
		}
		return nil
	}))
	return out
}

// recorder captures published event ids
type recorder struct {
	mu  sync.Mutex
	ids []uuid.UUID
}

func (r *recorder) record(_ context.Context, ev models.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, ev.ID)
	return nil
}

func (r *recorder) published() []uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uuid.UUID(nil), r.ids...)
}

func unsent(t *testing.T, store *ledger.MemoryLedger) []models.OutboxEvent {
	t.Helper()
	evs, err := store.FetchUnsentOutbox(context.Background(), 0)
	require.NoError(t, err)
	return evs
}

func TestDrain_PublishesInOrderAndMarksSent(t *testing.T) {
	ctrl := gomock.NewController(t)
	clock := clockwork.NewFakeClock()
	store := ledger.NewMemoryLedger(clock)
	evs := insertEvents(t, store, clock, 3)

	rec := &recorder{}
	pub := mock.NewMockPublisher(ctrl)
	pub.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(rec.record).Times(3)

	l := outbox.NewListener(store, pub, nil, clock, testConfig())
	sent, err := l.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, sent)
	assert.Equal(t, []uuid.UUID{evs[0].ID, evs[1].ID, evs[2].ID}, rec.published())
	assert.Empty(t, unsent(t, store))

	count, last := l.Stats()
	assert.Equal(t, uint64(3), count)
	assert.Equal(t, clock.Now().UTC(), last)
}

func TestDrain_RespectsBatchSize(t *testing.T) {
	ctrl := gomock.NewController(t)
	clock := clockwork.NewFakeClock()
	store := ledger.NewMemoryLedger(clock)
	insertEvents(t, store, clock, 5)

	pub := mock.NewMockPublisher(ctrl)
	pub.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	cfg := testConfig()
	cfg.BatchSize = 2
	sent, err := outbox.NewListener(store, pub, nil, clock, cfg).Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Len(t, unsent(t, store), 3)
}

func TestDrain_RetriesThenSucceeds(t *testing.T) {
	ctrl := gomock.NewController(t)
	clock := clockwork.NewFakeClock()
	store := ledger.NewMemoryLedger(clock)
	insertEvents(t, store, clock, 1)

	pub := mock.NewMockPublisher(ctrl)
	gomock.InOrder(
		pub.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("nats: timeout")),
		pub.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil),
	)

	sent, err := outbox.NewListener(store, pub, nil, clock, testConfig()).Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Empty(t, unsent(t, store))
}

func TestDrain_FailedEventStaysUnsent(t *testing.T) {
	ctrl := gomock.NewController(t)
	clock := clockwork.NewFakeClock()
	store := ledger.NewMemoryLedger(clock)
	evs := insertEvents(t, store, clock, 2)

	pub := mock.NewMockPublisher(ctrl)
	// first event exhausts MaxRetries+1 attempts, second goes through
	pub.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, ev models.OutboxEvent) error {
		if ev.ID == evs[0].ID {
			return errors.New("nats: no responders")
		}
		return nil
	}).Times(4)

	sent, err := outbox.NewListener(store, pub, nil, clock, testConfig()).Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	left := unsent(t, store)
	require.Len(t, left, 1)
	assert.Equal(t, evs[0].ID, left[0].ID)
}

func TestHandleNotification(t *testing.T) {
	ctrl := gomock.NewController(t)
	clock := clockwork.NewFakeClock()
	store := ledger.NewMemoryLedger(clock)
	evs := insertEvents(t, store, clock, 2)

	rec := &recorder{}
	pub := mock.NewMockPublisher(ctrl)
	pub.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(rec.record).Times(2)

	l := outbox.NewListener(store, pub, nil, clock, testConfig())
	ctx := context.Background()

	require.NoError(t, l.HandleNotification(ctx, evs[1].ID.String()))
	assert.Equal(t, []uuid.UUID{evs[1].ID}, rec.published())

	// already sent: no second publish
	require.NoError(t, l.HandleNotification(ctx, evs[1].ID.String()))

	assert.Error(t, l.HandleNotification(ctx, "not-a-uuid"))

	// empty payload drains whatever is left
	require.NoError(t, l.HandleNotification(ctx, ""))
	assert.Equal(t, []uuid.UUID{evs[1].ID, evs[0].ID}, rec.published())
	assert.Empty(t, unsent(t, store))
}

func TestStart_WakesOnNotification(t *testing.T) {
	ctrl := gomock.NewController(t)
	clock := clockwork.NewFakeClock()
	store := ledger.NewMemoryLedger(clock)

	notes := make(chan string, 1)
	notifier := mock.NewMockNotifier(ctrl)
	notifier.EXPECT().Notifications().Return((<-chan string)(notes))
	notifier.EXPECT().Close().Return(nil)

	rec := &recorder{}
	pub := mock.NewMockPublisher(ctrl)
	pub.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(rec.record).Times(1)

	l := outbox.NewListener(store, pub, notifier, clock, testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Start(ctx) }()

	require.Eventually(t, l.Running, time.Second, 5*time.Millisecond)

	evs := insertEvents(t, store, clock, 1)
	notes <- evs[0].ID.String()

	require.Eventually(t, func() bool { return len(rec.published()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Empty(t, unsent(t, store))

	cancel()
	require.NoError(t, <-done)
	assert.False(t, l.Running())
}

func TestStart_FallbackPollPicksUpMissedEvents(t *testing.T) {
	ctrl := gomock.NewController(t)
	clock := clockwork.NewFakeClock()
	store := ledger.NewMemoryLedger(clock)

	rec := &recorder{}
	pub := mock.NewMockPublisher(ctrl)
	pub.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(rec.record).Times(2)

	cfg := testConfig()
	l := outbox.NewListener(store, pub, nil, clock, cfg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- l.Start(ctx) }()

	// the fallback ticker exists once the initial drain has finished
	waitCtx, waitCancel := context.WithTimeout(ctx, time.Second)
	defer waitCancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))

	insertEvents(t, store, clock, 2)
	clock.Advance(cfg.FallbackInterval)

	require.Eventually(t, func() bool { return len(rec.published()) == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestHealthChecker(t *testing.T) {
	ctrl := gomock.NewController(t)
	clock := clockwork.NewFakeClock()
	store := ledger.NewMemoryLedger(clock)
	pub := mock.NewMockPublisher(ctrl)

	// long enough that advancing the clock never triggers a drain
	cfg := testConfig()
	cfg.FallbackInterval = time.Hour
	l := outbox.NewListener(store, pub, nil, clock, cfg)
	connected := true
	h := outbox.NewHealthChecker(l, store, func() bool { return connected }, clock, time.Minute)

	t.Run("relay not running", func(t *testing.T) {
		status := h.Check(context.Background())
		assert.False(t, status.Healthy)
		assert.False(t, status.RelayActive)
		assert.Contains(t, status.Errors, "relay not active")
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Start(ctx) }()
	require.Eventually(t, l.Running, time.Second, 5*time.Millisecond)
	defer func() {
		cancel()
		<-done
	}()

	t.Run("healthy", func(t *testing.T) {
		status := h.Check(context.Background())
		assert.True(t, status.Healthy)
		assert.Zero(t, status.PendingEvents)

		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"healthy":true`)
	})

	t.Run("stale backlog", func(t *testing.T) {
		insertEvents(t, store, clock, 1)
		clock.Advance(2 * time.Minute)

		status := h.Check(context.Background())
		assert.False(t, status.Healthy)
		assert.Equal(t, 1, status.PendingEvents)
	})

	t.Run("bus disconnected", func(t *testing.T) {
		connected = false
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.Contains(t, rr.Body.String(), "event bus disconnected")
	})
}
