package worker

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/snakedraft/go/internal/draft/events"
	"github.com/mcdev12/snakedraft/go/internal/draft/ledger"
	"github.com/mcdev12/snakedraft/go/internal/draft/outbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelay_EmbeddedBus(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := clockwork.NewRealClock()
	store := ledger.NewMemoryLedger(clock)

	leagueID := uuid.New()
	require.NoError(t, store.RunInTx(ctx, func(tx ledger.Tx) error {
		ev, err := events.NewOutboxEvent(leagueID, events.EventTypeDraftStarted, events.DraftStartedPayload{
			LeagueID: leagueID.String(),
		}, clock.Now())
		if err != nil {
			return err
		}
		return tx.InsertOutboxEvent(ctx, ev)
	}))

	relay, err := NewRelay(ctx, store, RelayConfig{
		JetStream:       DefaultJetStreamConfig(),
		Listener:        outbox.DefaultListenerConfig(),
		Embedded:        true,
		StoreDir:        t.TempDir(),
		HealthThreshold: time.Minute,
	}, clock)
	require.NoError(t, err)
	defer relay.Close()

	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	require.Eventually(t, func() bool {
		published, _ := relay.Listener.Stats()
		return published == 1
	}, 5*time.Second, 20*time.Millisecond)

	status := relay.Health.Check(ctx)
	assert.True(t, status.Healthy, "%v", status.Errors)
	assert.True(t, status.BusConnected)
	assert.Zero(t, status.PendingEvents)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("relay did not stop")
	}
}
