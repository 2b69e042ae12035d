package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/snakedraft/go/internal/draft/ledger"
)

// pendingAlert is the backlog size reported as an error
const pendingAlert = 1000

type HealthStatus struct {
	Healthy         bool       `json:"healthy"`
	RelayActive     bool       `json:"relay_active"`
	EventsPublished uint64     `json:"events_published"`
	LastPublishedAt *time.Time `json:"last_published_at,omitempty"`
	PendingEvents   int        `json:"pending_events"`
	BusConnected    bool       `json:"bus_connected"`
	Errors          []string   `json:"errors"`
}

// HealthChecker reports on the relay, its backlog and the bus connection.
type HealthChecker struct {
	listener     *Listener
	store        ledger.OutboxStore
	busConnected func() bool
	clock        clockwork.Clock
	threshold    time.Duration // how long a backlog may sit without a publish
}

// NewHealthChecker builds a checker. busConnected may be nil when no bus
// connection is tracked.
func NewHealthChecker(listener *Listener, store ledger.OutboxStore, busConnected func() bool, clock clockwork.Clock, threshold time.Duration) *HealthChecker {
	return &HealthChecker{
		listener:     listener,
		store:        store,
		busConnected: busConnected,
		clock:        clock,
		threshold:    threshold,
	}
}

func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Healthy:      true,
		BusConnected: true,
		Errors:       []string{},
	}

	published, last := h.listener.Stats()
	status.EventsPublished = published
	if !last.IsZero() {
		status.LastPublishedAt = &last
	}

	status.RelayActive = h.listener.Running()
	if !status.RelayActive {
		status.Healthy = false
		status.Errors = append(status.Errors, "relay not active")
	}

	if h.busConnected != nil && !h.busConnected() {
		status.BusConnected = false
		status.Healthy = false
		status.Errors = append(status.Errors, "event bus disconnected")
	}

	pending, err := h.store.FetchUnsentOutbox(ctx, pendingAlert+1)
	if err != nil {
		status.Healthy = false
		status.Errors = append(status.Errors, fmt.Sprintf("failed to count pending events: %v", err))
		return status
	}
	status.PendingEvents = len(pending)
	if status.PendingEvents > pendingAlert {
		status.Errors = append(status.Errors, fmt.Sprintf("high pending event count: over %d", pendingAlert))
	}

	// a backlog is only stale relative to the oldest unsent row
	if status.PendingEvents > 0 {
		oldest := pending[0].CreatedAt
		if age := h.clock.Since(oldest); age > h.threshold {
			status.Healthy = false
			status.Errors = append(status.Errors, fmt.Sprintf("oldest unsent event is %s old", age.Round(time.Second)))
		}
	}

	return status
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := h.Check(ctx)

	w.Header().Set("Content-Type", "application/json")
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(status)
}
