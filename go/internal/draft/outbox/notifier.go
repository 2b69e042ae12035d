package outbox

import (
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/mcdev12/snakedraft/go/internal/draft/ledger"
	"github.com/rs/zerolog/log"
)

// PQNotifier LISTENs on the Postgres outbox channel. The ledger's insert
// trigger sends the new row id as the notification payload.
type PQNotifier struct {
	listener *pq.Listener
	notes    chan string
	done     chan struct{}
}

func NewPQNotifier(dsn string) (*PQNotifier, error) {
	l := pq.NewListener(
		dsn,
		10*time.Second,
		time.Minute,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Error().Err(err).Msg("listener event")
			}
		},
	)
	if err := l.Listen(ledger.OutboxNotifyChannel); err != nil {
		_ = l.Close()
		return nil, fmt.Errorf("failed to listen to channel: %w", err)
	}

	log.Info().
		Str("channel", ledger.OutboxNotifyChannel).
		Msg("listening for notifications")

	n := &PQNotifier{
		listener: l,
		notes:    make(chan string, 64),
		done:     make(chan struct{}),
	}
	go n.forward()
	return n, nil
}

func (n *PQNotifier) forward() {
	defer close(n.notes)
	for {
		select {
		case <-n.done:
			return
		case note, ok := <-n.listener.Notify:
			if !ok {
				return
			}
			// nil means the connection was re-established and notifications
			// sent in between were lost
			id := ""
			if note != nil {
				id = note.Extra
			}
			select {
			case n.notes <- id:
			case <-n.done:
				return
			}
		}
	}
}

func (n *PQNotifier) Notifications() <-chan string {
	return n.notes
}

func (n *PQNotifier) Ping() error {
	return n.listener.Ping()
}

func (n *PQNotifier) Close() error {
	close(n.done)
	return n.listener.Close()
}
