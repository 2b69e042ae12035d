package outbox

import (
	"context"
	"time"

	"github.com/mcdev12/snakedraft/go/internal/models"
)

//go:generate mockgen -destination=mock/publisher.go -package=mock github.com/mcdev12/snakedraft/go/internal/draft/outbox Publisher,Notifier

// Publisher delivers one outbox event to the event bus. Publishing the same
// event twice must be safe; the relay is at-least-once.
type Publisher interface {
	Publish(ctx context.Context, event models.OutboxEvent) error
}

// Notifier wakes the relay when a new outbox row is inserted. Each value is
// an outbox event id; an empty string means notifications may have been
// missed and the relay should drain.
type Notifier interface {
	Notifications() <-chan string
	Ping() error
	Close() error
}

type ListenerConfig struct {
	FallbackInterval time.Duration `yaml:"fallback_interval"` // how often to poll for missed events
	PingInterval     time.Duration `yaml:"ping_interval"`
	MaxRetries       int           `yaml:"max_retries"`
	RetryDelay       time.Duration `yaml:"retry_delay"`
	BatchSize        int           `yaml:"batch_size"` // max events per drain
}

func DefaultListenerConfig() ListenerConfig {
	return ListenerConfig{
		FallbackInterval: 30 * time.Second,
		PingInterval:     90 * time.Second,
		MaxRetries:       5,
		RetryDelay:       200 * time.Millisecond,
		BatchSize:        100,
	}
}
