package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
)

//go:generate mockgen -destination=mock/writer.go -package=mock github.com/mcdev12/snakedraft/go/internal/draft/analytics Writer

// Writer persists analytics rows. Writes must tolerate redelivery of the
// same event.
type Writer interface {
	WritePick(ctx context.Context, row PickRow) error
	WriteDraftCompleted(ctx context.Context, row DraftRow) error
}

// PickRow is one committed pick
type PickRow struct {
	EventID         uuid.UUID
	LeagueID        uuid.UUID
	TeamID          uuid.UUID
	PlayerID        uuid.UUID
	PlayerName      string
	PlayerPosition  string
	Round           int
	PositionInRound int
	PickNumber      int
	MadeAt          time.Time
}

// DraftRow is one completed draft
type DraftRow struct {
	EventID         uuid.UUID
	LeagueID        uuid.UUID
	CompletedAt     time.Time
	DurationSeconds float64
	TotalPicks      int
}

// ConsumerConfig holds configuration for the JetStream consumer
type ConsumerConfig struct {
	StreamName    string        `yaml:"stream_name"`
	ConsumerName  string        `yaml:"consumer_name"`
	SubjectFilter string        `yaml:"subject_filter"` // e.g. "draft.events.>"
	MaxDeliver    int           `yaml:"max_deliver"`
	AckWait       time.Duration `yaml:"ack_wait"`
	MaxAckPending int           `yaml:"max_ack_pending"`
}

func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		StreamName:    "DRAFT_EVENTS",
		ConsumerName:  "draft-analytics",
		SubjectFilter: "draft.events.>",
		MaxDeliver:    5,
		AckWait:       30 * time.Second,
		MaxAckPending: 100,
	}
}

type ClickHouseConfig struct {
	Addr     string `yaml:"addr"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

func DefaultClickHouseConfig() ClickHouseConfig {
	return ClickHouseConfig{
		Addr:     "localhost:9000",
		Database: "default",
		Username: "default",
	}
}

