package analytics

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// ReplacingMergeTree collapses redelivered events that share a sort key
var schema = []string{
	`CREATE TABLE IF NOT EXISTS draft_picks (
		event_id          UUID,
		league_id         UUID,
		team_id           UUID,
		player_id         UUID,
		player_name       String,
		player_position   LowCardinality(String),
		round             UInt16,
		position_in_round UInt16,
		pick_number       UInt32,
		made_at           DateTime64(3, 'UTC')
	) ENGINE = ReplacingMergeTree
	ORDER BY (league_id, pick_number)`,
	`CREATE TABLE IF NOT EXISTS draft_completions (
		event_id         UUID,
		league_id        UUID,
		completed_at     DateTime64(3, 'UTC'),
		duration_seconds Float64,
		total_picks      UInt32
	) ENGINE = ReplacingMergeTree
	ORDER BY league_id`,
}

// ClickHouseWriter writes analytics rows over the native protocol
type ClickHouseWriter struct {
	conn driver.Conn
}

// NewClickHouseWriter connects, pings and creates the analytics tables
func NewClickHouseWriter(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseWriter, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	w := &ClickHouseWriter{conn: conn}
	if err := w.ensureSchema(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return w, nil
}

func (w *ClickHouseWriter) ensureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if err := w.conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create analytics table: %w", err)
		}
	}
	return nil
}

func (w *ClickHouseWriter) WritePick(ctx context.Context, row PickRow) error {
	err := w.conn.Exec(ctx, `INSERT INTO draft_picks
		(event_id, league_id, team_id, player_id, player_name, player_position,
		 round, position_in_round, pick_number, made_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.EventID, row.LeagueID, row.TeamID, row.PlayerID, row.PlayerName, row.PlayerPosition,
		uint16(row.Round), uint16(row.PositionInRound), uint32(row.PickNumber), row.MadeAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert pick: %w", err)
	}
	return nil
}

func (w *ClickHouseWriter) WriteDraftCompleted(ctx context.Context, row DraftRow) error {
	err := w.conn.Exec(ctx, `INSERT INTO draft_completions
		(event_id, league_id, completed_at, duration_seconds, total_picks)
		VALUES (?, ?, ?, ?, ?)`,
		row.EventID, row.LeagueID, row.CompletedAt, row.DurationSeconds, uint32(row.TotalPicks),
	)
	if err != nil {
		return fmt.Errorf("failed to insert draft completion: %w", err)
	}
	return nil
}

// PositionCounts returns how many players of each position a league drafted
func (w *ClickHouseWriter) PositionCounts(ctx context.Context, leagueID string) (map[string]uint64, error) {
	rows, err := w.conn.Query(ctx, `
		SELECT player_position, count() AS picks
		FROM draft_picks FINAL
		WHERE league_id = toUUID(?)
		GROUP BY player_position`, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to query position counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]uint64)
	for rows.Next() {
		var (
			pos string
			n   uint64
		)
		if err := rows.Scan(&pos, &n); err != nil {
			return nil, err
		}
		counts[pos] = n
	}
	return counts, rows.Err()
}

func (w *ClickHouseWriter) Close() error {
	if w.conn != nil {
		return w.conn.Close()
	}
	return nil
}
