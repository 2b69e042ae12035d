package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/snakedraft/go/internal/models"
	"github.com/mcdev12/snakedraft/go/internal/sqlutil"
	"github.com/rs/zerolog/log"
	"github.com/sqlc-dev/pqtype"
)

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLLedger implements Ledger on database/sql for SQLite and Postgres.
type SQLLedger struct {
	db      *sql.DB
	dialect Dialect
	clock   clockwork.Clock
}

var _ Ledger = (*SQLLedger)(nil)

// NewSQLLedger wraps an open database and makes sure the schema exists
func NewSQLLedger(ctx context.Context, db *sql.DB, dialect Dialect, clock clockwork.Clock) (*SQLLedger, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	l := &SQLLedger{db: db, dialect: dialect, clock: clock}
	if err := l.initSchema(ctx); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *SQLLedger) initSchema(ctx context.Context) error {
	for _, stmt := range l.dialect.schema() {
		if _, err := l.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize %s schema: %w", l.dialect, err)
		}
	}
	log.Debug().Str("dialect", string(l.dialect)).Msg("ledger schema ready")
	return nil
}

// DB exposes the underlying handle for health checks
func (l *SQLLedger) DB() *sql.DB {
	return l.db
}

func (l *SQLLedger) Close() error {
	return l.db.Close()
}

func (l *SQLLedger) bind(query string) string {
	return bindQuery(l.dialect, query)
}

func bindQuery(d Dialect, query string) string {
	if d == DialectPostgres {
		return sqlutil.Rebind(query)
	}
	return query
}

// RunInTx runs fn in a database transaction
func (l *SQLLedger) RunInTx(ctx context.Context, fn func(tx Tx) error) error {
	return sqlutil.Run(ctx, l.db,
		func(tx *sql.Tx) *sqlTx {
			return &sqlTx{q: tx, dialect: l.dialect, clock: l.clock}
		},
		func(tx *sqlTx) error {
			return fn(tx)
		},
	)
}

// Seed inserts the fixture's records, skipping any that already exist
func (l *SQLLedger) Seed(ctx context.Context, f Fixture) error {
	f = f.Normalize(l.clock.Now().UTC())

	return sqlutil.Run(ctx, l.db,
		func(tx *sql.Tx) *sql.Tx { return tx },
		func(tx *sql.Tx) error {
			for _, lg := range f.Leagues {
				settings, err := jsonColumn(lg.RosterSettings)
				if err != nil {
					return err
				}
				_, err = tx.ExecContext(ctx, l.bind(`
					INSERT INTO leagues (id, name, team_count, roster_settings, draft_status, created_at, updated_at)
					VALUES (?, ?, ?, ?, ?, ?, ?)
					ON CONFLICT (id) DO NOTHING`),
					lg.ID, lg.Name, lg.TeamCount, settings, string(lg.DraftStatus), lg.CreatedAt.UTC(), lg.UpdatedAt.UTC(),
				)
				if err != nil {
					return fmt.Errorf("failed to seed league %s: %w", lg.ID, err)
				}
			}

			for _, t := range f.Teams {
				_, err := tx.ExecContext(ctx, l.bind(`
					INSERT INTO fantasy_teams (id, league_id, owner_id, name, created_at)
					VALUES (?, ?, ?, ?, ?)
					ON CONFLICT (id) DO NOTHING`),
					t.ID, t.LeagueID, t.OwnerID, t.Name, t.CreatedAt.UTC(),
				)
				if err != nil {
					return fmt.Errorf("failed to seed team %s: %w", t.ID, err)
				}
			}

			for _, p := range f.Players {
				_, err := tx.ExecContext(ctx, l.bind(`
					INSERT INTO players (id, full_name, position, nfl_team)
					VALUES (?, ?, ?, ?)
					ON CONFLICT (id) DO NOTHING`),
					p.ID, p.FullName, p.Position, p.NFLTeam,
				)
				if err != nil {
					return fmt.Errorf("failed to seed player %s: %w", p.ID, err)
				}
			}
			return nil
		},
	)
}

// --- Reader ---

func (l *SQLLedger) GetLeague(ctx context.Context, leagueID uuid.UUID) (*models.League, error) {
	return getLeague(ctx, l.db, l.dialect, leagueID, false)
}

func (l *SQLLedger) GetTeamsByLeague(ctx context.Context, leagueID uuid.UUID) ([]models.FantasyTeam, error) {
	return getTeamsByLeague(ctx, l.db, l.dialect, leagueID)
}

func (l *SQLLedger) GetDraftConfiguration(ctx context.Context, leagueID uuid.UUID) (*models.DraftConfiguration, error) {
	return getDraftConfiguration(ctx, l.db, l.dialect, leagueID)
}

func (l *SQLLedger) GetProgress(ctx context.Context, leagueID uuid.UUID) (*models.DraftProgress, error) {
	return getProgress(ctx, l.db, l.dialect, leagueID, false)
}

func (l *SQLLedger) ListPickSlots(ctx context.Context, leagueID uuid.UUID) ([]models.PickSlot, error) {
	rows, err := l.db.QueryContext(ctx, l.bind(`
		SELECT `+pickSlotColumns+` FROM pick_slots
		WHERE league_id = ? ORDER BY pick_number`), leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pick slots: %w", err)
	}
	defer rows.Close()

	var slots []models.PickSlot
	for rows.Next() {
		s, err := scanPickSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pick slots: %w", err)
	}
	return slots, nil
}

func (l *SQLLedger) GetRoster(ctx context.Context, teamID uuid.UUID) ([]models.Roster, error) {
	rows, err := l.db.QueryContext(ctx, l.bind(`
		SELECT id, fantasy_team_id, player_id, position, acquired_at, acquisition_type
		FROM rosters WHERE fantasy_team_id = ? ORDER BY acquired_at, id`), teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to get roster: %w", err)
	}
	defer rows.Close()

	var roster []models.Roster
	for rows.Next() {
		var (
			r        models.Roster
			position string
			acqType  string
		)
		if err := rows.Scan(&r.ID, &r.FantasyTeamID, &r.PlayerID, &position, &r.AcquiredAt, &acqType); err != nil {
			return nil, fmt.Errorf("failed to scan roster row: %w", err)
		}
		r.Position = models.RosterPosition(position)
		r.AcquisitionType = models.AcquisitionType(acqType)
		r.AcquiredAt = r.AcquiredAt.UTC()
		roster = append(roster, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate roster: %w", err)
	}
	return roster, nil
}

func (l *SQLLedger) GetAllPlayers(ctx context.Context) ([]models.Player, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT id, full_name, position, nfl_team FROM players ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to get players: %w", err)
	}
	return scanPlayers(rows)
}

func (l *SQLLedger) GetPlayersByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Player, error) {
	if len(ids) == 0 {
		return []models.Player{}, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	rows, err := l.db.QueryContext(ctx, l.bind(`
		SELECT id, full_name, position, nfl_team FROM players
		WHERE id IN (`+strings.Join(placeholders, ", ")+`) ORDER BY id`), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get players by ids: %w", err)
	}
	return scanPlayers(rows)
}

// --- OutboxStore ---

func (l *SQLLedger) FetchUnsentOutbox(ctx context.Context, limit int) ([]models.OutboxEvent, error) {
	if limit <= 0 {
		limit = math.MaxInt32
	}
	rows, err := l.db.QueryContext(ctx, l.bind(`
		SELECT id, league_id, event_type, payload, created_at, sent_at
		FROM draft_outbox WHERE sent_at IS NULL
		ORDER BY created_at, id LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unsent outbox events: %w", err)
	}
	defer rows.Close()

	var events []models.OutboxEvent
	for rows.Next() {
		ev, err := scanOutbox(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate outbox events: %w", err)
	}
	return events, nil
}

func (l *SQLLedger) FetchOutboxByID(ctx context.Context, id uuid.UUID) (*models.OutboxEvent, error) {
	row := l.db.QueryRowContext(ctx, l.bind(`
		SELECT id, league_id, event_type, payload, created_at, sent_at
		FROM draft_outbox WHERE id = ? AND sent_at IS NULL`), id)

	ev, err := scanOutbox(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return ev, err
}

func (l *SQLLedger) MarkOutboxSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	res, err := l.db.ExecContext(ctx, l.bind(`UPDATE draft_outbox SET sent_at = ? WHERE id = ?`), at.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to mark outbox event as sent: %w", err)
	}
	return requireRow(res, ErrNotFound)
}

// --- Tx ---

type sqlTx struct {
	q       querier
	dialect Dialect
	clock   clockwork.Clock
}

func (tx *sqlTx) bind(query string) string {
	return bindQuery(tx.dialect, query)
}

func (tx *sqlTx) GetLeague(ctx context.Context, leagueID uuid.UUID) (*models.League, error) {
	return getLeague(ctx, tx.q, tx.dialect, leagueID, true)
}

func (tx *sqlTx) GetTeamsByLeague(ctx context.Context, leagueID uuid.UUID) ([]models.FantasyTeam, error) {
	return getTeamsByLeague(ctx, tx.q, tx.dialect, leagueID)
}

func (tx *sqlTx) GetDraftConfiguration(ctx context.Context, leagueID uuid.UUID) (*models.DraftConfiguration, error) {
	return getDraftConfiguration(ctx, tx.q, tx.dialect, leagueID)
}

func (tx *sqlTx) GetProgress(ctx context.Context, leagueID uuid.UUID) (*models.DraftProgress, error) {
	return getProgress(ctx, tx.q, tx.dialect, leagueID, true)
}

func (tx *sqlTx) GetPickSlot(ctx context.Context, leagueID uuid.UUID, pickNumber int) (*models.PickSlot, error) {
	row := tx.q.QueryRowContext(ctx, tx.bind(`
		SELECT `+pickSlotColumns+` FROM pick_slots
		WHERE league_id = ? AND pick_number = ?`), leagueID, pickNumber)

	s, err := scanPickSlot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return s, err
}

func (tx *sqlTx) IsPlayerDrafted(ctx context.Context, leagueID, playerID uuid.UUID) (bool, error) {
	var n int
	err := tx.q.QueryRowContext(ctx, tx.bind(`
		SELECT COUNT(*) FROM pick_slots WHERE league_id = ? AND player_id = ?`),
		leagueID, playerID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check drafted player: %w", err)
	}
	return n > 0, nil
}

func (tx *sqlTx) CreateDraft(ctx context.Context, cfg models.DraftConfiguration, progress models.DraftProgress, slots []models.PickSlot) error {
	order, err := jsonColumn(cfg.DraftOrder)
	if err != nil {
		return err
	}
	settings, err := jsonColumn(cfg.RosterSettings)
	if err != nil {
		return err
	}

	_, err = tx.q.ExecContext(ctx, tx.bind(`
		INSERT INTO draft_configurations (league_id, draft_order, roster_settings, total_picks, total_rounds, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		cfg.LeagueID, order, settings, cfg.TotalPicks, cfg.TotalRounds, cfg.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create draft configuration: %w", err)
	}

	_, err = tx.q.ExecContext(ctx, tx.bind(`
		INSERT INTO draft_progress (league_id, current_pick_number, current_round, current_team_id,
			total_picks, is_complete, started_at, completed_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		progress.LeagueID, progress.CurrentPickNumber, progress.CurrentRound,
		sqlutil.ToNullUUID(progress.CurrentTeamID), progress.TotalPicks, progress.IsComplete,
		progress.StartedAt.UTC(), sqlutil.ToNullTime(progress.CompletedAt), progress.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create draft progress: %w", err)
	}

	// one prepared statement for the whole batch of slots
	stmt, err := prepare(ctx, tx.q, tx.bind(`
		INSERT INTO pick_slots (league_id, pick_number, round, position_in_round, team_id)
		VALUES (?, ?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("failed to prepare pick slot insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range slots {
		if _, err := stmt.ExecContext(ctx, s.LeagueID, s.PickNumber, s.Round, s.PositionInRound, s.TeamID); err != nil {
			return fmt.Errorf("failed to create pick slot %d: %w", s.PickNumber, err)
		}
	}
	return nil
}

func (tx *sqlTx) AssignPlayer(ctx context.Context, leagueID uuid.UUID, pickNumber int, playerID uuid.UUID, at time.Time) error {
	res, err := tx.q.ExecContext(ctx, tx.bind(`
		UPDATE pick_slots SET player_id = ?, picked_at = ?
		WHERE league_id = ? AND pick_number = ? AND player_id IS NULL`),
		playerID, at.UTC(), leagueID, pickNumber,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("player %s already drafted: %w", playerID, ErrConflict)
		}
		return fmt.Errorf("failed to assign player: %w", err)
	}
	return requireRow(res, ErrConflict)
}

func (tx *sqlTx) AdvanceProgress(ctx context.Context, expectedPick int, next models.DraftProgress) error {
	res, err := tx.q.ExecContext(ctx, tx.bind(`
		UPDATE draft_progress
		SET current_pick_number = ?, current_round = ?, current_team_id = ?,
			is_complete = ?, completed_at = ?, updated_at = ?
		WHERE league_id = ? AND current_pick_number = ? AND NOT is_complete`),
		next.CurrentPickNumber, next.CurrentRound, sqlutil.ToNullUUID(next.CurrentTeamID),
		next.IsComplete, sqlutil.ToNullTime(next.CompletedAt), next.UpdatedAt.UTC(),
		next.LeagueID, expectedPick,
	)
	if err != nil {
		return fmt.Errorf("failed to advance draft progress: %w", err)
	}
	return requireRow(res, ErrConflict)
}

func (tx *sqlTx) SetDraftStatus(ctx context.Context, leagueID uuid.UUID, status models.DraftStatus) error {
	res, err := tx.q.ExecContext(ctx, tx.bind(`
		UPDATE leagues SET draft_status = ?, updated_at = ? WHERE id = ?`),
		string(status), tx.clock.Now().UTC(), leagueID,
	)
	if err != nil {
		return fmt.Errorf("failed to set draft status: %w", err)
	}
	return requireRow(res, ErrNotFound)
}

func (tx *sqlTx) AddPlayerToRoster(ctx context.Context, entry models.Roster) error {
	_, err := tx.q.ExecContext(ctx, tx.bind(`
		INSERT INTO rosters (id, fantasy_team_id, player_id, position, acquired_at, acquisition_type)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (fantasy_team_id, player_id) DO NOTHING`),
		entry.ID, entry.FantasyTeamID, entry.PlayerID, string(entry.Position),
		entry.AcquiredAt.UTC(), string(entry.AcquisitionType),
	)
	if err != nil {
		return fmt.Errorf("failed to add player to roster: %w", err)
	}
	return nil
}

func (tx *sqlTx) InsertOutboxEvent(ctx context.Context, event models.OutboxEvent) error {
	_, err := tx.q.ExecContext(ctx, tx.bind(`
		INSERT INTO draft_outbox (id, league_id, event_type, payload, created_at)
		VALUES (?, ?, ?, ?, ?)`),
		event.ID, event.LeagueID, event.EventType,
		pqtype.NullRawMessage{RawMessage: event.Payload, Valid: true}, event.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert %s outbox event: %w", event.EventType, err)
	}
	return nil
}

// --- shared queries ---

const pickSlotColumns = `league_id, pick_number, round, position_in_round, team_id, player_id, picked_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func getLeague(ctx context.Context, q querier, d Dialect, leagueID uuid.UUID, lock bool) (*models.League, error) {
	query := `SELECT id, name, team_count, roster_settings, draft_status, created_at, updated_at
		FROM leagues WHERE id = ?`
	if lock {
		query += d.forUpdate()
	}

	var (
		lg       models.League
		settings pqtype.NullRawMessage
		status   string
	)
	err := q.QueryRowContext(ctx, bindQuery(d, query), leagueID).
		Scan(&lg.ID, &lg.Name, &lg.TeamCount, &settings, &status, &lg.CreatedAt, &lg.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get league: %w", err)
	}

	if err := decodeJSONColumn(settings, &lg.RosterSettings); err != nil {
		return nil, fmt.Errorf("failed to decode roster settings: %w", err)
	}
	lg.DraftStatus = models.DraftStatus(status)
	lg.CreatedAt = lg.CreatedAt.UTC()
	lg.UpdatedAt = lg.UpdatedAt.UTC()
	return &lg, nil
}

func getTeamsByLeague(ctx context.Context, q querier, d Dialect, leagueID uuid.UUID) ([]models.FantasyTeam, error) {
	rows, err := q.QueryContext(ctx, bindQuery(d, `
		SELECT id, league_id, owner_id, name, created_at FROM fantasy_teams
		WHERE league_id = ? ORDER BY created_at, id`), leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to get teams by league: %w", err)
	}
	defer rows.Close()

	var teams []models.FantasyTeam
	for rows.Next() {
		var t models.FantasyTeam
		if err := rows.Scan(&t.ID, &t.LeagueID, &t.OwnerID, &t.Name, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		t.CreatedAt = t.CreatedAt.UTC()
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate teams: %w", err)
	}
	return teams, nil
}

func getDraftConfiguration(ctx context.Context, q querier, d Dialect, leagueID uuid.UUID) (*models.DraftConfiguration, error) {
	var (
		cfg      models.DraftConfiguration
		order    pqtype.NullRawMessage
		settings pqtype.NullRawMessage
	)
	err := q.QueryRowContext(ctx, bindQuery(d, `
		SELECT league_id, draft_order, roster_settings, total_picks, total_rounds, created_at
		FROM draft_configurations WHERE league_id = ?`), leagueID,
	).Scan(&cfg.LeagueID, &order, &settings, &cfg.TotalPicks, &cfg.TotalRounds, &cfg.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draft configuration: %w", err)
	}

	if err := decodeJSONColumn(order, &cfg.DraftOrder); err != nil {
		return nil, fmt.Errorf("failed to decode draft order: %w", err)
	}
	if err := decodeJSONColumn(settings, &cfg.RosterSettings); err != nil {
		return nil, fmt.Errorf("failed to decode roster settings: %w", err)
	}
	cfg.CreatedAt = cfg.CreatedAt.UTC()
	return &cfg, nil
}

func getProgress(ctx context.Context, q querier, d Dialect, leagueID uuid.UUID, lock bool) (*models.DraftProgress, error) {
	query := `SELECT league_id, current_pick_number, current_round, current_team_id, total_picks,
			is_complete, started_at, completed_at, updated_at
		FROM draft_progress WHERE league_id = ?`
	if lock {
		query += d.forUpdate()
	}

	var (
		p           models.DraftProgress
		teamID      uuid.NullUUID
		completedAt sql.NullTime
	)
	err := q.QueryRowContext(ctx, bindQuery(d, query), leagueID).Scan(
		&p.LeagueID, &p.CurrentPickNumber, &p.CurrentRound, &teamID, &p.TotalPicks,
		&p.IsComplete, &p.StartedAt, &completedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draft progress: %w", err)
	}

	p.CurrentTeamID = sqlutil.FromNullUUID(teamID)
	p.CompletedAt = sqlutil.FromNullTime(completedAt)
	p.StartedAt = p.StartedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

func scanPickSlot(row rowScanner) (*models.PickSlot, error) {
	var (
		s        models.PickSlot
		playerID uuid.NullUUID
		pickedAt sql.NullTime
	)
	if err := row.Scan(&s.LeagueID, &s.PickNumber, &s.Round, &s.PositionInRound, &s.TeamID, &playerID, &pickedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan pick slot: %w", err)
	}
	s.PlayerID = sqlutil.FromNullUUID(playerID)
	s.PickedAt = sqlutil.FromNullTime(pickedAt)
	return &s, nil
}

func scanPlayers(rows *sql.Rows) ([]models.Player, error) {
	defer rows.Close()

	players := []models.Player{}
	for rows.Next() {
		var p models.Player
		if err := rows.Scan(&p.ID, &p.FullName, &p.Position, &p.NFLTeam); err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate players: %w", err)
	}
	return players, nil
}

func scanOutbox(row rowScanner) (*models.OutboxEvent, error) {
	var (
		ev      models.OutboxEvent
		payload pqtype.NullRawMessage
		sentAt  sql.NullTime
	)
	if err := row.Scan(&ev.ID, &ev.LeagueID, &ev.EventType, &payload, &ev.CreatedAt, &sentAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan outbox event: %w", err)
	}
	if payload.Valid {
		ev.Payload = append(json.RawMessage(nil), payload.RawMessage...)
	}
	ev.CreatedAt = ev.CreatedAt.UTC()
	ev.SentAt = sqlutil.FromNullTime(sentAt)
	return &ev, nil
}

func prepare(ctx context.Context, q querier, query string) (*sql.Stmt, error) {
	switch p := q.(type) {
	case *sql.Tx:
		return p.PrepareContext(ctx, query)
	case *sql.DB:
		return p.PrepareContext(ctx, query)
	default:
		return nil, fmt.Errorf("querier %T cannot prepare statements", q)
	}
}

func requireRow(res sql.Result, none error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return none
	}
	return nil
}

func jsonColumn(v any) (pqtype.NullRawMessage, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return pqtype.NullRawMessage{}, fmt.Errorf("failed to encode json column: %w", err)
	}
	return pqtype.NullRawMessage{RawMessage: b, Valid: true}, nil
}

func decodeJSONColumn(col pqtype.NullRawMessage, dst any) error {
	if !col.Valid || len(col.RawMessage) == 0 {
		return nil
	}
	return json.Unmarshal(col.RawMessage, dst)
}
