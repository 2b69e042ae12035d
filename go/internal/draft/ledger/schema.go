package ledger

// Dialect selects SQL differences between the supported databases
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// forUpdate is appended to reads that must lock the row for the rest of the
// transaction. SQLite takes the database write lock at BEGIN IMMEDIATE instead.
func (d Dialect) forUpdate() string {
	if d == DialectPostgres {
		return " FOR UPDATE"
	}
	return ""
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS leagues (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		team_count INTEGER NOT NULL CHECK (team_count > 0),
		roster_settings JSONB NOT NULL,
		draft_status TEXT NOT NULL DEFAULT 'SCHEDULED',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS fantasy_teams (
		id UUID PRIMARY KEY,
		league_id UUID NOT NULL REFERENCES leagues(id),
		owner_id UUID NOT NULL,
		name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_fantasy_teams_league ON fantasy_teams(league_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS players (
		id UUID PRIMARY KEY,
		full_name TEXT NOT NULL,
		position TEXT NOT NULL,
		nfl_team TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS rosters (
		id UUID PRIMARY KEY,
		fantasy_team_id UUID NOT NULL REFERENCES fantasy_teams(id),
		player_id UUID NOT NULL REFERENCES players(id),
		position TEXT NOT NULL,
		acquired_at TIMESTAMPTZ NOT NULL,
		acquisition_type TEXT NOT NULL,
		UNIQUE (fantasy_team_id, player_id)
	)`,
	`CREATE TABLE IF NOT EXISTS draft_configurations (
		league_id UUID PRIMARY KEY REFERENCES leagues(id),
		draft_order JSONB NOT NULL,
		roster_settings JSONB NOT NULL,
		total_picks INTEGER NOT NULL,
		total_rounds INTEGER NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS draft_progress (
		league_id UUID PRIMARY KEY REFERENCES draft_configurations(league_id),
		current_pick_number INTEGER NOT NULL,
		current_round INTEGER NOT NULL,
		current_team_id UUID,
		total_picks INTEGER NOT NULL,
		is_complete BOOLEAN NOT NULL DEFAULT FALSE,
		started_at TIMESTAMPTZ NOT NULL,
		completed_at TIMESTAMPTZ,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS pick_slots (
		league_id UUID NOT NULL REFERENCES draft_configurations(league_id),
		pick_number INTEGER NOT NULL,
		round INTEGER NOT NULL,
		position_in_round INTEGER NOT NULL,
		team_id UUID NOT NULL REFERENCES fantasy_teams(id),
		player_id UUID REFERENCES players(id),
		picked_at TIMESTAMPTZ,
		PRIMARY KEY (league_id, pick_number),
		UNIQUE (league_id, player_id)
	)`,
	`CREATE TABLE IF NOT EXISTS draft_outbox (
		id UUID PRIMARY KEY,
		league_id UUID NOT NULL,
		event_type TEXT NOT NULL,
		payload JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		sent_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_draft_outbox_unsent ON draft_outbox(created_at) WHERE sent_at IS NULL`,
	`CREATE OR REPLACE FUNCTION notify_draft_outbox() RETURNS trigger AS $$
	BEGIN
		PERFORM pg_notify('` + OutboxNotifyChannel + `', NEW.id::text);
		RETURN NEW;
	END;
	$$ LANGUAGE plpgsql`,
	`DROP TRIGGER IF EXISTS draft_outbox_notify ON draft_outbox`,
	`CREATE TRIGGER draft_outbox_notify AFTER INSERT ON draft_outbox
		FOR EACH ROW EXECUTE FUNCTION notify_draft_outbox()`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS leagues (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		team_count INTEGER NOT NULL CHECK (team_count > 0),
		roster_settings BLOB NOT NULL,
		draft_status TEXT NOT NULL DEFAULT 'SCHEDULED',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS fantasy_teams (
		id TEXT PRIMARY KEY,
		league_id TEXT NOT NULL REFERENCES leagues(id),
		owner_id TEXT NOT NULL,
		name TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_fantasy_teams_league ON fantasy_teams(league_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS players (
		id TEXT PRIMARY KEY,
		full_name TEXT NOT NULL,
		position TEXT NOT NULL,
		nfl_team TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS rosters (
		id TEXT PRIMARY KEY,
		fantasy_team_id TEXT NOT NULL REFERENCES fantasy_teams(id),
		player_id TEXT NOT NULL REFERENCES players(id),
		position TEXT NOT NULL,
		acquired_at TIMESTAMP NOT NULL,
		acquisition_type TEXT NOT NULL,
		UNIQUE (fantasy_team_id, player_id)
	)`,
	`CREATE TABLE IF NOT EXISTS draft_configurations (
		league_id TEXT PRIMARY KEY REFERENCES leagues(id),
		draft_order BLOB NOT NULL,
		roster_settings BLOB NOT NULL,
		total_picks INTEGER NOT NULL,
		total_rounds INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS draft_progress (
		league_id TEXT PRIMARY KEY REFERENCES draft_configurations(league_id),
		current_pick_number INTEGER NOT NULL,
		current_round INTEGER NOT NULL,
		current_team_id TEXT,
		total_picks INTEGER NOT NULL,
		is_complete BOOLEAN NOT NULL DEFAULT 0,
		started_at TIMESTAMP NOT NULL,
		completed_at TIMESTAMP,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS pick_slots (
		league_id TEXT NOT NULL REFERENCES draft_configurations(league_id),
		pick_number INTEGER NOT NULL,
		round INTEGER NOT NULL,
		position_in_round INTEGER NOT NULL,
		team_id TEXT NOT NULL REFERENCES fantasy_teams(id),
		player_id TEXT REFERENCES players(id),
		picked_at TIMESTAMP,
		PRIMARY KEY (league_id, pick_number),
		UNIQUE (league_id, player_id)
	)`,
	`CREATE TABLE IF NOT EXISTS draft_outbox (
		id TEXT PRIMARY KEY,
		league_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		payload BLOB NOT NULL,
		created_at TIMESTAMP NOT NULL,
		sent_at TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_draft_outbox_unsent ON draft_outbox(created_at) WHERE sent_at IS NULL`,
}

func (d Dialect) schema() []string {
	if d == DialectPostgres {
		return postgresSchema
	}
	return sqliteSchema
}
