package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/mcdev12/snakedraft/go/internal/dbconfig"
	"github.com/rs/zerolog/log"
)

// Open returns the ledger backend selected by cfg.Driver
func Open(ctx context.Context, cfg dbconfig.Config, clock clockwork.Clock) (Ledger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Driver {
	case dbconfig.DriverMemory:
		log.Info().Msg("using in-memory ledger")
		return NewMemoryLedger(clock), nil

	case dbconfig.DriverSQLite:
		db, err := sql.Open("sqlite3", cfg.DSN())
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		// one writer at a time; readers share the WAL
		db.SetMaxOpenConns(4)
		return openSQL(ctx, db, DialectSQLite, clock)

	case dbconfig.DriverPostgres:
		db, err := sql.Open("postgres", cfg.DSN())
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres database: %w", err)
		}
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
		return openSQL(ctx, db, DialectPostgres, clock)
	}

	return nil, fmt.Errorf("unsupported driver %q", cfg.Driver)
}

func openSQL(ctx context.Context, db *sql.DB, dialect Dialect, clock clockwork.Clock) (*SQLLedger, error) {
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", dialect, err)
	}

	l, err := NewSQLLedger(ctx, db, dialect, clock)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	log.Info().Str("dialect", string(dialect)).Msg("connected to ledger database")
	return l, nil
}
