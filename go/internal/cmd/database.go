package main

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/snakedraft/go/internal/dbconfig"
	"github.com/mcdev12/snakedraft/go/internal/draft/ledger"
	"github.com/rs/zerolog/log"
)

// setupLedger opens the configured store. A fixture named by SEED_FIXTURE is
// loaded on start, which is how the memory ledger gets its leagues.
func setupLedger(ctx context.Context, dbCfg dbconfig.Config, clock clockwork.Clock) (ledger.Ledger, error) {
	store, err := ledger.Open(ctx, dbCfg, clock)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	if path := getEnv("SEED_FIXTURE", ""); path != "" {
		f, err := ledger.LoadFixture(path)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		if err := store.Seed(ctx, f); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to seed ledger: %w", err)
		}
		log.Info().
			Str("fixture", path).
			Int("leagues", len(f.Leagues)).
			Int("teams", len(f.Teams)).
			Int("players", len(f.Players)).
			Msg("ledger seeded")
	}

	log.Info().Str("driver", string(dbCfg.Driver)).Msg("ledger ready")
	return store, nil
}
