package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/snakedraft/go/internal/dbconfig"
	"github.com/mcdev12/snakedraft/go/internal/draft/ledger"
)

type counts struct {
	inserted int
	skipped  int
	errs     int
}

func (c *counts) record(tag interface{ RowsAffected() int64 }, err error, what string) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "error inserting %s: %v\n", what, err)
		c.errs++
		return
	}
	if tag.RowsAffected() == 1 {
		c.inserted++
	} else {
		c.skipped++
	}
}

func main() {
	path := "go/internal/draft/ledger/testdata/fixture.yaml"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	// 1) Load the YAML fixture
	f, err := ledger.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		os.Exit(1)
	}
	f = f.Normalize(time.Now().UTC())

	ctx := context.Background()
	cfg := dbconfig.NewConfigFromEnv()
	cfg.Driver = dbconfig.DriverPostgres

	// 2) Make sure the schema exists
	store, err := ledger.Open(ctx, cfg, clockwork.NewRealClock())
	if err != nil {
		fmt.Fprintf(os.Stderr, "open ledger: %v\n", err)
		os.Exit(1)
	}
	_ = store.Close()

	// 3) Connect using shared dbconfig
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// 4) Queue every row in one batch; parents first
	batch := &pgx.Batch{}
	for _, l := range f.Leagues {
		settings, err := json.Marshal(l.RosterSettings)
		if err != nil {
			fmt.Fprintf(os.Stderr, "encode roster settings for %s: %v\n", l.ID, err)
			os.Exit(1)
		}
		batch.Queue(`
            INSERT INTO leagues (id, name, team_count, roster_settings, draft_status, created_at, updated_at)
            VALUES ($1,$2,$3,$4,$5,$6,$7)
            ON CONFLICT (id) DO NOTHING
        `, l.ID.String(), l.Name, l.TeamCount, string(settings), string(l.DraftStatus), l.CreatedAt, l.UpdatedAt)
	}
	for _, t := range f.Teams {
		batch.Queue(`
            INSERT INTO fantasy_teams (id, league_id, owner_id, name, created_at)
            VALUES ($1,$2,$3,$4,$5)
            ON CONFLICT (id) DO NOTHING
        `, t.ID.String(), t.LeagueID.String(), t.OwnerID.String(), t.Name, t.CreatedAt)
	}
	for _, p := range f.Players {
		batch.Queue(`
            INSERT INTO players (id, full_name, position, nfl_team)
            VALUES ($1,$2,$3,$4)
            ON CONFLICT (id) DO NOTHING
        `, p.ID.String(), p.FullName, p.Position, p.NFLTeam)
	}

	var leagues, teams, players counts
	br := pool.SendBatch(ctx, batch)
	for _, l := range f.Leagues {
		tag, err := br.Exec()
		leagues.record(tag, err, "league "+l.ID.String())
	}
	for _, t := range f.Teams {
		tag, err := br.Exec()
		teams.record(tag, err, "team "+t.ID.String())
	}
	for _, p := range f.Players {
		tag, err := br.Exec()
		players.record(tag, err, "player "+p.ID.String())
	}
	if err := br.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "close batch: %v\n", err)
		os.Exit(1)
	}

	// 5) Print summary
	for _, s := range []struct {
		name string
		c    counts
	}{{"Leagues", leagues}, {"Teams", teams}, {"Players", players}} {
		fmt.Printf("%s seed complete: %d inserted, %d skipped, %d errors\n",
			s.name, s.c.inserted, s.c.skipped, s.c.errs)
	}
}
