package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/snakedraft/go/internal/dbconfig"
	"github.com/mcdev12/snakedraft/go/internal/draft/ledger"
	"github.com/mcdev12/snakedraft/go/internal/draft/lock"
	"github.com/mcdev12/snakedraft/go/internal/draft/pick"
)

// Rebuilds team rosters from filled pick slots for each league ID given.
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: reconcile_rosters <league-id>...")
		os.Exit(2)
	}

	ctx := context.Background()
	clock := clockwork.NewRealClock()

	store, err := ledger.Open(ctx, dbconfig.NewConfigFromEnv(), clock)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open ledger: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	app := pick.NewApp(store, store, lock.NewLocalLocker(), clock, ledger.DefaultRetryConfig())

	failed := 0
	for _, arg := range os.Args[1:] {
		leagueID, err := uuid.Parse(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid league id %q: %v\n", arg, err)
			failed++
			continue
		}
		n, err := app.ReconcileRosters(ctx, leagueID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "league %s: %v\n", leagueID, err)
			failed++
			continue
		}
		fmt.Printf("league %s: %d drafted players replayed\n", leagueID, n)
	}

	if failed > 0 {
		os.Exit(1)
	}
}
