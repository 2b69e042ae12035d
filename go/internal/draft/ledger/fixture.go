package ledger

import (
	"fmt"
	"os"
	"time"

	"github.com/mcdev12/snakedraft/go/internal/models"
	"gopkg.in/yaml.v3"
)

// Fixture is a set of leagues, teams and players used to seed a ledger.
type Fixture struct {
	Leagues []models.League      `yaml:"leagues"`
	Teams   []models.FantasyTeam `yaml:"teams"`
	Players []models.Player      `yaml:"players"`
}

// LoadFixture reads a YAML fixture file
func LoadFixture(path string) (Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("failed to read fixture file: %w", err)
	}

	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Fixture{}, fmt.Errorf("failed to parse fixture: %w", err)
	}
	return f, nil
}

// Normalize fills defaults the fixture author may have left out
func (f Fixture) Normalize(now time.Time) Fixture {
	out := Fixture{
		Leagues: make([]models.League, len(f.Leagues)),
		Teams:   make([]models.FantasyTeam, len(f.Teams)),
		Players: append([]models.Player(nil), f.Players...),
	}

	for i, l := range f.Leagues {
		if l.DraftStatus == "" {
			l.DraftStatus = models.DraftStatusScheduled
		}
		if l.CreatedAt.IsZero() {
			l.CreatedAt = now
		}
		if l.UpdatedAt.IsZero() {
			l.UpdatedAt = l.CreatedAt
		}
		if l.RosterSettings == nil {
			l.RosterSettings = models.RosterSettings{}
		}
		out.Leagues[i] = l
	}

	for i, t := range f.Teams {
		if t.CreatedAt.IsZero() {
			// keep fixture order as registration order
			t.CreatedAt = now.Add(time.Duration(i) * time.Millisecond)
		}
		out.Teams[i] = t
	}
	return out
}
