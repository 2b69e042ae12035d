package draft

import (
	"math/rand/v2"
	"sort"

	"github.com/google/uuid"
	"github.com/mcdev12/snakedraft/go/internal/models"
)

// OrderPolicy decides the first-round draft order from the registered
// teams. The result is persisted once at start and never recomputed.
type OrderPolicy interface {
	Name() string
	Order(teams []models.FantasyTeam) []uuid.UUID
}

// ByRegistration orders teams by registration time, ties broken by id
type ByRegistration struct{}

func (ByRegistration) Name() string { return "registration" }

func (ByRegistration) Order(teams []models.FantasyTeam) []uuid.UUID {
	sorted := append([]models.FantasyTeam(nil), teams...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
		return sorted[i].ID.String() < sorted[j].ID.String()
	})

	order := make([]uuid.UUID, len(sorted))
	for i, t := range sorted {
		order[i] = t.ID
	}
	return order
}

// Randomized draws a uniformly random order. Shuffle defaults to
// math/rand/v2's global source.
type Randomized struct {
	Shuffle func(n int, swap func(i, j int))
}

func (Randomized) Name() string { return "random" }

func (r Randomized) Order(teams []models.FantasyTeam) []uuid.UUID {
	// start from a stable order so a seeded shuffle is reproducible
	order := ByRegistration{}.Order(teams)

	shuffle := r.Shuffle
	if shuffle == nil {
		shuffle = rand.Shuffle
	}
	shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	return order
}

// PolicyByName returns the order policy for a config value
func PolicyByName(name string) OrderPolicy {
	if name == (Randomized{}).Name() {
		return Randomized{}
	}
	return ByRegistration{}
}
