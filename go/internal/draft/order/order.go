// Package order maps overall pick numbers to teams under snake draft rules.
package order

import (
	"github.com/google/uuid"
	"github.com/mcdev12/snakedraft/go/internal/draft/drafterr"
)

// Position is where a pick falls in the draft
type Position struct {
	TeamID          uuid.UUID `json:"team_id"`
	Round           int       `json:"round"`
	PositionInRound int       `json:"position_in_round"`
}

// Resolve returns the team, round and in-round position for pickNumber.
// Odd rounds use teams as given, even rounds use it reversed.
func Resolve(teams []uuid.UUID, pickNumber int) (Position, error) {
	numTeams := len(teams)
	if numTeams == 0 {
		return Position{}, drafterr.InvalidArgumentf("draft order is empty")
	}
	if pickNumber <= 0 {
		return Position{}, drafterr.InvalidArgumentf("pick number must be positive, got %d", pickNumber)
	}

	round := (pickNumber + numTeams - 1) / numTeams
	pos := ((pickNumber - 1) % numTeams) + 1

	idx := pos - 1
	if round%2 == 0 {
		idx = numTeams - pos
	}

	return Position{
		TeamID:          teams[idx],
		Round:           round,
		PositionInRound: pos,
	}, nil
}

// TotalPicksFor returns numTeams times the sum of all roster slot counts.
func TotalPicksFor(numTeams int, rosterCounts map[string]int) (int, error) {
	if numTeams < 1 {
		return 0, drafterr.InvalidArgumentf("team count must be at least 1, got %d", numTeams)
	}

	slots := 0
	for slot, count := range rosterCounts {
		if count < 0 {
			return 0, drafterr.InvalidArgumentf("roster slot %s has negative count %d", slot, count)
		}
		slots += count
	}
	return numTeams * slots, nil
}

// TotalRounds returns ceil(totalPicks / numTeams).
func TotalRounds(totalPicks, numTeams int) int {
	if numTeams < 1 || totalPicks <= 0 {
		return 0
	}
	return (totalPicks + numTeams - 1) / numTeams
}

// Schedule resolves every pick from 1 to totalPicks. Index i holds pick i+1.
func Schedule(teams []uuid.UUID, totalPicks int) ([]Position, error) {
	if totalPicks < 0 {
		return nil, drafterr.InvalidArgumentf("total picks must not be negative, got %d", totalPicks)
	}

	positions := make([]Position, 0, totalPicks)
	for pick := 1; pick <= totalPicks; pick++ {
		p, err := Resolve(teams, pick)
		if err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	return positions, nil
}
