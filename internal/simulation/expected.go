package simulation

import (
	"fmt"
	"sort"

	"github.com/sam-maryland/sleeper-playoff-odds/internal/league"
)

// ExpectedRecord is a team's season-end record in expectation: current wins
// and losses plus the win probability of every remaining game.
type ExpectedRecord struct {
	Name   string  `json:"name"`
	Wins   float64 `json:"expected_wins"`
	Losses float64 `json:"expected_losses"`
}

// ExpectedRecords returns every team's expected final record, most expected
// wins first. Equal records are ordered by name.
func ExpectedRecords(snapshot *league.Snapshot) ([]ExpectedRecord, error) {
	if err := snapshot.Validate(); err != nil {
		return nil, fmt.Errorf("invalid snapshot: %w", err)
	}

	records := make(map[string]*ExpectedRecord, len(snapshot.Teams))
	for name, team := range snapshot.Teams {
		records[name] = &ExpectedRecord{
			Name:   name,
			Wins:   float64(team.Wins),
			Losses: float64(team.Losses),
		}
	}
	for _, game := range snapshot.Schedule {
		home, away := snapshot.Teams[game.Home], snapshot.Teams[game.Away]
		p := WinProbability(home.ProjectedFuturePPG, away.ProjectedFuturePPG)
		records[game.Home].Wins += p
		records[game.Home].Losses += 1 - p
		records[game.Away].Wins += 1 - p
		records[game.Away].Losses += p
	}

	out := make([]ExpectedRecord, 0, len(records))
	for _, record := range records {
		out = append(out, *record)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Wins != out[j].Wins {
			return out[i].Wins > out[j].Wins
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}
