package simulation

import (
	"github.com/sam-maryland/sleeper-playoff-odds/internal/league"
)

// PlayoffTeams is the size of the playoff field.
const PlayoffTeams = 4

// playoffs runs the 1v4 / 2v3 bracket on team indices.
func (tr *trial) playoffs(seeds []int, rng Source) (champion, runnerUp int) {
	probs := tr.e.probs
	semiA := seeds[3]
	if homeWins(probs.Get(seeds[0], seeds[3]), rng) {
		semiA = seeds[0]
	}
	semiB := seeds[2]
	if homeWins(probs.Get(seeds[1], seeds[2]), rng) {
		semiB = seeds[1]
	}
	if homeWins(probs.Get(semiA, semiB), rng) {
		return semiA, semiB
	}
	return semiB, semiA
}

// SimulatePlayoffs plays a single-elimination bracket between the top four
// seeds once: 1 vs 4 and 2 vs 3, then the winners meet in the final. Each
// game is one draw from the probability model.
func SimulatePlayoffs(seeds [PlayoffTeams]*league.Team, rng Source) (champion, runnerUp *league.Team) {
	game := func(favored, other *league.Team) *league.Team {
		if homeWins(WinProbability(favored.ProjectedFuturePPG, other.ProjectedFuturePPG), rng) {
			return favored
		}
		return other
	}

	winnerA := game(seeds[0], seeds[3])
	winnerB := game(seeds[1], seeds[2])
	if game(winnerA, winnerB) == winnerA {
		return winnerA, winnerB
	}
	return winnerB, winnerA
}
