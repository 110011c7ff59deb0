package simulation

import (
	"github.com/sam-maryland/sleeper-playoff-odds/internal/league"
)

// noDivision marks a team without a division label.
const noDivision = -1

// table is the read-only, index-addressed view of a league shared by every
// trial in a batch. Team i is the i-th team of the input order.
type table struct {
	n        int
	names    []string
	index    map[string]int
	division []int
	mates    [][]int
	points   []float64
	ppg      []float64
}

func newTable(teams []*league.Team) *table {
	n := len(teams)
	t := &table{
		n:        n,
		names:    make([]string, n),
		index:    make(map[string]int, n),
		division: make([]int, n),
		mates:    make([][]int, n),
		points:   make([]float64, n),
		ppg:      make([]float64, n),
	}

	divisionIDs := make(map[string]int)
	for i, team := range teams {
		t.names[i] = team.Name
		t.index[team.Name] = i
		t.points[i] = team.TotalPoints
		t.ppg[i] = team.ProjectedFuturePPG

		if team.Division == "" {
			t.division[i] = noDivision
			continue
		}
		id, ok := divisionIDs[team.Division]
		if !ok {
			id = len(divisionIDs)
			divisionIDs[team.Division] = id
		}
		t.division[i] = id
	}

	for i := 0; i < n; i++ {
		if t.division[i] == noDivision {
			continue
		}
		for j := 0; j < n; j++ {
			if j != i && t.division[j] == t.division[i] {
				t.mates[i] = append(t.mates[i], j)
			}
		}
	}
	return t
}

// standings holds the mutable per-trial season state: win and loss counters
// plus the head-to-head matrix, where h2h[i*n+j] is team i's wins over j.
type standings struct {
	wins   []int
	losses []int
	h2h    []int
}

func newStandings(n int) standings {
	return standings{
		wins:   make([]int, n),
		losses: make([]int, n),
		h2h:    make([]int, n*n),
	}
}

// load reads the teams' current records into s. Records against teams
// outside the table are ignored.
func (t *table) load(teams []*league.Team, s standings) {
	for i, team := range teams {
		s.wins[i] = team.Wins
		s.losses[i] = team.Losses
		for opponent, wins := range team.Records {
			if j, ok := t.index[opponent]; ok {
				s.h2h[i*t.n+j] = wins
			}
		}
	}
}

func (s standings) copyFrom(src standings) {
	copy(s.wins, src.wins)
	copy(s.losses, src.losses)
	copy(s.h2h, src.h2h)
}

// materialize turns trial state back into teams, in the given order.
func (t *table) materialize(s standings, order []int, source map[string]*league.Team) []*league.Team {
	teams := make([]*league.Team, len(order))
	for rank, i := range order {
		team := source[t.names[i]].Clone()
		team.Wins = s.wins[i]
		team.Losses = s.losses[i]
		for opponent := range team.Records {
			if j, ok := t.index[opponent]; ok {
				team.Records[opponent] = s.h2h[i*t.n+j]
			}
		}
		teams[rank] = team
	}
	return teams
}
