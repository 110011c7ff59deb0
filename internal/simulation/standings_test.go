package simulation

import (
	"fmt"
	"testing"

	"github.com/sam-maryland/sleeper-playoff-odds/internal/league"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(teams []*league.Team) []string {
	out := make([]string, len(teams))
	for i, t := range teams {
		out[i] = t.Name
	}
	return out
}

func TestResolveStandings(t *testing.T) {
	tests := []struct {
		name     string
		teams    []*league.Team
		expected []string
	}{
		{
			name: "ordered by wins",
			teams: []*league.Team{
				testTeam("A", 3, 900, "", nil),
				testTeam("B", 8, 900, "", nil),
				testTeam("C", 5, 900, "", nil),
				testTeam("D", 6, 900, "", nil),
			},
			expected: []string{"B", "D", "C", "A"},
		},
		{
			name: "second seed comes from the other division",
			teams: []*league.Team{
				testTeam("A", 10, 900, "East", nil),
				testTeam("B", 9, 900, "East", nil),
				testTeam("C", 5, 900, "West", nil),
				testTeam("D", 4, 900, "West", nil),
			},
			expected: []string{"A", "C", "B", "D"},
		},
		{
			name: "single division keeps win order",
			teams: []*league.Team{
				testTeam("A", 10, 900, "East", nil),
				testTeam("B", 9, 900, "East", nil),
				testTeam("C", 5, 900, "East", nil),
			},
			expected: []string{"A", "B", "C"},
		},
		{
			name: "tie for first broken by points",
			teams: []*league.Team{
				testTeam("A", 8, 900, "", nil),
				testTeam("B", 8, 1000, "", nil),
				testTeam("C", 8, 950, "", nil),
				testTeam("D", 2, 1200, "", nil),
			},
			expected: []string{"B", "C", "A", "D"},
		},
		{
			name: "tie for second seed inside the other division",
			teams: []*league.Team{
				testTeam("A", 10, 900, "East", nil),
				testTeam("B", 9, 900, "East", nil),
				testTeam("C", 6, 900, "West", map[string]int{"D": 1}),
				testTeam("D", 6, 950, "West", nil),
			},
			expected: []string{"A", "C", "B", "D"},
		},
		{
			name: "division rule applies only at the second seed",
			teams: []*league.Team{
				testTeam("A", 10, 900, "East", nil),
				testTeam("B", 9, 900, "East", nil),
				testTeam("C", 8, 900, "East", nil),
				testTeam("D", 2, 900, "West", nil),
			},
			expected: []string{"A", "D", "B", "C"},
		},
		{
			name: "single team",
			teams: []*league.Team{
				testTeam("A", 1, 900, "East", nil),
			},
			expected: []string{"A"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, names(ResolveStandings(tt.teams, false)))
		})
	}
}

func TestResolveStandings_Empty(t *testing.T) {
	assert.Empty(t, ResolveStandings(nil, false))
}

func TestResolveStandings_Permutation(t *testing.T) {
	rng := NewSource(2024, 0)
	divisions := []string{"East", "West", ""}

	for trial := 0; trial < 200; trial++ {
		n := 2 + int(rng.Float64()*10)
		teams := make([]*league.Team, n)
		for i := range teams {
			teams[i] = testTeam(fmt.Sprintf("T%02d", i), int(rng.Float64()*6), 800+200*rng.Float64(), divisions[int(rng.Float64()*3)], nil)
		}
		for _, a := range teams {
			for _, b := range teams {
				if a != b {
					a.Records[b.Name] = int(rng.Float64() * 3)
				}
			}
		}

		ranked := ResolveStandings(teams, trial%2 == 0)
		require.Len(t, ranked, n)
		assert.ElementsMatch(t, names(teams), names(ranked))

		seen := map[string]bool{}
		for _, tm := range teams {
			seen[tm.Division] = true
		}
		if len(seen) > 1 {
			assert.NotEqual(t, ranked[0].Division, ranked[1].Division, "trial %d", trial)
		}
	}
}

func TestResolveStandings_DoesNotMutate(t *testing.T) {
	teams := []*league.Team{
		testTeam("A", 8, 900, "", map[string]int{"B": 1}),
		testTeam("B", 8, 1000, "", map[string]int{"A": 1}),
	}

	ResolveStandings(teams, true)

	assert.Equal(t, "A", teams[0].Name)
	assert.Equal(t, 8, teams[0].Wins)
	assert.Equal(t, 1, teams[1].Records["A"])
}
