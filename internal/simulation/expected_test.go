package simulation

import (
	"testing"

	"github.com/sam-maryland/sleeper-playoff-odds/internal/league"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpectedRecords(t *testing.T) {
	s := league.NewSnapshot([]*league.Team{
		{Name: "Strong", Wins: 2, Losses: 1, ProjectedFuturePPG: 150},
		{Name: "Weak", Wins: 1, Losses: 2, ProjectedFuturePPG: 50},
		{Name: "Even", Wins: 3, Losses: 0, ProjectedFuturePPG: 100},
	}, []league.Game{
		{Home: "Strong", Away: "Weak", Week: 4},
		{Home: "Even", Away: "Strong", Week: 5},
	})

	records, err := ExpectedRecords(s)
	require.NoError(t, err)
	require.Len(t, records, 3)

	byName := map[string]ExpectedRecord{}
	totalWins := 0.0
	for _, r := range records {
		byName[r.Name] = r
		totalWins += r.Wins
	}

	p := WinProbability(150, 50)
	q := WinProbability(100, 150)
	assert.InDelta(t, 2+p+(1-q), byName["Strong"].Wins, 1e-12)
	assert.InDelta(t, 1+(1-p)+q, byName["Strong"].Losses, 1e-12)
	assert.InDelta(t, 1+(1-p), byName["Weak"].Wins, 1e-12)
	assert.InDelta(t, 3+q, byName["Even"].Wins, 1e-12)
	assert.InDelta(t, 6+2, totalWins, 1e-9)

	for i := 1; i < len(records); i++ {
		assert.GreaterOrEqual(t, records[i-1].Wins, records[i].Wins)
	}
}

func TestExpectedRecords_Invalid(t *testing.T) {
	s := midSeason()
	s.Teams["Jack"].ProjectedFuturePPG = -1

	_, err := ExpectedRecords(s)
	assert.Error(t, err)
}
