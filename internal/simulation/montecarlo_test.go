package simulation

import (
	"context"
	"errors"
	"testing"

	"github.com/sam-maryland/sleeper-playoff-odds/internal/league"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions(n int) Options {
	return Options{
		NumSimulations:   n,
		Seed:             12345,
		Workers:          4,
		ProgressInterval: 0,
	}
}

func TestRun_ClinchedTeam(t *testing.T) {
	logger, _ := test.NewNullLogger()
	s := midSeason()
	s.Teams["Brandon"].Wins = 10
	s.Teams["Brandon"].Losses = 0
	s.Teams["Brandon"].ProjectedFuturePPG = 400

	results, err := Run(context.Background(), s, testOptions(20000), logger)
	require.NoError(t, err)

	stats := results.Teams["Brandon"]
	assert.Equal(t, 20000, stats.NumSeasons)
	assert.Equal(t, 20000, stats.PlayoffAppearances)
	assert.Equal(t, 20000, stats.SeedCount(1))
}

func TestRun_SymmetricRoundRobin(t *testing.T) {
	logger, _ := test.NewNullLogger()
	s := roundRobin(
		map[string]float64{"A": 100, "B": 100, "C": 100, "D": 100},
		map[string]float64{"A": 400, "B": 300, "C": 200, "D": 100},
	)

	const n = 100 * 1000
	results, err := Run(context.Background(), s, testOptions(n), logger)
	require.NoError(t, err)

	// Every team always makes a four-team field. The top seed is not 25%
	// each: the 2-2-2-0 finish is settled on points.
	expectedFirst := map[string]float64{"A": 0.3125, "B": 0.25, "C": 0.21875, "D": 0.21875}
	for name, stats := range results.Teams {
		assert.Equal(t, n, stats.PlayoffAppearances, "team %s", name)
		assert.InDelta(t, expectedFirst[name], float64(stats.SeedCount(1))/n, 0.01, "team %s", name)
	}
}

func TestRun_CountsAddUp(t *testing.T) {
	logger, _ := test.NewNullLogger()
	opts := testOptions(5000)
	opts.SimulatePlayoffs = true

	results, err := Run(context.Background(), midSeason(), opts, logger)
	require.NoError(t, err)

	var appearances, championships, runnerUps int
	var seeds [PlayoffTeams]int
	for _, stats := range results.Teams {
		appearances += stats.PlayoffAppearances
		championships += stats.Championships
		runnerUps += stats.RunnerUps
		for k := range seeds {
			seeds[k] += stats.Rankings[k]
		}
		assert.LessOrEqual(t, stats.Championships+stats.RunnerUps, stats.PlayoffAppearances)
	}

	assert.Equal(t, PlayoffTeams*5000, appearances)
	assert.Equal(t, 5000, championships)
	assert.Equal(t, 5000, runnerUps)
	for k, count := range seeds {
		assert.Equal(t, 5000, count, "seed %d", k+1)
	}
	assert.True(t, results.SimulatedPlayoffs)
	assert.NotEmpty(t, results.RunID)
}

func TestRun_Reproducible(t *testing.T) {
	logger, _ := test.NewNullLogger()
	opts := testOptions(10000)
	opts.SimulatePlayoffs = true

	first, err := Run(context.Background(), midSeason(), opts, logger)
	require.NoError(t, err)
	second, err := Run(context.Background(), midSeason(), opts, logger)
	require.NoError(t, err)

	assert.Equal(t, first.Teams, second.Teams)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestRun_WorkerCounts(t *testing.T) {
	logger, _ := test.NewNullLogger()

	for _, workers := range []int{1, 3, 8} {
		opts := testOptions(1001)
		opts.Workers = workers

		results, err := Run(context.Background(), midSeason(), opts, logger)
		require.NoError(t, err)
		assert.Equal(t, workers, results.Workers)

		total := 0
		for _, stats := range results.Teams {
			total += stats.SeedCount(1)
		}
		assert.Equal(t, 1001, total, "workers=%d", workers)
	}
}

func TestRun_ProgressLogging(t *testing.T) {
	logger, hook := test.NewNullLogger()
	opts := testOptions(8192)
	opts.Workers = 2
	opts.ProgressInterval = 2048

	_, err := Run(context.Background(), midSeason(), opts, logger)
	require.NoError(t, err)

	var completed []int64
	for _, entry := range hook.AllEntries() {
		if entry.Message == "Simulation progress" {
			completed = append(completed, entry.Data["completed"].(int64))
		}
	}
	assert.ElementsMatch(t, []int64{2048, 4096, 6144, 8192}, completed)
}

func TestRun_RandomSeedReported(t *testing.T) {
	logger, _ := test.NewNullLogger()
	opts := testOptions(10)
	opts.Seed = 0

	results, err := Run(context.Background(), midSeason(), opts, logger)
	require.NoError(t, err)
	assert.NotZero(t, results.Seed)
}

func TestRun_Cancelled(t *testing.T) {
	logger, _ := test.NewNullLogger()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, midSeason(), testOptions(100000), logger)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRun_InvalidInput(t *testing.T) {
	logger, _ := test.NewNullLogger()

	tests := []struct {
		name     string
		snapshot func() *league.Snapshot
		opts     func() Options
		errType  string
	}{
		{
			name: "non-positive strength",
			snapshot: func() *league.Snapshot {
				s := midSeason()
				s.Teams["Zach"].ProjectedFuturePPG = 0
				return s
			},
			opts:    func() Options { return testOptions(10) },
			errType: league.ErrInvalidStrength,
		},
		{
			name: "playoffs with three teams",
			snapshot: func() *league.Snapshot {
				return roundRobin(map[string]float64{"A": 100, "B": 100, "C": 100}, nil)
			},
			opts: func() Options {
				o := testOptions(10)
				o.SimulatePlayoffs = true
				return o
			},
			errType: league.ErrTooFewTeams,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(context.Background(), tt.snapshot(), tt.opts(), logger)
			require.Error(t, err)

			var validationErr *league.ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.Equal(t, tt.errType, validationErr.Type)
		})
	}

	_, err := Run(context.Background(), midSeason(), testOptions(0), logger)
	assert.Error(t, err)
}

func TestRun_SmallLeagueWithoutPlayoffs(t *testing.T) {
	logger, _ := test.NewNullLogger()
	s := roundRobin(map[string]float64{"A": 150, "B": 50}, map[string]float64{"A": 10, "B": 20})

	results, err := Run(context.Background(), s, testOptions(50000), logger)
	require.NoError(t, err)

	a := results.Teams["A"]
	assert.Equal(t, 50000, a.PlayoffAppearances)
	assert.InDelta(t, WinProbability(150, 50), float64(a.SeedCount(1))/50000, 0.003)
}
