package sleeper

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/sam-maryland/sleeper-playoff-odds/internal/config"
	"github.com/sam-maryland/sleeper-playoff-odds/internal/league"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient is a Client backed by function fields.
type mockClient struct {
	GetLeagueFunc        func(leagueID string) (*League, error)
	GetLeagueUsersFunc   func(leagueID string) ([]User, error)
	GetLeagueRostersFunc func(leagueID string) ([]Roster, error)
	GetMatchupsFunc      func(leagueID string, week int) ([]Matchup, error)

	mu    sync.Mutex
	weeks []int
}

func (m *mockClient) GetLeague(ctx context.Context, leagueID string) (*League, error) {
	if m.GetLeagueFunc != nil {
		return m.GetLeagueFunc(leagueID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockClient) GetLeagueUsers(ctx context.Context, leagueID string) ([]User, error) {
	if m.GetLeagueUsersFunc != nil {
		return m.GetLeagueUsersFunc(leagueID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockClient) GetLeagueRosters(ctx context.Context, leagueID string) ([]Roster, error) {
	if m.GetLeagueRostersFunc != nil {
		return m.GetLeagueRostersFunc(leagueID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockClient) GetMatchups(ctx context.Context, leagueID string, week int) ([]Matchup, error) {
	m.mu.Lock()
	m.weeks = append(m.weeks, week)
	m.mu.Unlock()
	if m.GetMatchupsFunc != nil {
		return m.GetMatchupsFunc(leagueID, week)
	}
	return nil, errors.New("not implemented")
}

func fourTeamLeague() *mockClient {
	return &mockClient{
		GetLeagueFunc: func(leagueID string) (*League, error) {
			return &League{
				LeagueID: leagueID,
				Name:     "Test League",
				Season:   "2024",
				Settings: LeagueSettings{StartWeek: 1, LastScoredLeg: 2, PlayoffWeekStart: 5, Divisions: 2},
				Metadata: map[string]interface{}{"division_1": "Gridiron"},
			}, nil
		},
		GetLeagueUsersFunc: func(leagueID string) ([]User, error) {
			return []User{
				{UserID: "u1", DisplayName: "brandon", Metadata: UserMetadata{TeamName: "Brandon's Bombers"}},
				{UserID: "u2", DisplayName: "holden"},
				{UserID: "u3", DisplayName: "jeremy"},
			}, nil
		},
		GetLeagueRostersFunc: func(leagueID string) ([]Roster, error) {
			return []Roster{
				{RosterID: 1, OwnerID: "u1", Settings: RosterSettings{Wins: 2, FPTS: 250, FPTSDecimal: 50, Division: 1}},
				{RosterID: 2, OwnerID: "u2", Settings: RosterSettings{Wins: 1, Losses: 1, FPTS: 210, Division: 1}},
				{RosterID: 3, OwnerID: "u3", Settings: RosterSettings{Wins: 1, Losses: 1, FPTS: 200, Division: 2}},
				{RosterID: 4, OwnerID: "", Settings: RosterSettings{Losses: 2, FPTS: 180, Division: 2}},
			}, nil
		},
		GetMatchupsFunc: func(leagueID string, week int) ([]Matchup, error) {
			switch week {
			case 1:
				return []Matchup{
					{RosterID: 1, MatchupID: 1, Points: 130},
					{RosterID: 3, MatchupID: 2, Points: 105},
					{RosterID: 2, MatchupID: 1, Points: 100},
					{RosterID: 4, MatchupID: 2, Points: 90},
				}, nil
			case 2:
				return []Matchup{
					{RosterID: 1, MatchupID: 1, Points: 120.5},
					{RosterID: 3, MatchupID: 1, Points: 95},
					{RosterID: 2, MatchupID: 2, Points: 110},
					{RosterID: 4, MatchupID: 2, Points: 90},
				}, nil
			case 3:
				return []Matchup{
					{RosterID: 1, MatchupID: 1},
					{RosterID: 4, MatchupID: 1},
					{RosterID: 2, MatchupID: 2},
					{RosterID: 3, MatchupID: 2},
				}, nil
			default:
				return []Matchup{
					{RosterID: 4, MatchupID: 1},
					{RosterID: 2, MatchupID: 1},
					{RosterID: 3, MatchupID: 0},
				}, nil
			}
		},
	}
}

func TestSnapshotBuilder_Build(t *testing.T) {
	logger, _ := test.NewNullLogger()
	client := fourTeamLeague()

	built, err := NewSnapshotBuilder(client, nil, logger).Build(context.Background(), "42")
	require.NoError(t, err)

	s := built.Snapshot
	require.Len(t, s.Teams, 4)
	assert.Equal(t, 3, built.Week)
	assert.Equal(t, 4, built.Snapshot.SeasonGames)
	assert.Equal(t, 3+4, built.APICalls)
	assert.ElementsMatch(t, []int{1, 2, 3, 4}, client.weeks)
	assert.Equal(t, map[int]string{1: "Brandon's Bombers", 2: "holden", 3: "jeremy", 4: "Team 4"}, built.RosterNames)

	brandon := s.Teams["Brandon's Bombers"]
	assert.Equal(t, 2, brandon.Wins)
	assert.Equal(t, 250.5, brandon.TotalPoints)
	assert.Equal(t, "Gridiron", brandon.Division)
	assert.InDelta(t, 125.25, brandon.ProjectedFuturePPG, 1e-9)
	assert.Equal(t, map[string]int{"holden": 1, "jeremy": 1, "Team 4": 0}, brandon.Records)

	assert.Equal(t, "Division 2", s.Teams["jeremy"].Division)
	assert.Equal(t, 1, s.Teams["jeremy"].Records["Team 4"])
	assert.Equal(t, 1, s.Teams["holden"].Records["Team 4"])
	assert.Equal(t, 0, s.Teams["Team 4"].Records["holden"])

	// Team 4 has no wins but a scoring history; its own average applies.
	assert.InDelta(t, 90, s.Teams["Team 4"].ProjectedFuturePPG, 1e-9)

	assert.Equal(t, []string{
		"week 3: Brandon's Bombers vs. Team 4",
		"week 3: holden vs. jeremy",
		"week 4: Team 4 vs. holden",
	}, gameStrings(s))
}

func TestSnapshotBuilder_Overrides(t *testing.T) {
	logger, _ := test.NewNullLogger()
	settings := &config.LeagueConfig{
		Leagues: map[string]config.LeagueSettings{
			"42": {
				TeamNames:    map[string]string{"1": "Brandon", "4": "Zach"},
				Divisions:    map[string]string{"2": "West"},
				ProjectedPPG: map[string]float64{"Zach": 111.1},
			},
		},
	}

	built, err := NewSnapshotBuilder(fourTeamLeague(), settings, logger).Build(context.Background(), "42")
	require.NoError(t, err)

	s := built.Snapshot
	require.Contains(t, s.Teams, "Brandon")
	require.Contains(t, s.Teams, "Zach")
	assert.Equal(t, "Gridiron", s.Teams["Brandon"].Division)
	assert.Equal(t, "West", s.Teams["Zach"].Division)
	assert.Equal(t, 111.1, s.Teams["Zach"].ProjectedFuturePPG)
}

func TestSnapshotBuilder_DuplicateNames(t *testing.T) {
	logger, _ := test.NewNullLogger()
	client := fourTeamLeague()
	client.GetLeagueUsersFunc = func(leagueID string) ([]User, error) {
		return []User{
			{UserID: "u1", DisplayName: "sam"},
			{UserID: "u2", DisplayName: "sam"},
			{UserID: "u3", DisplayName: "jeremy"},
		}, nil
	}

	built, err := NewSnapshotBuilder(client, nil, logger).Build(context.Background(), "42")
	require.NoError(t, err)
	assert.Contains(t, built.Snapshot.Teams, "sam (1)")
	assert.Contains(t, built.Snapshot.Teams, "sam (2)")
}

func TestSnapshotBuilder_DefaultStrength(t *testing.T) {
	logger, _ := test.NewNullLogger()
	client := fourTeamLeague()
	client.GetLeagueFunc = func(leagueID string) (*League, error) {
		return &League{LeagueID: leagueID, Settings: LeagueSettings{StartWeek: 1, PlayoffWeekStart: 3}}, nil
	}
	client.GetLeagueRostersFunc = func(leagueID string) ([]Roster, error) {
		return []Roster{{RosterID: 1, OwnerID: "u1"}, {RosterID: 2, OwnerID: "u2"}, {RosterID: 3, OwnerID: "u3"}, {RosterID: 4}}, nil
	}

	built, err := NewSnapshotBuilder(client, nil, logger).Build(context.Background(), "42")
	require.NoError(t, err)
	for _, team := range built.Snapshot.Teams {
		assert.Equal(t, DefaultProjectedPPG, team.ProjectedFuturePPG)
		assert.Empty(t, team.Division)
	}
	assert.Equal(t, 1, built.Week)
	assert.Equal(t, 2, built.Snapshot.SeasonGames)
	assert.Len(t, built.Snapshot.Schedule, 4)
}

func TestSnapshotBuilder_Errors(t *testing.T) {
	logger, _ := test.NewNullLogger()

	notFound := fourTeamLeague()
	notFound.GetLeagueFunc = func(leagueID string) (*League, error) {
		return nil, &SleeperError{Type: ErrTypeNotFound, Message: "not found", LeagueID: leagueID}
	}
	_, err := NewSnapshotBuilder(notFound, nil, logger).Build(context.Background(), "42")
	var sleeperErr *SleeperError
	require.True(t, errors.As(err, &sleeperErr))
	assert.Equal(t, ErrTypeNotFound, sleeperErr.Type)

	tiny := fourTeamLeague()
	tiny.GetLeagueRostersFunc = func(leagueID string) ([]Roster, error) {
		return []Roster{{RosterID: 1}}, nil
	}
	_, err = NewSnapshotBuilder(tiny, nil, logger).Build(context.Background(), "42")
	assert.Error(t, err)

	failingWeek := fourTeamLeague()
	failingWeek.GetMatchupsFunc = func(leagueID string, week int) ([]Matchup, error) {
		return nil, errors.New("boom")
	}
	_, err = NewSnapshotBuilder(failingWeek, nil, logger).Build(context.Background(), "42")
	assert.Error(t, err)
}

func TestSnapshotBuilder_SeasonLength(t *testing.T) {
	logger, _ := test.NewNullLogger()
	rosters := func(leagueID string) ([]Roster, error) {
		return []Roster{
			{RosterID: 1, OwnerID: "u1", Settings: RosterSettings{Wins: 4, FPTS: 250, Division: 1}},
			{RosterID: 2, OwnerID: "u2", Settings: RosterSettings{Wins: 2, Losses: 2, FPTS: 210, Division: 1}},
			{RosterID: 3, OwnerID: "u3", Settings: RosterSettings{Wins: 2, Losses: 2, FPTS: 200, Division: 2}},
			{RosterID: 4, OwnerID: "", Settings: RosterSettings{Losses: 4, FPTS: 180, Division: 2}},
		}, nil
	}

	tooLong := fourTeamLeague()
	tooLong.GetLeagueRostersFunc = rosters
	_, err := NewSnapshotBuilder(tooLong, nil, logger).Build(context.Background(), "42")
	var validationErr *league.ValidationError
	require.True(t, errors.As(err, &validationErr), "expected ValidationError, got %v", err)
	assert.Equal(t, league.ErrRecordTooLong, validationErr.Type)

	median := fourTeamLeague()
	median.GetLeagueRostersFunc = rosters
	median.GetLeagueFunc = func(leagueID string) (*League, error) {
		return &League{
			LeagueID: leagueID,
			Season:   "2024",
			Settings: LeagueSettings{StartWeek: 1, LastScoredLeg: 2, PlayoffWeekStart: 5, LeagueAverageMatch: 1},
		}, nil
	}
	built, err := NewSnapshotBuilder(median, nil, logger).Build(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, 8, built.Snapshot.SeasonGames)
}

func gameStrings(s *league.Snapshot) []string {
	out := make([]string, len(s.Schedule))
	for i, game := range s.Schedule {
		out[i] = game.String()
	}
	return out
}
