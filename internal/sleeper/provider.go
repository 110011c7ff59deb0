package sleeper

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sam-maryland/sleeper-playoff-odds/internal/config"
	"github.com/sam-maryland/sleeper-playoff-odds/internal/league"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultProjectedPPG is used when neither the team nor the league has a
	// scoring history yet.
	DefaultProjectedPPG = 100.0

	// DefaultPlayoffWeekStart applies when the league does not say.
	DefaultPlayoffWeekStart = 15

	matchupFetchConcurrency = 4
)

// LeagueSnapshot is a Sleeper league converted into simulator input.
type LeagueSnapshot struct {
	League   *League
	Snapshot *league.Snapshot
	// Week is the first week still to be played.
	Week int
	// RosterNames maps Sleeper roster IDs to the team names used in Snapshot.
	RosterNames map[int]string
	APICalls    int
}

// SnapshotBuilder turns live league data into a league.Snapshot.
type SnapshotBuilder struct {
	client   Client
	settings *config.LeagueConfig
	logger   *logrus.Logger
}

// NewSnapshotBuilder creates a builder. A nil settings value means no
// per-league overrides.
func NewSnapshotBuilder(client Client, settings *config.LeagueConfig, logger *logrus.Logger) *SnapshotBuilder {
	if settings == nil {
		settings = config.DefaultLeagueConfig()
	}
	return &SnapshotBuilder{
		client:   client,
		settings: settings,
		logger:   logger,
	}
}

// Build fetches the league, its users, rosters and every regular season
// week of matchups. Scored weeks become head-to-head records; the rest
// become the remaining schedule.
func (b *SnapshotBuilder) Build(ctx context.Context, leagueID string) (*LeagueSnapshot, error) {
	log := b.logger.WithField("league_id", leagueID)
	log.Info("Building league snapshot")

	var calls atomic.Int64
	lg, err := b.client.GetLeague(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	calls.Add(1)

	users, err := b.client.GetLeagueUsers(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	calls.Add(1)

	rosters, err := b.client.GetLeagueRosters(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	calls.Add(1)

	if len(rosters) < 2 {
		return nil, &SleeperError{
			Type:     ErrTypeInvalidData,
			Message:  fmt.Sprintf("league %s has %d rosters, need at least 2", leagueID, len(rosters)),
			LeagueID: leagueID,
		}
	}

	settings := b.settings.GetLeagueSettings(leagueID)
	names := rosterNames(rosters, users, settings)

	teams := make([]*league.Team, 0, len(rosters))
	byRoster := make(map[int]*league.Team, len(rosters))
	for _, roster := range rosters {
		team := &league.Team{
			Name:        names[roster.RosterID],
			Wins:        roster.Settings.Wins,
			Losses:      roster.Settings.Losses,
			TotalPoints: roster.Settings.PointsFor(),
			Division:    divisionName(lg, roster.Settings.Division, settings),
		}
		teams = append(teams, team)
		byRoster[roster.RosterID] = team
	}
	assignStrength(rosters, byRoster, settings)

	firstWeek := max(lg.Settings.StartWeek, 1)
	lastScored := lg.Settings.LastScoredLeg
	playoffStart := lg.Settings.PlayoffWeekStart
	if playoffStart <= 0 {
		playoffStart = DefaultPlayoffWeekStart
	}
	lastRegular := playoffStart - 1

	weeks, err := b.fetchWeeks(ctx, leagueID, firstWeek, lastRegular, &calls)
	if err != nil {
		return nil, err
	}

	snapshot := league.NewSnapshot(teams, nil)
	snapshot.SeasonGames = max(lastRegular-firstWeek+1, 0) * lg.Settings.GamesPerWeek()
	for week := firstWeek; week <= lastRegular; week++ {
		for _, pair := range pairMatchups(weeks[week], log.WithField("week", week)) {
			home, away := byRoster[pair[0].RosterID], byRoster[pair[1].RosterID]
			if home == nil || away == nil {
				log.WithFields(logrus.Fields{
					"week":      week,
					"matchup":   pair[0].MatchupID,
					"roster_id": []int{pair[0].RosterID, pair[1].RosterID},
				}).Warn("Skipping matchup with unknown roster")
				continue
			}

			if week <= lastScored {
				switch {
				case pair[0].Points > pair[1].Points:
					home.Records[away.Name]++
				case pair[1].Points > pair[0].Points:
					away.Records[home.Name]++
				}
				continue
			}
			snapshot.Schedule = append(snapshot.Schedule, league.Game{Home: home.Name, Away: away.Name, Week: week})
		}
	}

	if err := snapshot.Validate(); err != nil {
		return nil, fmt.Errorf("league %s produced an invalid snapshot: %w", leagueID, err)
	}

	result := &LeagueSnapshot{
		League:      lg,
		Snapshot:    snapshot,
		Week:        max(lastScored+1, firstWeek),
		RosterNames: names,
		APICalls:    int(calls.Load()),
	}
	log.WithFields(logrus.Fields{
		"teams":          len(snapshot.Teams),
		"remaining":      len(snapshot.Schedule),
		"current_week":   result.Week,
		"api_calls_used": result.APICalls,
	}).Info("Built league snapshot")
	return result, nil
}

func (b *SnapshotBuilder) fetchWeeks(ctx context.Context, leagueID string, from, to int, calls *atomic.Int64) (map[int][]Matchup, error) {
	var mu sync.Mutex
	weeks := make(map[int][]Matchup, to-from+1)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(matchupFetchConcurrency)
	for week := from; week <= to; week++ {
		g.Go(func() error {
			matchups, err := b.client.GetMatchups(gctx, leagueID, week)
			if err != nil {
				return err
			}
			calls.Add(1)
			mu.Lock()
			weeks[week] = matchups
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return weeks, nil
}

// pairMatchups groups one week's entries into games, in first-seen order.
// Entries without a matchup ID (byes) are dropped.
func pairMatchups(matchups []Matchup, log *logrus.Entry) [][2]Matchup {
	groups := make(map[int][]Matchup)
	var order []int
	for _, m := range matchups {
		if m.MatchupID == 0 {
			continue
		}
		if _, ok := groups[m.MatchupID]; !ok {
			order = append(order, m.MatchupID)
		}
		groups[m.MatchupID] = append(groups[m.MatchupID], m)
	}

	pairs := make([][2]Matchup, 0, len(order))
	for _, id := range order {
		group := groups[id]
		if len(group) != 2 {
			log.WithFields(logrus.Fields{
				"matchup": id,
				"entries": len(group),
			}).Warn("Skipping matchup without exactly two teams")
			continue
		}
		pairs = append(pairs, [2]Matchup{group[0], group[1]})
	}
	return pairs
}

// rosterNames picks a unique team name per roster: the configured name, the
// owner's team name, the owner's display name, then "Team <id>".
func rosterNames(rosters []Roster, users []User, settings config.LeagueSettings) map[int]string {
	usersByID := make(map[string]User, len(users))
	for _, user := range users {
		usersByID[user.UserID] = user
	}

	names := make(map[int]string, len(rosters))
	counts := make(map[string]int, len(rosters))
	for _, roster := range rosters {
		name, ok := settings.TeamName(roster.RosterID)
		if !ok {
			user := usersByID[roster.OwnerID]
			switch {
			case user.Metadata.TeamName != "":
				name = user.Metadata.TeamName
			case user.DisplayName != "":
				name = user.DisplayName
			default:
				name = fmt.Sprintf("Team %d", roster.RosterID)
			}
		}
		names[roster.RosterID] = name
		counts[name]++
	}

	for rosterID, name := range names {
		if counts[name] > 1 {
			names[rosterID] = fmt.Sprintf("%s (%d)", name, rosterID)
		}
	}
	return names
}

func divisionName(lg *League, division int, settings config.LeagueSettings) string {
	if division == 0 {
		return ""
	}
	if name, ok := settings.DivisionName(division); ok {
		return name
	}
	if name, ok := lg.DivisionName(division); ok {
		return name
	}
	return fmt.Sprintf("Division %d", division)
}

// assignStrength sets ProjectedFuturePPG: configured value, else the team's
// scoring average, else the league's, else DefaultProjectedPPG.
func assignStrength(rosters []Roster, byRoster map[int]*league.Team, settings config.LeagueSettings) {
	var leaguePoints float64
	var leagueGames int
	for _, roster := range rosters {
		if games := roster.Settings.GamesPlayed(); games > 0 {
			leaguePoints += roster.Settings.PointsFor()
			leagueGames += games
		}
	}
	leagueAverage := DefaultProjectedPPG
	if leagueGames > 0 && leaguePoints > 0 {
		leagueAverage = leaguePoints / float64(leagueGames)
	}

	for _, roster := range rosters {
		team := byRoster[roster.RosterID]
		if ppg, ok := settings.ProjectedPPGFor(team.Name); ok {
			team.ProjectedFuturePPG = ppg
			continue
		}
		team.ProjectedFuturePPG = leagueAverage
		if games := roster.Settings.GamesPlayed(); games > 0 && roster.Settings.PointsFor() > 0 {
			team.ProjectedFuturePPG = roster.Settings.PointsFor() / float64(games)
		}
	}
}
