package simulation

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/sam-maryland/sleeper-playoff-odds/internal/league"
	"github.com/sirupsen/logrus"
)

// LeverageResult shows how much one game moves every team's playoff odds.
// Deltas are in probability units against the baseline, one entry per team.
type LeverageResult struct {
	Game               league.Game        `json:"game"`
	HomeWinProbability float64            `json:"home_win_probability"`
	HomeWin            map[string]float64 `json:"home_win_delta"`
	AwayWin            map[string]float64 `json:"away_win_delta"`
}

// Swing returns the spread between the two outcomes for the named team.
func (l *LeverageResult) Swing(team string) float64 {
	return l.HomeWin[team] - l.AwayWin[team]
}

// GamesToAnalyze picks the games worth a leverage run. With a non-empty team
// filter it is every remaining game involving one of those teams, otherwise
// every game in the given week. Week 0 means the earliest remaining week.
func GamesToAnalyze(snapshot *league.Snapshot, week int, teamFilter []string) []league.Game {
	if len(teamFilter) > 0 {
		var games []league.Game
		for _, game := range snapshot.Schedule {
			for _, team := range teamFilter {
				if game.Involves(team) {
					games = append(games, game)
					break
				}
			}
		}
		return games
	}
	if week == 0 {
		week = snapshot.FirstWeek()
	}
	return snapshot.GamesInWeek(week)
}

// GameLeverage forces each game to go both ways and re-runs the batch. A nil
// baseline is computed first with the same options. When opts.Seed is zero a
// single seed is drawn and shared by every run so the deltas are not
// dominated by sampling noise.
func GameLeverage(ctx context.Context, snapshot *league.Snapshot, games []league.Game, baseline map[string]float64, opts Options, logger *logrus.Logger) ([]LeverageResult, error) {
	if err := snapshot.Validate(); err != nil {
		return nil, fmt.Errorf("invalid snapshot: %w", err)
	}
	if opts.Seed == 0 {
		opts.Seed = rand.Uint64()
	}

	if baseline == nil {
		results, err := Run(ctx, snapshot, opts, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to compute baseline odds: %w", err)
		}
		baseline = results.ProbabilityByTeam()
	}

	out := make([]LeverageResult, 0, len(games))
	for _, game := range games {
		home, away := snapshot.Teams[game.Home], snapshot.Teams[game.Away]
		if home == nil || away == nil {
			return nil, &league.ValidationError{
				Type:    league.ErrUnknownTeam,
				Message: fmt.Sprintf("game references unknown team: %s", game),
				Game:    &game,
			}
		}

		logger.WithField("game", game.String()).Debug("Analyzing game leverage")

		homeWin, err := forcedOdds(ctx, snapshot, game, true, baseline, opts, logger)
		if err != nil {
			return nil, err
		}
		awayWin, err := forcedOdds(ctx, snapshot, game, false, baseline, opts, logger)
		if err != nil {
			return nil, err
		}

		out = append(out, LeverageResult{
			Game:               game,
			HomeWinProbability: WinProbability(home.ProjectedFuturePPG, away.ProjectedFuturePPG),
			HomeWin:            homeWin,
			AwayWin:            awayWin,
		})
	}
	return out, nil
}

func forcedOdds(ctx context.Context, snapshot *league.Snapshot, game league.Game, homeWins bool, baseline map[string]float64, opts Options, logger *logrus.Logger) (map[string]float64, error) {
	forced, err := snapshot.WithResult(game, homeWins)
	if err != nil {
		return nil, err
	}
	results, err := Run(ctx, forced, opts, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to simulate %s: %w", game, err)
	}

	deltas := make(map[string]float64, len(results.Teams))
	for name, p := range results.ProbabilityByTeam() {
		deltas[name] = p - baseline[name]
	}
	return deltas, nil
}
