package simulation

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/sam-maryland/sleeper-playoff-odds/internal/league"
	"github.com/sirupsen/logrus"
)

// MaxScenarioGames bounds OutcomeScenarios at 2^12 batches.
const MaxScenarioGames = 12

// GameOutcome is one decided game within a scenario.
type GameOutcome struct {
	Game   league.Game `json:"game"`
	Winner string      `json:"winner"`
}

// Scenario is one combination of results for a team's remaining games.
type Scenario struct {
	Outcomes           []GameOutcome `json:"outcomes"`
	Wins               int           `json:"wins"`
	Losses             int           `json:"losses"`
	Probability        float64       `json:"probability"`
	PlayoffProbability float64       `json:"playoff_probability"`
}

// OutcomeScenarios enumerates every win/loss combination of the team's
// remaining games. Each scenario carries its own likelihood and the team's
// playoff odds from a batch over the rest of the schedule. Scenarios are
// ordered by wins, then by likelihood.
func OutcomeScenarios(ctx context.Context, snapshot *league.Snapshot, team string, opts Options, logger *logrus.Logger) ([]Scenario, error) {
	if err := snapshot.Validate(); err != nil {
		return nil, fmt.Errorf("invalid snapshot: %w", err)
	}
	subject, ok := snapshot.Teams[team]
	if !ok {
		return nil, &league.ValidationError{
			Type:    league.ErrUnknownTeam,
			Message: fmt.Sprintf("unknown team %q", team),
			Team:    team,
		}
	}

	games := snapshot.RemainingGames(team)
	if len(games) > MaxScenarioGames {
		return nil, fmt.Errorf("team %q has %d remaining games, at most %d can be enumerated", team, len(games), MaxScenarioGames)
	}
	if opts.Seed == 0 {
		opts.Seed = rand.Uint64()
	}

	log := logger.WithFields(logrus.Fields{
		"team":      team,
		"games":     len(games),
		"scenarios": 1 << len(games),
	})
	log.Info("Enumerating outcome scenarios")

	scenarios := make([]Scenario, 0, 1<<len(games))
	for mask := 0; mask < 1<<len(games); mask++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		scenario := Scenario{
			Outcomes:    make([]GameOutcome, len(games)),
			Wins:        subject.Wins,
			Losses:      subject.Losses,
			Probability: 1,
		}
		current := snapshot
		for i, game := range games {
			won := mask&(1<<i) != 0
			opponent := game.Home
			if opponent == team {
				opponent = game.Away
			}
			p := WinProbability(subject.ProjectedFuturePPG, snapshot.Teams[opponent].ProjectedFuturePPG)

			winner := opponent
			if won {
				winner = team
				scenario.Wins++
				scenario.Probability *= p
			} else {
				scenario.Losses++
				scenario.Probability *= 1 - p
			}
			scenario.Outcomes[i] = GameOutcome{Game: game, Winner: winner}

			var err error
			current, err = current.WithResult(game, winner == game.Home)
			if err != nil {
				return nil, err
			}
		}

		results, err := Run(ctx, current, opts, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to simulate scenario %d: %w", mask, err)
		}
		scenario.PlayoffProbability, err = results.PlayoffProbability(team)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, scenario)
	}

	sort.SliceStable(scenarios, func(i, j int) bool {
		if scenarios[i].Wins != scenarios[j].Wins {
			return scenarios[i].Wins > scenarios[j].Wins
		}
		return scenarios[i].Probability > scenarios[j].Probability
	})
	return scenarios, nil
}
