package handlers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sam-maryland/sleeper-playoff-odds/internal/simulation"
	"github.com/sam-maryland/sleeper-playoff-odds/internal/sleeper"
	"github.com/sam-maryland/sleeper-playoff-odds/internal/store"
	"github.com/sirupsen/logrus"
)

// StandingEntry is one team's line in the current standings.
type StandingEntry struct {
	Rank           int     `json:"rank"`
	Team           string  `json:"team"`
	Wins           int     `json:"wins"`
	Losses         int     `json:"losses"`
	PointsFor      float64 `json:"points_for"`
	Division       string  `json:"division,omitempty"`
	DivisionWins   int     `json:"division_wins,omitempty"`
	ProjectedPPG   float64 `json:"projected_ppg"`
	RemainingGames int     `json:"remaining_games"`
	PlayoffSeed    int     `json:"playoff_seed,omitempty"`
}

// GameLeverageEntry is one analyzed game with the team it affects most.
type GameLeverageEntry struct {
	simulation.LeverageResult
	MostAffected string  `json:"most_affected_team"`
	MaxSwing     float64 `json:"max_swing"`
}

// GetLeagueStandingsTool returns the MCP tool definition for get_league_standings
func (h *SimulationHandler) GetLeagueStandingsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_league_standings",
		Description: "Current standings ranked with the league's playoff seeding rules: wins, then head-to-head, optional division record and points, with the #2 seed taken from outside the #1 seed's division",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"league_id": leagueIDProperty(),
				"use_division_tiebreaker": map[string]interface{}{
					"type":        "boolean",
					"description": "Break two-team ties between division mates on division record before points",
				},
			},
		},
	}
}

// HandleGetLeagueStandings handles the get_league_standings tool call
func (h *SimulationHandler) HandleGetLeagueStandings(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	h.logger.WithField("args", args).Info("Handling get_league_standings")

	leagueID, err := requiredString(args, "league_id")
	if err != nil {
		return nil, err
	}

	_, _, useDivisionTiebreaker := h.leagues.GetLeagueSettings(leagueID).SimulationDefaults(h.cfg)
	if v, ok, err := boolArg(args, "use_division_tiebreaker"); err != nil {
		return errorResult("Invalid arguments: %s", err.Error()), nil
	} else if ok {
		useDivisionTiebreaker = v
	}

	built, failure := h.buildSnapshot(ctx, leagueID)
	if failure != nil {
		return failure, nil
	}

	teams := built.Snapshot.OrderedTeams()
	ranked := simulation.ResolveStandings(teams, useDivisionTiebreaker)
	entries := make([]StandingEntry, len(ranked))
	for i, team := range ranked {
		entry := StandingEntry{
			Rank:           i + 1,
			Team:           team.Name,
			Wins:           team.Wins,
			Losses:         team.Losses,
			PointsFor:      team.TotalPoints,
			Division:       team.Division,
			ProjectedPPG:   team.ProjectedFuturePPG,
			RemainingGames: len(built.Snapshot.RemainingGames(team.Name)),
		}
		if team.Division != "" {
			entry.DivisionWins = team.DivisionWins(teams)
		}
		if i < simulation.PlayoffTeams {
			entry.PlayoffSeed = i + 1
		}
		entries[i] = entry
	}

	summary := fmt.Sprintf("League '%s' standings entering week %d", built.League.Name, built.Week)
	if len(entries) > 0 {
		summary += fmt.Sprintf(": %s leads at %d-%d", entries[0].Team, entries[0].Wins, entries[0].Losses)
	}

	return jsonResult(APIResponse{
		Success: true,
		Data:    entries,
		Summary: summary,
		Metadata: Metadata{
			Timestamp:    time.Now(),
			Source:       "sleeper_api",
			APICallsUsed: built.APICalls,
			LeagueID:     leagueID,
		},
	})
}

// GetExpectedWinsTool returns the MCP tool definition for get_expected_wins
func (h *SimulationHandler) GetExpectedWinsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_expected_wins",
		Description: "Expected final record of every team: current record plus the win probability of each remaining game",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"league_id": leagueIDProperty(),
			},
		},
	}
}

// HandleGetExpectedWins handles the get_expected_wins tool call
func (h *SimulationHandler) HandleGetExpectedWins(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	h.logger.WithField("args", args).Info("Handling get_expected_wins")

	leagueID, err := requiredString(args, "league_id")
	if err != nil {
		return nil, err
	}

	built, failure := h.buildSnapshot(ctx, leagueID)
	if failure != nil {
		return failure, nil
	}

	records, err := simulation.ExpectedRecords(built.Snapshot)
	if err != nil {
		return errorResult("Failed to compute expected wins: %s", err.Error()), nil
	}

	summary := fmt.Sprintf("Expected final records for %d teams with %d games remaining",
		len(records), len(built.Snapshot.Schedule))
	if len(records) > 0 {
		summary += fmt.Sprintf("; %s projects best at %.2f wins", records[0].Name, records[0].Wins)
	}

	return jsonResult(APIResponse{
		Success: true,
		Data:    records,
		Summary: summary,
		Metadata: Metadata{
			Timestamp:    time.Now(),
			Source:       sourceSimulation,
			APICallsUsed: built.APICalls,
			LeagueID:     leagueID,
		},
	})
}

// GetGameLeverageTool returns the MCP tool definition for get_game_leverage
func (h *SimulationHandler) GetGameLeverageTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_game_leverage",
		Description: "How much each remaining game moves every team's playoff odds. Each game is forced both ways and the season re-simulated",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: simulationProperties(map[string]interface{}{
				"league_id": leagueIDProperty(),
				"week": map[string]interface{}{
					"type":        "integer",
					"description": "Week to analyze (defaults to the next week to be played)",
				},
				"teams": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Analyze every remaining game of these teams instead of a single week",
				},
			}),
		},
	}
}

// HandleGetGameLeverage handles the get_game_leverage tool call
func (h *SimulationHandler) HandleGetGameLeverage(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	h.logger.WithField("args", args).Info("Handling get_game_leverage")

	leagueID, err := requiredString(args, "league_id")
	if err != nil {
		return nil, err
	}

	opts, err := h.simulationOptions(leagueID, args)
	if err != nil {
		return errorResult("Invalid arguments: %s", err.Error()), nil
	}
	week, _, err := intArg(args, "week")
	if err != nil {
		return errorResult("Invalid arguments: %s", err.Error()), nil
	}
	filter, err := stringsArg(args, "teams")
	if err != nil {
		return errorResult("Invalid arguments: %s", err.Error()), nil
	}

	built, failure := h.buildSnapshot(ctx, leagueID)
	if failure != nil {
		return failure, nil
	}
	for i, name := range filter {
		resolved, ok := resolveTeam(built.Snapshot, name)
		if !ok {
			return errorResult("Unknown team %q in league %s", name, leagueID), nil
		}
		filter[i] = resolved
	}

	games := simulation.GamesToAnalyze(built.Snapshot, week, filter)
	if len(games) == 0 {
		return jsonResult(APIResponse{
			Success: true,
			Data:    []GameLeverageEntry{},
			Summary: "No remaining games match the request",
			Metadata: Metadata{
				Timestamp:    time.Now(),
				Source:       sourceSimulation,
				APICallsUsed: built.APICalls,
				LeagueID:     leagueID,
			},
		})
	}

	baseline := h.storedBaseline(ctx, leagueID, built, opts)

	runCtx, cancel := h.withTimeout(ctx)
	defer cancel()
	results, err := simulation.GameLeverage(runCtx, built.Snapshot, games, baseline, opts, h.logger)
	if err != nil {
		h.logger.WithError(err).WithField("league_id", leagueID).Error("Leverage analysis failed")
		return errorResult("Leverage analysis failed: %s", err.Error()), nil
	}

	entries := make([]GameLeverageEntry, len(results))
	for i, result := range results {
		entry := GameLeverageEntry{LeverageResult: result}
		for _, team := range built.Snapshot.TeamNames() {
			if swing := math.Abs(result.Swing(team)); swing > entry.MaxSwing {
				entry.MostAffected, entry.MaxSwing = team, swing
			}
		}
		entries[i] = entry
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].MaxSwing > entries[j].MaxSwing
	})

	top := entries[0]
	summary := fmt.Sprintf("Analyzed %d games; biggest swing: %s, %.1f points of playoff odds for %s",
		len(entries), top.Game, 100*top.MaxSwing, top.MostAffected)

	return jsonResult(APIResponse{
		Success: true,
		Data:    entries,
		Summary: summary,
		Metadata: Metadata{
			Timestamp:    time.Now(),
			Source:       sourceSimulation,
			CacheHit:     baseline != nil,
			APICallsUsed: built.APICalls,
			LeagueID:     leagueID,
		},
	})
}

// storedBaseline returns the playoff odds of the league's latest stored batch
// when it was computed for the same week, teams and tiebreaker rules.
func (h *SimulationHandler) storedBaseline(ctx context.Context, leagueID string, built *sleeper.LeagueSnapshot, opts simulation.Options) map[string]float64 {
	if h.store == nil {
		return nil
	}
	record, err := h.store.LatestResults(ctx, leagueID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			h.logger.WithError(err).WithField("league_id", leagueID).Warn("Failed to load stored results")
		}
		return nil
	}

	stored := record.Results
	if stored == nil || record.Season != built.League.Season || record.Week != built.Week ||
		stored.UseDivisionTiebreaker != opts.UseDivisionTiebreaker ||
		len(stored.Teams) != len(built.Snapshot.Teams) {
		return nil
	}
	for name := range built.Snapshot.Teams {
		if _, ok := stored.Teams[name]; !ok {
			return nil
		}
	}

	h.logger.WithFields(logrus.Fields{
		"league_id": leagueID,
		"run_id":    stored.RunID,
	}).Info("Using stored results as leverage baseline")
	return stored.ProbabilityByTeam()
}

// GetOutcomeScenariosTool returns the MCP tool definition for get_outcome_scenarios
func (h *SimulationHandler) GetOutcomeScenariosTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_outcome_scenarios",
		Description: fmt.Sprintf("Every win/loss combination of one team's remaining games (at most %d), with how likely each is and the team's playoff odds in each", simulation.MaxScenarioGames),
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: simulationProperties(map[string]interface{}{
				"league_id": leagueIDProperty(),
				"team": map[string]interface{}{
					"type":        "string",
					"description": "Team name as shown in the standings",
					"required":    true,
				},
			}),
		},
	}
}

// HandleGetOutcomeScenarios handles the get_outcome_scenarios tool call
func (h *SimulationHandler) HandleGetOutcomeScenarios(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	h.logger.WithField("args", args).Info("Handling get_outcome_scenarios")

	leagueID, err := requiredString(args, "league_id")
	if err != nil {
		return nil, err
	}
	teamArg, err := requiredString(args, "team")
	if err != nil {
		return nil, err
	}

	opts, err := h.simulationOptions(leagueID, args)
	if err != nil {
		return errorResult("Invalid arguments: %s", err.Error()), nil
	}

	built, failure := h.buildSnapshot(ctx, leagueID)
	if failure != nil {
		return failure, nil
	}
	team, ok := resolveTeam(built.Snapshot, teamArg)
	if !ok {
		return errorResult("Unknown team %q in league %s", teamArg, leagueID), nil
	}

	runCtx, cancel := h.withTimeout(ctx)
	defer cancel()
	scenarios, err := simulation.OutcomeScenarios(runCtx, built.Snapshot, team, opts, h.logger)
	if err != nil {
		h.logger.WithError(err).WithField("league_id", leagueID).Error("Scenario analysis failed")
		return errorResult("Scenario analysis failed: %s", err.Error()), nil
	}

	summary := fmt.Sprintf("%d scenarios for %s", len(scenarios), team)
	if n := len(scenarios); n > 1 {
		best, worst := scenarios[0], scenarios[n-1]
		summary += fmt.Sprintf(": %d-%d gives %.1f%% playoff odds, %d-%d gives %.1f%%",
			best.Wins, best.Losses, 100*best.PlayoffProbability,
			worst.Wins, worst.Losses, 100*worst.PlayoffProbability)
	}

	return jsonResult(APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"team":            team,
			"remaining_games": built.Snapshot.RemainingGames(team),
			"scenarios":       scenarios,
		},
		Summary: summary,
		Metadata: Metadata{
			Timestamp:    time.Now(),
			Source:       sourceSimulation,
			APICallsUsed: built.APICalls,
			LeagueID:     leagueID,
		},
	})
}
