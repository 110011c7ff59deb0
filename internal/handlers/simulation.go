package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sam-maryland/sleeper-playoff-odds/internal/config"
	"github.com/sam-maryland/sleeper-playoff-odds/internal/league"
	"github.com/sam-maryland/sleeper-playoff-odds/internal/simulation"
	"github.com/sam-maryland/sleeper-playoff-odds/internal/sleeper"
	"github.com/sam-maryland/sleeper-playoff-odds/internal/store"
	"github.com/sirupsen/logrus"
)

const sourceSimulation = "monte_carlo_simulation"

// ResultStore persists snapshots and finished batches. *store.SQLStore
// implements it.
type ResultStore interface {
	SaveSnapshot(ctx context.Context, key store.SnapshotKey, snapshot *league.Snapshot) (store.SnapshotKey, error)
	SaveResults(ctx context.Context, key store.SnapshotKey, results *simulation.Results) error
	LatestResults(ctx context.Context, leagueID string) (*store.ResultRecord, error)
}

// SimulationData is the payload of simulate_playoff_odds.
type SimulationData struct {
	LeagueName            string                       `json:"league_name"`
	Season                string                       `json:"season"`
	Week                  int                          `json:"current_week"`
	RemainingGames        int                          `json:"remaining_games"`
	RunID                 string                       `json:"run_id"`
	NumSimulations        int                          `json:"num_simulations"`
	Seed                  uint64                       `json:"seed"`
	SimulatedPlayoffs     bool                         `json:"simulated_playoffs"`
	UseDivisionTiebreaker bool                         `json:"use_division_tiebreaker"`
	ConfidenceLevel       float64                      `json:"confidence_level"`
	DurationMs            int64                        `json:"duration_ms"`
	Teams                 []simulation.TeamPercentages `json:"teams"`
}

// SimulationHandler serves the playoff odds tools for Sleeper leagues.
type SimulationHandler struct {
	builder *sleeper.SnapshotBuilder
	cfg     *config.Config
	leagues *config.LeagueConfig
	store   ResultStore
	cache   store.ResultCache
	logger  *logrus.Logger
}

// NewSimulationHandler creates a handler. A nil store disables persistence
// and a nil cache selects an in-process one.
func NewSimulationHandler(client sleeper.Client, cfg *config.Config, leagues *config.LeagueConfig, results ResultStore, cache store.ResultCache, logger *logrus.Logger) *SimulationHandler {
	if leagues == nil {
		leagues = config.DefaultLeagueConfig()
	}
	if cache == nil {
		cache = store.NewMemoryCache()
	}
	return &SimulationHandler{
		builder: sleeper.NewSnapshotBuilder(client, leagues, logger),
		cfg:     cfg,
		leagues: leagues,
		store:   results,
		cache:   cache,
		logger:  logger,
	}
}

func leagueIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "The Sleeper league ID",
		"required":    true,
	}
}

// simulationProperties are the per-call overrides shared by every tool that
// runs a batch.
func simulationProperties(properties map[string]interface{}) map[string]interface{} {
	properties["num_simulations"] = map[string]interface{}{
		"type":        "integer",
		"description": "Number of seasons to simulate (defaults to the league or server setting)",
	}
	properties["simulate_playoffs"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Also simulate the four-team bracket to estimate championship odds",
	}
	properties["use_division_tiebreaker"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Break two-team ties between division mates on division record before points",
	}
	properties["seed"] = map[string]interface{}{
		"type":        "integer",
		"description": "Random seed for a reproducible run; 0 or absent picks one",
	}
	return properties
}

// SimulatePlayoffOddsTool returns the MCP tool definition for simulate_playoff_odds
func (h *SimulationHandler) SimulatePlayoffOddsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "simulate_playoff_odds",
		Description: "Monte Carlo simulation of the rest of the regular season. Returns each team's odds of making the four-team playoff, of each seed and, optionally, of reaching and winning the final, with a confidence interval on the playoff odds",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: simulationProperties(map[string]interface{}{
				"league_id": leagueIDProperty(),
				"confidence_level": map[string]interface{}{
					"type":        "number",
					"description": "Confidence level for the playoff odds interval, between 0 and 1 (default 0.95)",
				},
			}),
		},
	}
}

// HandleSimulatePlayoffOdds handles the simulate_playoff_odds tool call
func (h *SimulationHandler) HandleSimulatePlayoffOdds(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	h.logger.WithField("args", args).Info("Handling simulate_playoff_odds")

	leagueID, err := requiredString(args, "league_id")
	if err != nil {
		return nil, err
	}

	opts, err := h.simulationOptions(leagueID, args)
	if err != nil {
		return errorResult("Invalid arguments: %s", err.Error()), nil
	}
	confidence := h.cfg.ConfidenceLevel
	if v, ok, err := floatArg(args, "confidence_level"); err != nil {
		return errorResult("Invalid arguments: %s", err.Error()), nil
	} else if ok {
		if v <= 0 || v >= 1 {
			return errorResult("Invalid arguments: confidence_level must be between 0 and 1"), nil
		}
		confidence = v
	}

	built, failure := h.buildSnapshot(ctx, leagueID)
	if failure != nil {
		return failure, nil
	}

	results, cacheHit, err := h.simulate(ctx, leagueID, built, opts)
	if err != nil {
		h.logger.WithError(err).WithField("league_id", leagueID).Error("Simulation failed")
		return errorResult("Simulation failed: %s", err.Error()), nil
	}

	teams := results.Percentages(confidence)
	data := SimulationData{
		LeagueName:            built.League.Name,
		Season:                built.League.Season,
		Week:                  built.Week,
		RemainingGames:        len(built.Snapshot.Schedule),
		RunID:                 results.RunID,
		NumSimulations:        results.NumSimulations,
		Seed:                  results.Seed,
		SimulatedPlayoffs:     results.SimulatedPlayoffs,
		UseDivisionTiebreaker: results.UseDivisionTiebreaker,
		ConfidenceLevel:       confidence,
		DurationMs:            results.Duration.Milliseconds(),
		Teams:                 teams,
	}

	summary := fmt.Sprintf("League '%s': %d seasons simulated from week %d with %d games remaining",
		built.League.Name, results.NumSimulations, built.Week, len(built.Snapshot.Schedule))
	if len(teams) > 0 {
		summary += fmt.Sprintf(". Best playoff odds: %s (%.1f%%)", teams[0].Team, teams[0].Playoffs)
		if last := teams[len(teams)-1]; len(teams) > 1 {
			summary += fmt.Sprintf(", worst: %s (%.1f%%)", last.Team, last.Playoffs)
		}
	}

	return jsonResult(APIResponse{
		Success: true,
		Data:    data,
		Summary: summary,
		Metadata: Metadata{
			Timestamp:    time.Now(),
			Source:       sourceSimulation,
			CacheHit:     cacheHit,
			APICallsUsed: built.APICalls,
			LeagueID:     leagueID,
			RunID:        results.RunID,
		},
	})
}

// simulationOptions resolves a batch's options. Call arguments override the
// league's configured settings, which override the server configuration.
func (h *SimulationHandler) simulationOptions(leagueID string, args map[string]interface{}) (simulation.Options, error) {
	settings := h.leagues.GetLeagueSettings(leagueID)
	numSimulations, simulatePlayoffs, useDivisionTiebreaker := settings.SimulationDefaults(h.cfg)

	if v, ok, err := intArg(args, "num_simulations"); err != nil {
		return simulation.Options{}, err
	} else if ok {
		numSimulations = v
	}
	if numSimulations <= 0 {
		return simulation.Options{}, fmt.Errorf("num_simulations must be positive")
	}
	if h.cfg.MaxSimulations > 0 && numSimulations > h.cfg.MaxSimulations {
		return simulation.Options{}, fmt.Errorf("num_simulations must not exceed %d", h.cfg.MaxSimulations)
	}

	if v, ok, err := boolArg(args, "simulate_playoffs"); err != nil {
		return simulation.Options{}, err
	} else if ok {
		simulatePlayoffs = v
	}
	if v, ok, err := boolArg(args, "use_division_tiebreaker"); err != nil {
		return simulation.Options{}, err
	} else if ok {
		useDivisionTiebreaker = v
	}
	seed, _, err := uintArg(args, "seed")
	if err != nil {
		return simulation.Options{}, err
	}

	return simulation.Options{
		NumSimulations:        numSimulations,
		SimulatePlayoffs:      simulatePlayoffs,
		UseDivisionTiebreaker: useDivisionTiebreaker,
		Seed:                  seed,
		Workers:               h.cfg.SimulationWorkers,
		ProgressInterval:      h.cfg.ProgressInterval,
	}, nil
}

// buildSnapshot loads the league, returning a tool error result on failure.
func (h *SimulationHandler) buildSnapshot(ctx context.Context, leagueID string) (*sleeper.LeagueSnapshot, *mcp.CallToolResult) {
	built, err := h.builder.Build(ctx, leagueID)
	if err != nil {
		h.logger.WithError(err).WithField("league_id", leagueID).Error("Failed to build league snapshot")
		return nil, errorResult("Failed to load league %s: %s", leagueID, err.Error())
	}
	return built, nil
}

// withTimeout bounds a simulation by the configured timeout.
func (h *SimulationHandler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.cfg.SimulationTimeout > 0 {
		return context.WithTimeout(ctx, h.cfg.SimulationTimeout)
	}
	return context.WithCancel(ctx)
}

// simulate returns the batch for the snapshot and options, from the cache
// when possible. Fresh results are cached and persisted.
func (h *SimulationHandler) simulate(ctx context.Context, leagueID string, built *sleeper.LeagueSnapshot, opts simulation.Options) (*simulation.Results, bool, error) {
	log := h.logger.WithField("league_id", leagueID)

	key, err := store.CacheKey(built.Snapshot, opts)
	if err != nil {
		return nil, false, err
	}
	cached, err := h.cache.Get(ctx, key)
	if err == nil {
		log.WithField("run_id", cached.RunID).Info("Serving simulation from cache")
		return cached, true, nil
	}
	if !errors.Is(err, store.ErrCacheMiss) {
		log.WithError(err).Warn("Result cache unavailable")
	}

	runCtx, cancel := h.withTimeout(ctx)
	defer cancel()
	results, err := simulation.Run(runCtx, built.Snapshot, opts, h.logger)
	if err != nil {
		return nil, false, err
	}

	if err := h.cache.Set(ctx, key, results, h.cfg.CacheTTL); err != nil {
		log.WithError(err).Warn("Failed to cache simulation results")
	}
	h.persist(ctx, leagueID, built, results)
	return results, false, nil
}

func (h *SimulationHandler) persist(ctx context.Context, leagueID string, built *sleeper.LeagueSnapshot, results *simulation.Results) {
	if h.store == nil {
		return
	}
	log := h.logger.WithFields(logrus.Fields{"league_id": leagueID, "run_id": results.RunID})

	key, err := h.store.SaveSnapshot(ctx, snapshotKey(leagueID, built), built.Snapshot)
	if err != nil {
		log.WithError(err).Warn("Failed to store league snapshot")
		return
	}
	if err := h.store.SaveResults(ctx, key, results); err != nil {
		log.WithError(err).Warn("Failed to store simulation results")
		return
	}
	log.WithField("version", key.Version).Debug("Stored simulation results")
}

func snapshotKey(leagueID string, built *sleeper.LeagueSnapshot) store.SnapshotKey {
	return store.SnapshotKey{
		LeagueID: leagueID,
		Season:   built.League.Season,
		Week:     built.Week,
	}
}

// resolveTeam matches a team name exactly, then case-insensitively.
func resolveTeam(snapshot *league.Snapshot, name string) (string, bool) {
	if _, ok := snapshot.Teams[name]; ok {
		return name, true
	}
	for _, candidate := range snapshot.TeamNames() {
		if strings.EqualFold(candidate, name) {
			return candidate, true
		}
	}
	return "", false
}
