// Command simulate runs playoff odds batches from the command line, against a
// snapshot file or a live Sleeper league.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/sam-maryland/sleeper-playoff-odds/internal/config"
	"github.com/sam-maryland/sleeper-playoff-odds/internal/league"
	"github.com/sam-maryland/sleeper-playoff-odds/internal/logger"
	"github.com/sam-maryland/sleeper-playoff-odds/internal/simulation"
	"github.com/sam-maryland/sleeper-playoff-odds/internal/sleeper"
	"github.com/sam-maryland/sleeper-playoff-odds/internal/store"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var version = "dev"

type cliOptions struct {
	snapshotPath string
	leagueID     string
	savePath     string
	seed         uint64
	jsonOutput   bool
	persist      bool
	expected     bool
	leverage     bool
	week         int
	scenarioTeam string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "simulate: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var opts cliOptions
	v := viper.New()

	flags := pflag.NewFlagSet("simulate", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVar(&opts.snapshotPath, "snapshot", "", "league snapshot JSON file")
	flags.StringVar(&opts.leagueID, "league", "", "Sleeper league ID to load instead of a snapshot file")
	flags.StringVar(&opts.savePath, "save-snapshot", "", "write the league snapshot to this file")
	flags.Uint64Var(&opts.seed, "seed", 0, "random seed; 0 picks one")
	flags.BoolVar(&opts.jsonOutput, "json", false, "print JSON instead of a table")
	flags.BoolVar(&opts.persist, "persist", false, "store the snapshot and results in DATABASE_PATH (requires --league)")
	flags.BoolVar(&opts.expected, "expected", false, "print expected final records instead of running a batch")
	flags.BoolVar(&opts.leverage, "leverage", false, "analyze how each game of --week moves the playoff odds")
	flags.IntVar(&opts.week, "week", 0, "week for --leverage; 0 is the next week")
	flags.StringVar(&opts.scenarioTeam, "scenarios", "", "enumerate every outcome of this team's remaining games")
	flags.Int("simulations", 0, "number of seasons to simulate")
	flags.Int("workers", 0, "parallel workers; 0 is one per CPU")
	flags.Bool("playoffs", false, "also simulate the playoff bracket")
	flags.Bool("division-tiebreaker", false, "use division record in two-team ties between division mates")
	flags.Float64("confidence", 0, "confidence level for the playoff odds interval")
	flags.String("log-level", "", "log level")
	showVersion := flags.Bool("version", false, "print version information and exit")

	if err := flags.Parse(args); err != nil {
		return err
	}
	if *showVersion {
		fmt.Fprintf(stdout, "simulate version %s\n", version)
		return nil
	}

	for key, name := range map[string]string{
		"NUM_SIMULATIONS":         "simulations",
		"SIMULATION_WORKERS":      "workers",
		"SIMULATE_PLAYOFFS":       "playoffs",
		"USE_DIVISION_TIEBREAKER": "division-tiebreaker",
		"CONFIDENCE_LEVEL":        "confidence",
		"LOG_LEVEL":               "log-level",
	} {
		if flags.Changed(name) {
			if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
				return err
			}
		}
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	log := logger.NewWithOutput(cfg.LogLevel, cfg.LogFormat, stderr)

	if (opts.snapshotPath == "") == (opts.leagueID == "") {
		return fmt.Errorf("exactly one of --snapshot or --league is required")
	}
	if opts.persist && opts.leagueID == "" {
		return fmt.Errorf("--persist requires --league")
	}

	leagues, err := config.LoadLeagueSettings(cfg.LeagueSettingsPath)
	if err != nil {
		return err
	}

	snapshot, built, err := loadSnapshot(ctx, cfg, leagues, opts, log)
	if err != nil {
		return err
	}
	if opts.savePath != "" {
		if err := snapshot.WriteFile(opts.savePath); err != nil {
			return err
		}
		log.WithField("path", opts.savePath).Info("Saved league snapshot")
	}

	numSimulations, simulatePlayoffs, useDivisionTiebreaker := leagues.GetLeagueSettings(opts.leagueID).SimulationDefaults(cfg)
	if flags.Changed("simulations") {
		numSimulations = cfg.NumSimulations
	}
	if flags.Changed("playoffs") {
		simulatePlayoffs = cfg.SimulatePlayoffs
	}
	if flags.Changed("division-tiebreaker") {
		useDivisionTiebreaker = cfg.UseDivisionTiebreaker
	}
	simOpts := simulation.Options{
		NumSimulations:        numSimulations,
		SimulatePlayoffs:      simulatePlayoffs,
		UseDivisionTiebreaker: useDivisionTiebreaker,
		Seed:                  opts.seed,
		Workers:               cfg.SimulationWorkers,
		ProgressInterval:      cfg.ProgressInterval,
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.SimulationTimeout)
	defer cancel()

	switch {
	case opts.expected:
		records, err := simulation.ExpectedRecords(snapshot)
		if err != nil {
			return err
		}
		if opts.jsonOutput {
			return writeJSON(stdout, records)
		}
		return printExpected(stdout, records)

	case opts.leverage:
		games := simulation.GamesToAnalyze(snapshot, opts.week, nil)
		results, err := simulation.GameLeverage(ctx, snapshot, games, nil, simOpts, log)
		if err != nil {
			return err
		}
		if opts.jsonOutput {
			return writeJSON(stdout, results)
		}
		return printLeverage(stdout, snapshot, results)

	case opts.scenarioTeam != "":
		scenarios, err := simulation.OutcomeScenarios(ctx, snapshot, opts.scenarioTeam, simOpts, log)
		if err != nil {
			return err
		}
		if opts.jsonOutput {
			return writeJSON(stdout, scenarios)
		}
		return printScenarios(stdout, scenarios)
	}

	results, err := simulation.Run(ctx, snapshot, simOpts, log)
	if err != nil {
		return err
	}
	if opts.persist {
		if err := persist(ctx, cfg, built, results, log); err != nil {
			return err
		}
	}

	if opts.jsonOutput {
		return writeJSON(stdout, struct {
			*simulation.Results
			Percentages []simulation.TeamPercentages `json:"percentages"`
		}{results, results.Percentages(cfg.ConfidenceLevel)})
	}
	return printOdds(stdout, results, cfg.ConfidenceLevel)
}

func loadSnapshot(ctx context.Context, cfg *config.Config, leagues *config.LeagueConfig, opts cliOptions, log *logrus.Logger) (*league.Snapshot, *sleeper.LeagueSnapshot, error) {
	if opts.snapshotPath != "" {
		snapshot, err := league.LoadFile(opts.snapshotPath)
		return snapshot, nil, err
	}

	client := sleeper.NewHTTPClient(sleeper.ClientOptions{
		BaseURL:           cfg.SleeperBaseURL,
		Timeout:           cfg.SleeperTimeout,
		RequestsPerMinute: cfg.SleeperRateLimit,
	}, log)
	built, err := sleeper.NewSnapshotBuilder(client, leagues, log).Build(ctx, opts.leagueID)
	if err != nil {
		return nil, nil, err
	}
	return built.Snapshot, built, nil
}

func persist(ctx context.Context, cfg *config.Config, built *sleeper.LeagueSnapshot, results *simulation.Results, log *logrus.Logger) error {
	if cfg.DatabasePath == "" {
		return fmt.Errorf("--persist needs DATABASE_PATH")
	}
	db, err := store.OpenSQLite(cfg.DatabasePath, log)
	if err != nil {
		return err
	}
	defer db.Close()

	key, err := db.SaveSnapshot(ctx, store.SnapshotKey{
		LeagueID: built.League.LeagueID,
		Season:   built.League.Season,
		Week:     built.Week,
	}, built.Snapshot)
	if err != nil {
		return err
	}
	return db.SaveResults(ctx, key, results)
}

func writeJSON(w io.Writer, value interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func pct(p float64) string {
	return fmt.Sprintf("%6.2f%%", p)
}

func printOdds(w io.Writer, results *simulation.Results, confidence float64) error {
	fmt.Fprintf(w, "%d seasons, seed %d, run %s\n\n", results.NumSimulations, results.Seed, results.RunID)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := "Team\tPlayoffs\tInterval\t#1\t#2\t#3\t#4"
	if results.SimulatedPlayoffs {
		header += "\tFinal\tChampion"
	}
	fmt.Fprintln(tw, header)
	for _, team := range results.Percentages(confidence) {
		fmt.Fprintf(tw, "%s\t%s\t%.1f-%.1f\t%s\t%s\t%s\t%s",
			team.Team, pct(team.Playoffs), team.PlayoffsInterval.Lower, team.PlayoffsInterval.Upper,
			pct(team.Seeds[0]), pct(team.Seeds[1]), pct(team.Seeds[2]), pct(team.Seeds[3]))
		if results.SimulatedPlayoffs {
			fmt.Fprintf(tw, "\t%s\t%s", pct(team.FinalAppearance), pct(team.Championship))
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func printExpected(w io.Writer, records []simulation.ExpectedRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Team\tWins\tLosses")
	for _, record := range records {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\n", record.Name, record.Wins, record.Losses)
	}
	return tw.Flush()
}

func printLeverage(w io.Writer, snapshot *league.Snapshot, results []simulation.LeverageResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Game\tTeam\tHome win\tAway win\tSwing")
	for _, result := range results {
		for _, team := range snapshot.TeamNames() {
			swing := result.Swing(team)
			if swing == 0 {
				continue
			}
			fmt.Fprintf(tw, "%s\t%s\t%+.2f\t%+.2f\t%.2f\n", result.Game, team,
				100*result.HomeWin[team], 100*result.AwayWin[team], 100*swing)
		}
	}
	return tw.Flush()
}

func printScenarios(w io.Writer, scenarios []simulation.Scenario) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Record\tLikelihood\tPlayoffs\tResults")
	for _, scenario := range scenarios {
		outcomes := ""
		for i, outcome := range scenario.Outcomes {
			if i > 0 {
				outcomes += ", "
			}
			outcomes += fmt.Sprintf("wk%d %s", outcome.Game.Week, outcome.Winner)
		}
		fmt.Fprintf(tw, "%d-%d\t%s\t%s\t%s\n", scenario.Wins, scenario.Losses,
			pct(100*scenario.Probability), pct(100*scenario.PlayoffProbability), outcomes)
	}
	return tw.Flush()
}
