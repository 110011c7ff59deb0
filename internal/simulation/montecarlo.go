package simulation

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sam-maryland/sleeper-playoff-odds/internal/league"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultNumSimulations   = 100 * 1000
	DefaultProgressInterval = 100 * 1000

	// trials between context checks
	cancelCheckInterval = 1024
)

// Options configures one batch.
type Options struct {
	NumSimulations        int    `json:"num_simulations"`
	SimulatePlayoffs      bool   `json:"simulate_playoffs"`
	UseDivisionTiebreaker bool   `json:"use_division_tiebreaker"`
	Seed                  uint64 `json:"seed"`
	Workers               int    `json:"workers"`
	ProgressInterval      int    `json:"progress_interval"`
}

// DefaultOptions returns a single-season playoff odds batch with no bracket
// simulation and no division tiebreaker.
func DefaultOptions() Options {
	return Options{
		NumSimulations:   DefaultNumSimulations,
		ProgressInterval: DefaultProgressInterval,
	}
}

type counters struct {
	playoffs      int
	rankings      [PlayoffTeams]int
	championships int
	runnerUps     int
}

// Run simulates the snapshot's remaining season opts.NumSimulations times
// and tallies playoff appearances, seeds and, when requested, bracket
// results per team.
func Run(ctx context.Context, snapshot *league.Snapshot, opts Options, logger *logrus.Logger) (*Results, error) {
	engine, err := NewEngine(snapshot, opts.UseDivisionTiebreaker)
	if err != nil {
		return nil, err
	}
	return engine.Run(ctx, opts, logger)
}

// Run executes a batch on the compiled snapshot. opts.UseDivisionTiebreaker
// is ignored in favor of the engine's setting.
func (e *Engine) Run(ctx context.Context, opts Options, logger *logrus.Logger) (*Results, error) {
	if opts.NumSimulations <= 0 {
		return nil, fmt.Errorf("number of simulations must be positive, got %d", opts.NumSimulations)
	}
	if opts.SimulatePlayoffs && e.t.n < PlayoffTeams {
		return nil, &league.ValidationError{
			Type:    league.ErrTooFewTeams,
			Message: fmt.Sprintf("playoff simulation needs at least %d teams, got %d", PlayoffTeams, e.t.n),
		}
	}

	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, opts.NumSimulations)

	runID := uuid.NewString()
	log := logger.WithFields(logrus.Fields{
		"run_id":          runID,
		"num_simulations": opts.NumSimulations,
		"num_games":       len(e.games),
		"num_teams":       e.t.n,
		"workers":         workers,
		"seed":            seed,
	})
	log.Info("Starting simulation batch")
	start := time.Now()

	top := min(PlayoffTeams, e.t.n)
	perWorker := make([][]counters, workers)
	// Workers add finished trials in chunks and log each time the running
	// total crosses a multiple of ProgressInterval.
	var completed atomic.Int64
	report := func(n int) {
		if n == 0 || opts.ProgressInterval <= 0 {
			return
		}
		interval := int64(opts.ProgressInterval)
		done := completed.Add(int64(n))
		if done/interval > (done-int64(n))/interval {
			log.WithField("completed", done/interval*interval).Info("Simulation progress")
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		trials := opts.NumSimulations / workers
		if w < opts.NumSimulations%workers {
			trials++
		}

		g.Go(func() error {
			local := make([]counters, e.t.n)
			tr := e.newTrial()
			rng := NewSource(seed, uint64(w))
			pending := 0

			for i := 0; i < trials; i++ {
				if i%cancelCheckInterval == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
					report(pending)
					pending = 0
				}

				ranking := tr.play(rng)
				for seedIndex := 0; seedIndex < top; seedIndex++ {
					c := &local[ranking[seedIndex]]
					c.playoffs++
					c.rankings[seedIndex]++
				}

				if opts.SimulatePlayoffs {
					champion, runnerUp := tr.playoffs(ranking[:PlayoffTeams], rng)
					local[champion].championships++
					local[runnerUp].runnerUps++
				}

				pending++
			}
			report(pending)

			perWorker[w] = local
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.WithError(err).Warn("Simulation batch aborted")
		return nil, fmt.Errorf("simulation batch aborted: %w", err)
	}

	results := &Results{
		RunID:                 runID,
		NumSimulations:        opts.NumSimulations,
		Seed:                  seed,
		Workers:               workers,
		SimulatedPlayoffs:     opts.SimulatePlayoffs,
		UseDivisionTiebreaker: e.useDivision,
		Teams:                 make(map[string]*TeamStats, e.t.n),
	}
	for i, name := range e.t.names {
		stats := &TeamStats{NumSeasons: opts.NumSimulations}
		for _, local := range perWorker {
			c := local[i]
			stats.PlayoffAppearances += c.playoffs
			stats.Championships += c.championships
			stats.RunnerUps += c.runnerUps
			for k := range c.rankings {
				stats.Rankings[k] += c.rankings[k]
			}
		}
		results.Teams[name] = stats
	}
	results.Duration = time.Since(start)

	log.WithField("duration", results.Duration.String()).Info("Completed simulation batch")
	return results, nil
}
