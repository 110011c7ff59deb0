package simulation

import (
	"fmt"

	"github.com/sam-maryland/sleeper-playoff-odds/internal/league"
)

type scheduledGame struct {
	home, away int
	p          float64
}

// Engine is a snapshot compiled for repeated simulation. The baseline is
// read-only after construction; every trial works on its own scratch copy.
type Engine struct {
	snapshot    *league.Snapshot
	t           *table
	baseline    standings
	games       []scheduledGame
	probs       *ProbabilityTable
	useDivision bool
}

// NewEngine validates the snapshot and compiles it. Teams are indexed in
// canonical (sorted name) order.
func NewEngine(snapshot *league.Snapshot, useDivisionTiebreaker bool) (*Engine, error) {
	if err := snapshot.Validate(); err != nil {
		return nil, fmt.Errorf("invalid simulation input: %w", err)
	}

	teams := snapshot.OrderedTeams()
	t := newTable(teams)
	baseline := newStandings(t.n)
	t.load(teams, baseline)
	probs := NewProbabilityTable(t.ppg)

	games := make([]scheduledGame, len(snapshot.Schedule))
	for i, game := range snapshot.Schedule {
		home, away := t.index[game.Home], t.index[game.Away]
		games[i] = scheduledGame{home: home, away: away, p: probs.Get(home, away)}
	}

	return &Engine{
		snapshot:    snapshot,
		t:           t,
		baseline:    baseline,
		games:       games,
		probs:       probs,
		useDivision: useDivisionTiebreaker,
	}, nil
}

// NumTeams returns the league size.
func (e *Engine) NumTeams() int {
	return e.t.n
}

// NumGames returns the number of games simulated per trial.
func (e *Engine) NumGames() int {
	return len(e.games)
}

// trial is the scratch arena for one worker. It is reset from the baseline
// at the start of every simulated season.
type trial struct {
	e *Engine
	s standings
	r *resolver
}

func (e *Engine) newTrial() *trial {
	return &trial{
		e: e,
		s: newStandings(e.t.n),
		r: newResolver(e.t, e.useDivision),
	}
}

// play simulates the remaining schedule once and returns the ranking. The
// slice is reused by the next call.
func (tr *trial) play(rng Source) []int {
	tr.s.copyFrom(tr.e.baseline)
	n := tr.e.t.n
	for _, g := range tr.e.games {
		winner, loser := g.away, g.home
		if homeWins(g.p, rng) {
			winner, loser = g.home, g.away
		}
		tr.s.wins[winner]++
		tr.s.losses[loser]++
		tr.s.h2h[winner*n+loser]++
	}
	return tr.r.resolve(tr.s)
}

// SimulateSeason plays out the snapshot's schedule once and returns the
// resulting teams ranked 1..N. The snapshot itself is not modified; the
// returned teams are fresh copies carrying the simulated records.
func SimulateSeason(snapshot *league.Snapshot, useDivisionTiebreaker bool, rng Source) ([]*league.Team, error) {
	engine, err := NewEngine(snapshot, useDivisionTiebreaker)
	if err != nil {
		return nil, err
	}
	tr := engine.newTrial()
	ranking := tr.play(rng)
	return engine.t.materialize(tr.s, ranking, snapshot.Teams), nil
}
