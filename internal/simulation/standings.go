package simulation

import (
	"github.com/sam-maryland/sleeper-playoff-odds/internal/league"
)

// resolve produces the full ranking for the state in s. The returned slice
// is the resolver's own buffer and is overwritten by the next call.
func (r *resolver) resolve(s standings) []int {
	r.s = s
	wins := s.wins

	r.remaining = r.remaining[:0]
	for i := 0; i < r.t.n; i++ {
		// stable insertion by wins descending
		j := len(r.remaining)
		r.remaining = append(r.remaining, i)
		for j > 0 && wins[r.remaining[j-1]] < wins[i] {
			r.remaining[j] = r.remaining[j-1]
			j--
		}
		r.remaining[j] = i
	}

	r.ranking = r.ranking[:0]
	for rank := 0; rank < r.t.n; rank++ {
		eligible := r.remaining

		// The #2 seed always comes from outside the #1 seed's division.
		if rank == 1 {
			first := r.t.division[r.ranking[0]]
			r.eligible = r.eligible[:0]
			for _, team := range r.remaining {
				if r.t.division[team] != first {
					r.eligible = append(r.eligible, team)
				}
			}
			if len(r.eligible) > 0 {
				eligible = r.eligible
			}
		}

		selected := eligible[0]
		if len(eligible) > 1 && wins[eligible[1]] == wins[selected] {
			r.tied = r.tied[:0]
			for _, team := range eligible {
				if wins[team] != wins[selected] {
					break
				}
				r.tied = append(r.tied, team)
			}
			selected = r.breakTie(r.tied)
		}

		r.take(selected)
		r.ranking = append(r.ranking, selected)
	}
	return r.ranking
}

func (r *resolver) take(team int) {
	for i, candidate := range r.remaining {
		if candidate == team {
			r.remaining = append(r.remaining[:i], r.remaining[i+1:]...)
			return
		}
	}
}

// Standings ranks a fixed set of teams using their current wins, head-to-head
// records and point totals. Teams outside the set are ignored for
// head-to-head and division record purposes.
type Standings struct {
	teams []*league.Team
	t     *table
	s     standings
	r     *resolver
}

// NewStandings prepares a resolver for the given teams. The teams are read,
// never modified.
func NewStandings(teams []*league.Team, useDivisionTiebreaker bool) *Standings {
	t := newTable(teams)
	s := newStandings(t.n)
	t.load(teams, s)
	r := newResolver(t, useDivisionTiebreaker)
	r.s = s
	return &Standings{teams: teams, t: t, s: s, r: r}
}

// Resolve returns every team ordered rank 1..N.
func (st *Standings) Resolve() []*league.Team {
	if len(st.teams) == 0 {
		return nil
	}
	order := st.r.resolve(st.s)
	ranked := make([]*league.Team, len(order))
	for rank, i := range order {
		ranked[rank] = st.teams[i]
	}
	return ranked
}

// BreakTie selects one team from a group tied on wins. Every team in tied
// must belong to the set the Standings was built from; nil is returned for an
// empty group or an unknown team.
func (st *Standings) BreakTie(tied []*league.Team) *league.Team {
	if len(tied) == 0 {
		return nil
	}
	if len(tied) == 1 {
		return tied[0]
	}
	indices := make([]int, len(tied))
	for k, team := range tied {
		i, ok := st.t.index[team.Name]
		if !ok {
			return nil
		}
		indices[k] = i
	}
	st.r.s = st.s
	return st.teams[st.r.breakTie(indices)]
}

// ResolveStandings ranks the teams 1..N. See Standings.
func ResolveStandings(teams []*league.Team, useDivisionTiebreaker bool) []*league.Team {
	return NewStandings(teams, useDivisionTiebreaker).Resolve()
}

// BreakTie selects one team from a group tied on wins. Division records are
// counted over teams, the whole league; a nil teams treats the tied group as
// the league.
func BreakTie(tied, teams []*league.Team, useDivisionTiebreaker bool) *league.Team {
	if teams == nil {
		teams = tied
	}
	return NewStandings(teams, useDivisionTiebreaker).BreakTie(tied)
}
