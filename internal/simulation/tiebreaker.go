package simulation

// resolver ranks the teams of one table. It owns its scratch buffers, so a
// resolver must not be shared between goroutines.
type resolver struct {
	t           *table
	useDivision bool

	s         standings
	remaining []int
	eligible  []int
	tied      []int
	ranking   []int
}

func newResolver(t *table, useDivisionTiebreaker bool) *resolver {
	return &resolver{
		t:           t,
		useDivision: useDivisionTiebreaker,
		remaining:   make([]int, 0, t.n),
		eligible:    make([]int, 0, t.n),
		tied:        make([]int, 0, t.n),
		ranking:     make([]int, 0, t.n),
	}
}

// headToHead returns whichever of a and b has strictly more wins over the
// other, or -1.
func (r *resolver) headToHead(a, b int) int {
	n := r.t.n
	aWins, bWins := r.s.h2h[a*n+b], r.s.h2h[b*n+a]
	switch {
	case aWins > bWins:
		return a
	case bWins > aWins:
		return b
	}
	return -1
}

// divisionRecord compares wins over division mates. It only applies to two
// teams in the same division and returns -1 otherwise or when level.
func (r *resolver) divisionRecord(a, b int) int {
	division := r.t.division[a]
	if division == noDivision || division != r.t.division[b] {
		return -1
	}
	aWins, bWins := r.divisionWins(a), r.divisionWins(b)
	switch {
	case aWins > bWins:
		return a
	case bWins > aWins:
		return b
	}
	return -1
}

func (r *resolver) divisionWins(team int) int {
	n := r.t.n
	total := 0
	for _, mate := range r.t.mates[team] {
		total += r.s.h2h[team*n+mate]
	}
	return total
}

// beatsAll reports whether candidate has a strictly winning head-to-head
// record against every other team in tied.
func (r *resolver) beatsAll(candidate int, tied []int) bool {
	for _, other := range tied {
		if other == candidate {
			continue
		}
		if r.headToHead(other, candidate) != candidate {
			return false
		}
	}
	return true
}

// breakTie picks one team out of a group already level on wins.
//
// Two teams: head-to-head, then division record when enabled, then total
// points. With equal totals the second team wins.
// Three or more: a team that beat every other tied team outright, otherwise
// the highest total points, earliest team on equal totals. The division
// rule is never consulted here.
func (r *resolver) breakTie(tied []int) int {
	if len(tied) == 2 {
		a, b := tied[0], tied[1]
		if winner := r.headToHead(a, b); winner >= 0 {
			return winner
		}
		if r.useDivision {
			if winner := r.divisionRecord(a, b); winner >= 0 {
				return winner
			}
		}
		if r.t.points[a] > r.t.points[b] {
			return a
		}
		return b
	}

	for _, candidate := range tied {
		if r.beatsAll(candidate, tied) {
			return candidate
		}
	}

	best := tied[0]
	for _, team := range tied[1:] {
		if r.t.points[team] > r.t.points[best] {
			best = team
		}
	}
	return best
}
