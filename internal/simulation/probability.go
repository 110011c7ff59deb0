package simulation

import (
	"math"
	"math/rand/v2"
)

// PythagoreanExponent was fit against a handful of sportsbook lines for
// weekly fantasy matchups.
const PythagoreanExponent = 4.6

// WinProbability returns the probability that a team scoring pointsForA per
// game beats a team scoring pointsForB per game:
//
//	A^k / (A^k + B^k), k = PythagoreanExponent
//
// Both inputs must be strictly positive; the result is undefined otherwise.
// Callers are expected to have validated their snapshot.
func WinProbability(pointsForA, pointsForB float64) float64 {
	a := math.Pow(pointsForA, PythagoreanExponent)
	b := math.Pow(pointsForB, PythagoreanExponent)
	return a / (a + b)
}

// ProbabilityTable caches WinProbability for every ordered pair of teams in
// a batch. Strengths are fixed for the whole batch so each pair is computed
// once.
type ProbabilityTable struct {
	n int
	p []float64
}

// NewProbabilityTable precomputes the pairwise matrix for the given
// strengths, indexed the same way as ppg.
func NewProbabilityTable(ppg []float64) *ProbabilityTable {
	n := len(ppg)
	t := &ProbabilityTable{n: n, p: make([]float64, n*n)}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			t.p[i*n+j] = WinProbability(ppg[i], ppg[j])
		}
	}
	return t
}

// Get returns the probability that team i beats team j.
func (t *ProbabilityTable) Get(i, j int) float64 {
	return t.p[i*t.n+j]
}

// Source is the random stream consumed by the simulator. Float64 must return
// a uniform value in [0, 1). *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// NewSource returns a seeded PCG generator. Different streams with the same
// seed are independent, which is how parallel workers get their own
// generators.
func NewSource(seed, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, stream))
}

// homeWins draws one game outcome. Ties of the draw with p go to the home
// side.
func homeWins(p float64, rng Source) bool {
	return rng.Float64() <= p
}
