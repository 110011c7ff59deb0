package simulation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// sequenceSource replays fixed draws, repeating the last one when exhausted.
type sequenceSource struct {
	draws []float64
	next  int
}

func (s *sequenceSource) Float64() float64 {
	if s.next >= len(s.draws) {
		return s.draws[len(s.draws)-1]
	}
	d := s.draws[s.next]
	s.next++
	return d
}

func TestWinProbability(t *testing.T) {
	tests := []struct {
		name     string
		a, b     float64
		expected float64
	}{
		{name: "equal strengths", a: 100, b: 100, expected: 0.5},
		{name: "heavy favorite", a: 150, b: 50, expected: 0.9936543289204238},
		{name: "heavy underdog", a: 50, b: 150, expected: 1 - 0.9936543289204238},
		{name: "typical matchup", a: 130.54, b: 103.83, expected: 0.7413608881329063},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, WinProbability(tt.a, tt.b), 1e-12)
		})
	}
}

func TestWinProbability_Formula(t *testing.T) {
	a, b := 150.0, 50.0
	expected := math.Pow(a, 4.6) / (math.Pow(a, 4.6) + math.Pow(b, 4.6))
	assert.Equal(t, expected, WinProbability(a, b))
}

func TestWinProbability_Symmetric(t *testing.T) {
	rng := NewSource(42, 0)
	for i := 0; i < 1000; i++ {
		a := 1 + 200*rng.Float64()
		b := 1 + 200*rng.Float64()
		assert.InDelta(t, 1.0, WinProbability(a, b)+WinProbability(b, a), 1e-12, "a=%v b=%v", a, b)
		assert.InDelta(t, 0.5, WinProbability(a, a), 1e-15)
	}
}

func TestProbabilityTable_MatchesWinProbability(t *testing.T) {
	ppg := []float64{136.54, 128.98, 130.54, 126.68, 103.83}
	table := NewProbabilityTable(ppg)

	for i := range ppg {
		for j := range ppg {
			assert.Equal(t, WinProbability(ppg[i], ppg[j]), table.Get(i, j))
		}
	}
}

func TestNewSource_Deterministic(t *testing.T) {
	a, b := NewSource(7, 1), NewSource(7, 1)
	other := NewSource(7, 2)

	same := true
	for i := 0; i < 100; i++ {
		x, y, z := a.Float64(), b.Float64(), other.Float64()
		assert.Equal(t, x, y)
		if x != z {
			same = false
		}
	}
	assert.False(t, same, "different streams should not replay the same draws")
}

func TestHomeWins_BoundaryGoesHome(t *testing.T) {
	assert.True(t, homeWins(0.25, &sequenceSource{draws: []float64{0.25}}))
	assert.False(t, homeWins(0.25, &sequenceSource{draws: []float64{0.2500001}}))
	assert.True(t, homeWins(0.5, &sequenceSource{draws: []float64{0}}))
}
