package simulation

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultConfidenceLevel is used for interval estimates when callers do not
// ask for a specific level.
const DefaultConfidenceLevel = 0.95

// TeamStats holds one team's tallies for a batch.
type TeamStats struct {
	NumSeasons         int               `json:"num_seasons"`
	PlayoffAppearances int               `json:"playoff_appearances"`
	Rankings           [PlayoffTeams]int `json:"rankings"`
	Championships      int               `json:"championships"`
	RunnerUps          int               `json:"runner_ups"`
}

// SeedCount returns how often the team finished at the 1-based seed, or 0
// for a seed outside the playoff field.
func (s *TeamStats) SeedCount(seed int) int {
	if seed < 1 || seed > PlayoffTeams {
		return 0
	}
	return s.Rankings[seed-1]
}

// PlayoffProbability returns PlayoffAppearances / NumSeasons.
func (s *TeamStats) PlayoffProbability() float64 {
	if s.NumSeasons == 0 {
		return 0
	}
	return float64(s.PlayoffAppearances) / float64(s.NumSeasons)
}

// Results is the outcome of one batch.
type Results struct {
	RunID                 string                `json:"run_id"`
	NumSimulations        int                   `json:"num_simulations"`
	Seed                  uint64                `json:"seed"`
	Workers               int                   `json:"workers"`
	SimulatedPlayoffs     bool                  `json:"simulated_playoffs"`
	UseDivisionTiebreaker bool                  `json:"use_division_tiebreaker"`
	Duration              time.Duration         `json:"duration"`
	Teams                 map[string]*TeamStats `json:"teams"`
}

// TeamProbability is one entry of a probability map.
type TeamProbability struct {
	Team        string  `json:"team"`
	Probability float64 `json:"probability"`
}

// ProbabilityMap returns each team's playoff probability, highest first.
func (r *Results) ProbabilityMap() []TeamProbability {
	return GenerateProbabilityMap(r.Teams)
}

// GenerateProbabilityMap converts per-team stats into playoff probabilities
// sorted descending. Equal probabilities are ordered by name.
func GenerateProbabilityMap(stats map[string]*TeamStats) []TeamProbability {
	entries := make([]TeamProbability, 0, len(stats))
	for name, s := range stats {
		entries = append(entries, TeamProbability{Team: name, Probability: s.PlayoffProbability()})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Probability != entries[j].Probability {
			return entries[i].Probability > entries[j].Probability
		}
		return entries[i].Team < entries[j].Team
	})
	return entries
}

// ProbabilityByTeam returns playoff probabilities keyed by team name.
func (r *Results) ProbabilityByTeam() map[string]float64 {
	probabilities := make(map[string]float64, len(r.Teams))
	for name, s := range r.Teams {
		probabilities[name] = s.PlayoffProbability()
	}
	return probabilities
}

// PlayoffProbability returns the named team's playoff probability.
func (r *Results) PlayoffProbability(team string) (float64, error) {
	s, ok := r.Teams[team]
	if !ok {
		return 0, fmt.Errorf("no results for team %q", team)
	}
	return s.PlayoffProbability(), nil
}

// Interval is a two-sided confidence interval on a proportion.
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// TeamPercentages is the presentation form of TeamStats: every tally as a
// percentage of seasons simulated.
type TeamPercentages struct {
	Team             string                `json:"team"`
	Playoffs         float64               `json:"playoffs_pct"`
	PlayoffsInterval Interval              `json:"playoffs_interval"`
	Seeds            [PlayoffTeams]float64 `json:"seeds_pct"`
	FinalAppearance  float64               `json:"final_appearance_pct,omitempty"`
	Championship     float64               `json:"championship_pct,omitempty"`
	RunnerUp         float64               `json:"runner_up_pct,omitempty"`
}

// Percentages converts the batch into percentages, sorted by playoff odds.
// Each playoff percentage carries a Wilson score interval at the requested
// confidence level; levels outside (0, 1) fall back to
// DefaultConfidenceLevel.
func (r *Results) Percentages(confidence float64) []TeamPercentages {
	if confidence <= 0 || confidence >= 1 {
		confidence = DefaultConfidenceLevel
	}
	z := distuv.UnitNormal.Quantile(1 - (1-confidence)/2)

	ordered := r.ProbabilityMap()
	out := make([]TeamPercentages, len(ordered))
	for i, entry := range ordered {
		s := r.Teams[entry.Team]
		pct := TeamPercentages{
			Team:             entry.Team,
			Playoffs:         100 * entry.Probability,
			PlayoffsInterval: wilsonInterval(s.PlayoffAppearances, s.NumSeasons, z),
		}
		for k := range s.Rankings {
			pct.Seeds[k] = percent(s.Rankings[k], s.NumSeasons)
		}
		if r.SimulatedPlayoffs {
			pct.FinalAppearance = percent(s.Championships+s.RunnerUps, s.NumSeasons)
			pct.Championship = percent(s.Championships, s.NumSeasons)
			pct.RunnerUp = percent(s.RunnerUps, s.NumSeasons)
		}
		out[i] = pct
	}
	return out
}

func percent(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(count) / float64(total)
}

// wilsonInterval returns the Wilson score interval for successes out of n,
// in percent.
func wilsonInterval(successes, n int, z float64) Interval {
	if n == 0 {
		return Interval{}
	}
	total := float64(n)
	p := float64(successes) / total
	z2 := z * z
	denominator := 1 + z2/total
	center := (p + z2/(2*total)) / denominator
	margin := z * math.Sqrt(p*(1-p)/total+z2/(4*total*total)) / denominator
	return Interval{
		Lower: 100 * math.Max(0, center-margin),
		Upper: 100 * math.Min(1, center+margin),
	}
}
