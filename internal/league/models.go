package league

import (
	"fmt"
	"sort"
)

// Team is one league participant's season state.
//
// Records maps an opponent's name to the number of wins this team has
// recorded against that opponent. Every other team in the league must have
// an entry, zero when the team has never beaten them.
type Team struct {
	Name               string         `json:"name"`
	Wins               int            `json:"wins"`
	Losses             int            `json:"losses"`
	TotalPoints        float64        `json:"totalPoints"`
	ProjectedFuturePPG float64        `json:"projectedFuturePPG"`
	Division           string         `json:"division"`
	Records            map[string]int `json:"records"`
}

// Clone returns a deep copy of the team.
func (t *Team) Clone() *Team {
	clone := *t
	clone.Records = make(map[string]int, len(t.Records))
	for opponent, wins := range t.Records {
		clone.Records[opponent] = wins
	}
	return &clone
}

// DivisionWins returns the wins this team has recorded against the given
// division mates, excluding itself.
func (t *Team) DivisionWins(teams []*Team) int {
	total := 0
	for _, other := range teams {
		if other.Name == t.Name || other.Division != t.Division {
			continue
		}
		total += t.Records[other.Name]
	}
	return total
}

// Game is one scheduled matchup. Week is informational for the simulator;
// it is only used to select games.
type Game struct {
	Home string `json:"home"`
	Away string `json:"away"`
	Week int    `json:"week"`
}

func (g Game) String() string {
	return fmt.Sprintf("week %d: %s vs. %s", g.Week, g.Home, g.Away)
}

// Involves reports whether the named team plays in the game.
func (g Game) Involves(name string) bool {
	return g.Home == name || g.Away == name
}

// Snapshot is the simulator's input: every team keyed by name plus the
// remaining schedule in order. SeasonGames, when set, is the regular season
// length each team's record and remaining games must fit in.
type Snapshot struct {
	Teams       map[string]*Team `json:"teams"`
	Schedule    []Game           `json:"schedule"`
	SeasonGames int              `json:"seasonGames,omitempty"`
}

// NewSnapshot builds a snapshot from a team list, zero-filling records.
func NewSnapshot(teams []*Team, schedule []Game) *Snapshot {
	s := &Snapshot{
		Teams:    make(map[string]*Team, len(teams)),
		Schedule: append([]Game(nil), schedule...),
	}
	for _, team := range teams {
		s.Teams[team.Name] = team
	}
	s.FillRecords()
	return s
}

// FillRecords adds a zero entry for every missing opponent in every team's
// records. Nil teams are left for Validate to report.
func (s *Snapshot) FillRecords() {
	for name, team := range s.Teams {
		if team == nil {
			continue
		}
		if team.Records == nil {
			team.Records = make(map[string]int, len(s.Teams)-1)
		}
		for opponent := range s.Teams {
			if opponent == name {
				continue
			}
			if _, ok := team.Records[opponent]; !ok {
				team.Records[opponent] = 0
			}
		}
	}
}

// TeamNames returns the team names in sorted order. Sorted order is the
// canonical team order everywhere in the simulator.
func (s *Snapshot) TeamNames() []string {
	names := make([]string, 0, len(s.Teams))
	for name := range s.Teams {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OrderedTeams returns the teams in canonical order.
func (s *Snapshot) OrderedTeams() []*Team {
	names := s.TeamNames()
	teams := make([]*Team, len(names))
	for i, name := range names {
		teams[i] = s.Teams[name]
	}
	return teams
}

// Clone deep-copies the snapshot so mutations never leak into the original.
func (s *Snapshot) Clone() *Snapshot {
	clone := &Snapshot{
		Teams:       make(map[string]*Team, len(s.Teams)),
		Schedule:    append([]Game(nil), s.Schedule...),
		SeasonGames: s.SeasonGames,
	}
	for name, team := range s.Teams {
		if team == nil {
			clone.Teams[name] = nil
			continue
		}
		clone.Teams[name] = team.Clone()
	}
	return clone
}

// RemainingGames returns the scheduled games involving the named team.
func (s *Snapshot) RemainingGames(name string) []Game {
	var games []Game
	for _, game := range s.Schedule {
		if game.Involves(name) {
			games = append(games, game)
		}
	}
	return games
}

// GamesInWeek returns the scheduled games for one week.
func (s *Snapshot) GamesInWeek(week int) []Game {
	var games []Game
	for _, game := range s.Schedule {
		if game.Week == week {
			games = append(games, game)
		}
	}
	return games
}

// FirstWeek returns the earliest week left on the schedule, or 0 when the
// schedule is empty.
func (s *Snapshot) FirstWeek() int {
	first := 0
	for _, game := range s.Schedule {
		if first == 0 || game.Week < first {
			first = game.Week
		}
	}
	return first
}

// WithResult returns a copy of the snapshot where the given game has been
// decided and removed from the schedule.
func (s *Snapshot) WithResult(game Game, homeWins bool) (*Snapshot, error) {
	index := -1
	for i, scheduled := range s.Schedule {
		if scheduled == game {
			index = i
			break
		}
	}
	if index < 0 {
		return nil, &ValidationError{
			Type:    ErrGameNotFound,
			Message: fmt.Sprintf("game not on schedule: %s", game),
			Game:    &game,
		}
	}

	clone := s.Clone()
	clone.Schedule = append(clone.Schedule[:index:index], clone.Schedule[index+1:]...)

	home, away := clone.Teams[game.Home], clone.Teams[game.Away]
	if home == nil || away == nil {
		return nil, &ValidationError{
			Type:    ErrUnknownTeam,
			Message: fmt.Sprintf("game references unknown team: %s", game),
			Game:    &game,
		}
	}
	if homeWins {
		RecordWin(home, away)
	} else {
		RecordWin(away, home)
	}
	return clone, nil
}

// RecordWin applies one head-to-head result.
func RecordWin(winner, loser *Team) {
	winner.Wins++
	loser.Losses++
	winner.Records[loser.Name]++
}
