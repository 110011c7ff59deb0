package league

import "fmt"

// Validation error types
const (
	ErrUnknownTeam     = "unknown_team"
	ErrInvalidStrength = "invalid_strength"
	ErrMissingRecord   = "missing_record"
	ErrDuplicateTeam   = "duplicate_team"
	ErrGameNotFound    = "game_not_found"
	ErrSelfGame        = "self_game"
	ErrTooFewTeams     = "too_few_teams"
	ErrNegativeRecord  = "negative_record"
	ErrRecordTooLong   = "record_exceeds_season"
)

// ValidationError is a precondition violation in simulator input. It carries
// enough context to find the offending team or game in the source data.
type ValidationError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Team    string `json:"team,omitempty"`
	Game    *Game  `json:"game,omitempty"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validate checks every precondition the simulator relies on. The first
// violation found is returned. The season length check only runs when
// SeasonGames is set.
func (s *Snapshot) Validate() error {
	if len(s.Teams) < 2 {
		return &ValidationError{
			Type:    ErrTooFewTeams,
			Message: fmt.Sprintf("a league needs at least 2 teams, got %d", len(s.Teams)),
		}
	}

	for _, name := range s.TeamNames() {
		team := s.Teams[name]
		if team == nil {
			return &ValidationError{
				Type:    ErrUnknownTeam,
				Message: fmt.Sprintf("team %q has no data", name),
				Team:    name,
			}
		}
		if team.Name != name {
			return &ValidationError{
				Type:    ErrDuplicateTeam,
				Message: fmt.Sprintf("team keyed as %q is named %q", name, team.Name),
				Team:    name,
			}
		}
		if !(team.ProjectedFuturePPG > 0) {
			return &ValidationError{
				Type:    ErrInvalidStrength,
				Message: fmt.Sprintf("team %s has non-positive projected PPG %v", name, team.ProjectedFuturePPG),
				Team:    name,
			}
		}
		if team.Wins < 0 || team.Losses < 0 {
			return &ValidationError{
				Type:    ErrNegativeRecord,
				Message: fmt.Sprintf("team %s has a negative record %d-%d", name, team.Wins, team.Losses),
				Team:    name,
			}
		}
		if s.SeasonGames > 0 {
			if played := team.Wins + team.Losses + len(s.RemainingGames(name)); played > s.SeasonGames {
				return &ValidationError{
					Type:    ErrRecordTooLong,
					Message: fmt.Sprintf("team %s is %d-%d with %d games left in a %d game season", name, team.Wins, team.Losses, played-team.Wins-team.Losses, s.SeasonGames),
					Team:    name,
				}
			}
		}
		for opponent := range s.Teams {
			if opponent == name {
				continue
			}
			wins, ok := team.Records[opponent]
			if !ok {
				return &ValidationError{
					Type:    ErrMissingRecord,
					Message: fmt.Sprintf("team %s has no head-to-head record against %s", name, opponent),
					Team:    name,
				}
			}
			if wins < 0 {
				return &ValidationError{
					Type:    ErrNegativeRecord,
					Message: fmt.Sprintf("team %s has %d wins against %s", name, wins, opponent),
					Team:    name,
				}
			}
		}
	}

	for i := range s.Schedule {
		game := s.Schedule[i]
		if _, ok := s.Teams[game.Home]; !ok {
			return &ValidationError{
				Type:    ErrUnknownTeam,
				Message: fmt.Sprintf("game %d (%s) references unknown home team %q", i, game, game.Home),
				Team:    game.Home,
				Game:    &game,
			}
		}
		if _, ok := s.Teams[game.Away]; !ok {
			return &ValidationError{
				Type:    ErrUnknownTeam,
				Message: fmt.Sprintf("game %d (%s) references unknown away team %q", i, game, game.Away),
				Team:    game.Away,
				Game:    &game,
			}
		}
		if game.Home == game.Away {
			return &ValidationError{
				Type:    ErrSelfGame,
				Message: fmt.Sprintf("game %d (%s) matches a team against itself", i, game),
				Team:    game.Home,
				Game:    &game,
			}
		}
	}

	return nil
}
