package sleeper

import "fmt"

// League represents a Sleeper fantasy league
type League struct {
	LeagueID     string                 `json:"league_id"`
	Name         string                 `json:"name"`
	Status       string                 `json:"status"`
	Sport        string                 `json:"sport"`
	Season       string                 `json:"season"`
	Settings     LeagueSettings         `json:"settings"`
	Metadata     map[string]interface{} `json:"metadata"`
	TotalRosters int                    `json:"total_rosters"`
}

// DivisionName returns the commissioner-assigned name of a numbered
// division, stored by Sleeper as league metadata "division_<n>".
func (l *League) DivisionName(division int) (string, bool) {
	value, ok := l.Metadata[fmt.Sprintf("division_%d", division)]
	if !ok {
		return "", false
	}
	name, ok := value.(string)
	return name, ok && name != ""
}

// LeagueSettings contains league configuration
type LeagueSettings struct {
	PlayoffTeams     int `json:"playoff_teams"`
	PlayoffWeekStart int `json:"playoff_week_start"`
	NumTeams         int `json:"num_teams"`
	Divisions        int `json:"divisions"`
	StartWeek        int `json:"start_week"`
	LastScoredLeg    int `json:"last_scored_leg"`
	Leg              int `json:"leg"`
	// LeagueAverageMatch is 1 when every team also plays the weekly median.
	LeagueAverageMatch int `json:"league_average_match"`
}

// GamesPerWeek is the number of results a roster collects each week.
func (s LeagueSettings) GamesPerWeek() int {
	if s.LeagueAverageMatch > 0 {
		return 2
	}
	return 1
}

// User represents a Sleeper user
type User struct {
	UserID      string       `json:"user_id"`
	Username    string       `json:"username"`
	DisplayName string       `json:"display_name"`
	Metadata    UserMetadata `json:"metadata"`
}

// UserMetadata holds the league-specific profile fields of a user.
type UserMetadata struct {
	TeamName string `json:"team_name"`
}

// Roster represents a team's roster
type Roster struct {
	RosterID int            `json:"roster_id"`
	OwnerID  string         `json:"owner_id"`
	Settings RosterSettings `json:"settings"`
}

// RosterSettings contains team performance data
type RosterSettings struct {
	Wins               int     `json:"wins"`
	Losses             int     `json:"losses"`
	Ties               int     `json:"ties"`
	FPTS               float64 `json:"fpts"`
	FPTSDecimal        float64 `json:"fpts_decimal"`
	FPTSAgainst        float64 `json:"fpts_against"`
	FPTSAgainstDecimal float64 `json:"fpts_against_decimal"`
	Division           int     `json:"division,omitempty"`
}

// PointsFor returns the season scoring total. Sleeper splits it into whole
// points and hundredths.
func (s RosterSettings) PointsFor() float64 {
	return s.FPTS + s.FPTSDecimal/100
}

// GamesPlayed returns wins, losses and ties combined.
func (s RosterSettings) GamesPlayed() int {
	return s.Wins + s.Losses + s.Ties
}

// Matchup represents one roster's side of a weekly matchup. The two sides of
// a game share a MatchupID.
type Matchup struct {
	RosterID  int     `json:"roster_id"`
	MatchupID int     `json:"matchup_id"`
	Points    float64 `json:"points"`
}

// Sleeper error types
const (
	ErrTypeAPI         = "api_error"
	ErrTypeNotFound    = "not_found"
	ErrTypeUnavailable = "unavailable"
	ErrTypeInvalidData = "invalid_data"
)

// SleeperError represents an error from the Sleeper API
type SleeperError struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code,omitempty"`
	LeagueID   string `json:"league_id,omitempty"`
}

func (e *SleeperError) Error() string {
	return e.Message
}
