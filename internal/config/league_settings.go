package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// LeagueSettings holds the per-league adjustments a commissioner can make
// without touching the Sleeper league itself.
type LeagueSettings struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Simulation  SimulationSettings `json:"simulation"`

	// ProjectedPPG overrides the strength estimate, keyed by team name.
	ProjectedPPG map[string]float64 `json:"projected_ppg,omitempty"`
	// TeamNames overrides display names, keyed by Sleeper roster ID.
	TeamNames map[string]string `json:"team_names,omitempty"`
	// Divisions names Sleeper's numbered divisions.
	Divisions map[string]string `json:"divisions,omitempty"`
}

// SimulationSettings are per-league simulation defaults. Unset fields fall
// back to the runtime configuration.
type SimulationSettings struct {
	UseDivisionTiebreaker *bool `json:"use_division_tiebreaker,omitempty"`
	SimulatePlayoffs      *bool `json:"simulate_playoffs,omitempty"`
	NumSimulations        int   `json:"num_simulations,omitempty"`
}

// LeagueConfig represents the entire league configuration file
type LeagueConfig struct {
	Instructions    string                    `json:"_instructions,omitempty"`
	Leagues         map[string]LeagueSettings `json:"leagues"`
	DefaultSettings LeagueSettings            `json:"default_settings"`
}

var defaultSettingsPaths = []string{
	"configs/league_settings.json",
	"../configs/league_settings.json",
	"../../configs/league_settings.json",
}

// LoadLeagueSettings loads league configuration. An explicit path must
// exist; without one the usual locations relative to the working directory
// are tried and a default configuration is returned when none is found.
func LoadLeagueSettings(path string) (*LeagueConfig, error) {
	configPaths := defaultSettingsPaths
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("league settings not found at %s: %w", path, err)
		}
		configPaths = []string{path}
	}

	var configData []byte
	var foundPath string

	for _, path := range configPaths {
		if _, err := os.Stat(path); err == nil {
			var readErr error
			configData, readErr = os.ReadFile(path)
			if readErr == nil {
				foundPath = path
				break
			}
		}
	}

	if foundPath == "" {
		return DefaultLeagueConfig(), nil
	}

	var config LeagueConfig
	if err := json.Unmarshal(configData, &config); err != nil {
		return nil, fmt.Errorf("failed to parse league settings from %s: %w", foundPath, err)
	}
	if config.Leagues == nil {
		config.Leagues = make(map[string]LeagueSettings)
	}

	for leagueID, settings := range config.Leagues {
		if err := settings.Validate(); err != nil {
			return nil, fmt.Errorf("invalid settings for league %s in %s: %w", leagueID, foundPath, err)
		}
	}
	if err := config.DefaultSettings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid default settings in %s: %w", foundPath, err)
	}

	return &config, nil
}

// DefaultLeagueConfig is used when no settings file exists.
func DefaultLeagueConfig() *LeagueConfig {
	return &LeagueConfig{
		Leagues: make(map[string]LeagueSettings),
		DefaultSettings: LeagueSettings{
			Name:        "Default League",
			Description: "Sleeper names and divisions, strength from season scoring average",
		},
	}
}

// GetLeagueSettings returns settings for a specific league ID
func (c *LeagueConfig) GetLeagueSettings(leagueID string) LeagueSettings {
	if settings, exists := c.Leagues[leagueID]; exists {
		return settings
	}

	// Return default settings if league not found
	return c.DefaultSettings
}

// Validate checks the overrides for values the simulator would reject.
func (s LeagueSettings) Validate() error {
	for team, ppg := range s.ProjectedPPG {
		if !(ppg > 0) {
			return fmt.Errorf("projected PPG for %s must be positive, got %v", team, ppg)
		}
	}
	for rosterID := range s.TeamNames {
		if _, err := strconv.Atoi(rosterID); err != nil {
			return fmt.Errorf("team name key %q is not a roster ID", rosterID)
		}
	}
	for division := range s.Divisions {
		if _, err := strconv.Atoi(division); err != nil {
			return fmt.Errorf("division key %q is not a division number", division)
		}
	}
	if s.Simulation.NumSimulations < 0 {
		return fmt.Errorf("num_simulations must not be negative, got %d", s.Simulation.NumSimulations)
	}
	return nil
}

// TeamName returns the configured name for a roster.
func (s LeagueSettings) TeamName(rosterID int) (string, bool) {
	name, ok := s.TeamNames[strconv.Itoa(rosterID)]
	return name, ok && name != ""
}

// DivisionName returns the configured name for a division number.
func (s LeagueSettings) DivisionName(division int) (string, bool) {
	name, ok := s.Divisions[strconv.Itoa(division)]
	return name, ok && name != ""
}

// ProjectedPPGFor returns the configured strength for a team.
func (s LeagueSettings) ProjectedPPGFor(team string) (float64, bool) {
	ppg, ok := s.ProjectedPPG[team]
	return ppg, ok
}

// SimulationDefaults resolves this league's simulation settings against the
// runtime configuration.
func (s LeagueSettings) SimulationDefaults(cfg *Config) (numSimulations int, simulatePlayoffs, useDivisionTiebreaker bool) {
	numSimulations = cfg.NumSimulations
	if s.Simulation.NumSimulations > 0 {
		numSimulations = s.Simulation.NumSimulations
	}
	simulatePlayoffs = cfg.SimulatePlayoffs
	if s.Simulation.SimulatePlayoffs != nil {
		simulatePlayoffs = *s.Simulation.SimulatePlayoffs
	}
	useDivisionTiebreaker = cfg.UseDivisionTiebreaker
	if s.Simulation.UseDivisionTiebreaker != nil {
		useDivisionTiebreaker = *s.Simulation.UseDivisionTiebreaker
	}
	return numSimulations, simulatePlayoffs, useDivisionTiebreaker
}
