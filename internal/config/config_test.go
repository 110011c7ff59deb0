package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 100000, cfg.NumSimulations)
	assert.Equal(t, 2000000, cfg.MaxSimulations)
	assert.Equal(t, 0, cfg.SimulationWorkers)
	assert.False(t, cfg.SimulatePlayoffs)
	assert.False(t, cfg.UseDivisionTiebreaker)
	assert.Equal(t, 5*time.Minute, cfg.SimulationTimeout)
	assert.Equal(t, 0.95, cfg.ConfidenceLevel)
	assert.Equal(t, "playoff_odds.db", cfg.DatabasePath)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.Equal(t, "https://api.sleeper.app/v1", cfg.SleeperBaseURL)
	assert.Equal(t, 10*time.Second, cfg.SleeperTimeout)
	assert.Equal(t, 600, cfg.SleeperRateLimit)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadConfig_Environment(t *testing.T) {
	t.Setenv("NUM_SIMULATIONS", "5000")
	t.Setenv("SIMULATE_PLAYOFFS", "true")
	t.Setenv("USE_DIVISION_TIEBREAKER", "true")
	t.Setenv("SIMULATION_TIMEOUT", "30s")
	t.Setenv("REDIS_URL", "redis://localhost:6379/2")
	t.Setenv("ENV", "production")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.NumSimulations)
	assert.True(t, cfg.SimulatePlayoffs)
	assert.True(t, cfg.UseDivisionTiebreaker)
	assert.Equal(t, 30*time.Second, cfg.SimulationTimeout)
	assert.Equal(t, "redis://localhost:6379/2", cfg.RedisURL)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoad_ExplicitValuesBeatDefaults(t *testing.T) {
	v := viper.New()
	v.Set("NUM_SIMULATIONS", 250)
	v.Set("SIMULATION_WORKERS", 2)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.NumSimulations)
	assert.Equal(t, 2, cfg.SimulationWorkers)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "zero simulations", key: "NUM_SIMULATIONS", value: "0"},
		{name: "above maximum", key: "NUM_SIMULATIONS", value: "3000000"},
		{name: "negative workers", key: "SIMULATION_WORKERS", value: "-1"},
		{name: "confidence of one", key: "CONFIDENCE_LEVEL", value: "1"},
		{name: "zero timeout", key: "SIMULATION_TIMEOUT", value: "0s"},
		{name: "zero rate limit", key: "SLEEPER_RATE_LIMIT", value: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestLoadLeagueSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "league_settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"leagues": {
			"123": {
				"name": "Dynasty",
				"simulation": {"use_division_tiebreaker": true, "num_simulations": 50000},
				"projected_ppg": {"Brandon": 131.5},
				"team_names": {"1": "Brandon"},
				"divisions": {"1": "East", "2": "West"}
			}
		},
		"default_settings": {"name": "Fallback"}
	}`), 0o644))

	leagues, err := LoadLeagueSettings(path)
	require.NoError(t, err)

	settings := leagues.GetLeagueSettings("123")
	assert.Equal(t, "Dynasty", settings.Name)
	name, ok := settings.TeamName(1)
	assert.True(t, ok)
	assert.Equal(t, "Brandon", name)
	_, ok = settings.TeamName(2)
	assert.False(t, ok)
	division, ok := settings.DivisionName(2)
	assert.True(t, ok)
	assert.Equal(t, "West", division)
	ppg, ok := settings.ProjectedPPGFor("Brandon")
	assert.True(t, ok)
	assert.Equal(t, 131.5, ppg)

	cfg := &Config{NumSimulations: 100000, SimulatePlayoffs: true}
	n, playoffs, division2 := settings.SimulationDefaults(cfg)
	assert.Equal(t, 50000, n)
	assert.True(t, playoffs)
	assert.True(t, division2)

	assert.Equal(t, "Fallback", leagues.GetLeagueSettings("999").Name)
}

func TestLoadLeagueSettings_Errors(t *testing.T) {
	_, err := LoadLeagueSettings(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"leagues": {"1": {"projected_ppg": {"Zach": -4}}}}`), 0o644))
	_, err = LoadLeagueSettings(bad)
	assert.Error(t, err)

	garbage := filepath.Join(dir, "garbage.json")
	require.NoError(t, os.WriteFile(garbage, []byte(`{`), 0o644))
	_, err = LoadLeagueSettings(garbage)
	assert.Error(t, err)
}

func TestLoadLeagueSettings_DefaultWhenAbsent(t *testing.T) {
	leagues, err := LoadLeagueSettings("")
	require.NoError(t, err)
	assert.Equal(t, "Default League", leagues.GetLeagueSettings("anything").Name)
}
