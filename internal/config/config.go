package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the runtime configuration shared by the server and the CLI.
type Config struct {
	Env       string `mapstructure:"ENV"`
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// Simulation
	NumSimulations        int           `mapstructure:"NUM_SIMULATIONS"`
	MaxSimulations        int           `mapstructure:"MAX_SIMULATIONS"`
	SimulationWorkers     int           `mapstructure:"SIMULATION_WORKERS"`
	SimulatePlayoffs      bool          `mapstructure:"SIMULATE_PLAYOFFS"`
	UseDivisionTiebreaker bool          `mapstructure:"USE_DIVISION_TIEBREAKER"`
	SimulationTimeout     time.Duration `mapstructure:"SIMULATION_TIMEOUT"`
	ProgressInterval      int           `mapstructure:"PROGRESS_INTERVAL"`
	ConfidenceLevel       float64       `mapstructure:"CONFIDENCE_LEVEL"`

	// Storage
	DatabasePath string        `mapstructure:"DATABASE_PATH"`
	RedisURL     string        `mapstructure:"REDIS_URL"`
	CacheTTL     time.Duration `mapstructure:"CACHE_TTL"`

	// Sleeper API
	SleeperBaseURL   string        `mapstructure:"SLEEPER_BASE_URL"`
	SleeperTimeout   time.Duration `mapstructure:"SLEEPER_TIMEOUT"`
	SleeperRateLimit int           `mapstructure:"SLEEPER_RATE_LIMIT"`

	LeagueSettingsPath string `mapstructure:"LEAGUE_SETTINGS_PATH"`
}

// SetDefaults registers every key with its default so AutomaticEnv and
// Unmarshal see the full key set.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")

	v.SetDefault("NUM_SIMULATIONS", 100000)
	v.SetDefault("MAX_SIMULATIONS", 2000000)
	v.SetDefault("SIMULATION_WORKERS", 0) // one per CPU
	v.SetDefault("SIMULATE_PLAYOFFS", false)
	v.SetDefault("USE_DIVISION_TIEBREAKER", false)
	v.SetDefault("SIMULATION_TIMEOUT", "5m")
	v.SetDefault("PROGRESS_INTERVAL", 100000)
	v.SetDefault("CONFIDENCE_LEVEL", 0.95)

	v.SetDefault("DATABASE_PATH", "playoff_odds.db") // empty disables persistence
	v.SetDefault("REDIS_URL", "")                    // empty uses the in-process cache
	v.SetDefault("CACHE_TTL", "1h")

	v.SetDefault("SLEEPER_BASE_URL", "https://api.sleeper.app/v1")
	v.SetDefault("SLEEPER_TIMEOUT", "10s")
	v.SetDefault("SLEEPER_RATE_LIMIT", 600) // requests per minute

	v.SetDefault("LEAGUE_SETTINGS_PATH", "")
}

// LoadConfig reads defaults, an optional .env file and the environment.
func LoadConfig() (*Config, error) {
	return Load(viper.New())
}

// Load fills a Config from v. Callers that bind flags onto v do so before
// calling Load.
func Load(v *viper.Viper) (*Config, error) {
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")

	SetDefaults(v)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate rejects settings the simulator cannot run with.
func (c *Config) Validate() error {
	if c.NumSimulations <= 0 {
		return fmt.Errorf("NUM_SIMULATIONS must be positive, got %d", c.NumSimulations)
	}
	if c.MaxSimulations <= 0 {
		return fmt.Errorf("MAX_SIMULATIONS must be positive, got %d", c.MaxSimulations)
	}
	if c.NumSimulations > c.MaxSimulations {
		return fmt.Errorf("NUM_SIMULATIONS (%d) exceeds MAX_SIMULATIONS (%d)", c.NumSimulations, c.MaxSimulations)
	}
	if c.SimulationWorkers < 0 {
		return fmt.Errorf("SIMULATION_WORKERS must not be negative, got %d", c.SimulationWorkers)
	}
	if c.ConfidenceLevel <= 0 || c.ConfidenceLevel >= 1 {
		return fmt.Errorf("CONFIDENCE_LEVEL must be between 0 and 1, got %v", c.ConfidenceLevel)
	}
	if c.SimulationTimeout <= 0 {
		return fmt.Errorf("SIMULATION_TIMEOUT must be positive, got %s", c.SimulationTimeout)
	}
	if c.SleeperRateLimit <= 0 {
		return fmt.Errorf("SLEEPER_RATE_LIMIT must be positive, got %d", c.SleeperRateLimit)
	}
	return nil
}

// IsDevelopment reports whether ENV is development.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
