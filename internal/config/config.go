// Package config loads turnforge settings from a YAML file and TURNFORGE_ environment
// variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

// EnvPrefix prefixes every environment override, e.g. TURNFORGE_LLM_API_KEY.
const EnvPrefix = "TURNFORGE"

// Config is the full application configuration.
type Config struct {
	Logging    LoggingConfig    `mapstructure:"logging"`
	Runner     RunnerConfig     `mapstructure:"runner"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Replay     ReplayConfig     `mapstructure:"replay"`
	Tournament TournamentConfig `mapstructure:"tournament"`
	Game       GameConfig       `mapstructure:"game"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type RunnerConfig struct {
	MaxInvalidDecisions int           `mapstructure:"max_invalid_decisions"`
	DecisionTimeout     time.Duration `mapstructure:"decision_timeout"`
	// TimeoutPolicy is "invalid" or "default".
	TimeoutPolicy       string `mapstructure:"timeout_policy"`
	HistoryPromptRounds int    `mapstructure:"history_prompt_rounds"`
}

type LLMConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Temperature float32 `mapstructure:"temperature"`
}

type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
}

type ReplayConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Directory string `mapstructure:"directory"`
}

type TournamentConfig struct {
	Games       int `mapstructure:"games"`
	Parallelism int `mapstructure:"parallelism"`
}

type GameConfig struct {
	Name string `mapstructure:"name"`
	// Seats lists the agent kind of each seat in order: human, llm or random.
	Seats   []string       `mapstructure:"seats"`
	Options map[string]any `mapstructure:"options"`
	Seed    int64          `mapstructure:"seed"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("runner.max_invalid_decisions", 3)
	v.SetDefault("runner.decision_timeout", "0s")
	v.SetDefault("runner.timeout_policy", "invalid")
	v.SetDefault("runner.history_prompt_rounds", 3)

	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gemini-2.5-flash")
	v.SetDefault("llm.temperature", 0.7)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 4)

	v.SetDefault("replay.enabled", false)
	v.SetDefault("replay.directory", "replays")

	v.SetDefault("tournament.games", 1)
	v.SetDefault("tournament.parallelism", 1)

	v.SetDefault("game.name", "tictactoe")
	v.SetDefault("game.seats", []string{})
	v.SetDefault("game.seed", 0)
}

// Load reads path if it is non-empty, then applies environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings no component could run with.
func (c *Config) Validate() error {
	var err error
	if c.Runner.MaxInvalidDecisions < 0 {
		err = multierr.Append(err, fmt.Errorf("runner.max_invalid_decisions must not be negative"))
	}
	if c.Runner.DecisionTimeout < 0 {
		err = multierr.Append(err, fmt.Errorf("runner.decision_timeout must not be negative"))
	}
	switch strings.ToLower(c.Runner.TimeoutPolicy) {
	case "", "invalid", "default":
	default:
		err = multierr.Append(err, fmt.Errorf("runner.timeout_policy must be invalid or default, got %q", c.Runner.TimeoutPolicy))
	}
	if c.Database.Enabled && c.Database.URL == "" {
		err = multierr.Append(err, fmt.Errorf("database.url is required when the database is enabled"))
	}
	if c.Tournament.Games < 1 {
		err = multierr.Append(err, fmt.Errorf("tournament.games must be at least 1"))
	}
	if c.Game.Name == "" {
		err = multierr.Append(err, fmt.Errorf("game.name is required"))
	}
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
