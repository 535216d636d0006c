package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "turnforge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 3, cfg.Runner.MaxInvalidDecisions)
	assert.Equal(t, time.Duration(0), cfg.Runner.DecisionTimeout)
	assert.Equal(t, "invalid", cfg.Runner.TimeoutPolicy)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.Model)
	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, int32(4), cfg.Database.MaxConns)
	assert.Equal(t, 1, cfg.Tournament.Games)
	assert.Equal(t, "tictactoe", cfg.Game.Name)
	assert.Empty(t, cfg.Game.Seats)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: debug
  format: json
runner:
  max_invalid_decisions: 5
  decision_timeout: 30s
  timeout_policy: default
llm:
  model: gemini-2.5-pro
  temperature: 0.2
tournament:
  games: 10
  parallelism: 4
game:
  name: nim
  seats: [llm, random]
  seed: 42
  options:
    piles: [3, 4, 5]
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 5, cfg.Runner.MaxInvalidDecisions)
	assert.Equal(t, 30*time.Second, cfg.Runner.DecisionTimeout)
	assert.Equal(t, "default", cfg.Runner.TimeoutPolicy)
	assert.InDelta(t, 0.2, cfg.LLM.Temperature, 1e-6)
	assert.Equal(t, 10, cfg.Tournament.Games)
	assert.Equal(t, 4, cfg.Tournament.Parallelism)
	assert.Equal(t, "nim", cfg.Game.Name)
	assert.Equal(t, []string{"llm", "random"}, cfg.Game.Seats)
	assert.Equal(t, int64(42), cfg.Game.Seed)
	assert.Equal(t, []any{3, 4, 5}, cfg.Game.Options["piles"])
	assert.Equal(t, "replays", cfg.Replay.Directory, "unset keys keep defaults")
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("TURNFORGE_RUNNER_MAX_INVALID_DECISIONS", "7")
	t.Setenv("TURNFORGE_LLM_API_KEY", "secret")
	path := writeConfig(t, "runner:\n  max_invalid_decisions: 5\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Runner.MaxInvalidDecisions)
	assert.Equal(t, "secret", cfg.LLM.APIKey)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "runner: [not, a, map"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	cfg.Runner.MaxInvalidDecisions = -1
	cfg.Runner.TimeoutPolicy = "ignore"
	cfg.Database.Enabled = true
	cfg.Tournament.Games = 0
	cfg.Game.Name = ""

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
	assert.Contains(t, err.Error(), "runner.timeout_policy")
	assert.Len(t, multierr.Errors(errors.Unwrap(err)), 5)
}

