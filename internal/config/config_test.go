package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 30*time.Second, cfg.PrepTime())
	assert.Equal(t, 5*time.Minute, cfg.DebateTime())
	assert.Equal(t, 45*time.Second, cfg.ForfeitWindow())
	assert.Equal(t, 100, cfg.Debate.RoutScore)
	assert.Equal(t, TieRuleFirstParticipant, cfg.Debate.TieRule)
	assert.Equal(t, 1500*time.Millisecond, cfg.MessagePoll())
	assert.Equal(t, "memory", cfg.Store.Driver)
}

func TestLoadAppliesYAMLOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
debate:
  duration_sec: 600
  forfeit_sec: 90
  tie_rule: DRAW
poll:
  messages_sec: 0.5
judge:
  model: mistral
store:
  driver: redis
  redis_addr: localhost:6379
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10*time.Minute, cfg.DebateTime())
	assert.Equal(t, 90*time.Second, cfg.ForfeitWindow())
	assert.Equal(t, TieRuleDraw, cfg.Debate.TieRule)
	assert.Equal(t, 500*time.Millisecond, cfg.MessagePoll())
	assert.Equal(t, "mistral", cfg.Judge.Model)
	assert.Equal(t, "redis", cfg.Store.Driver)

	// Untouched keys keep their defaults.
	assert.Equal(t, 30*time.Second, cfg.PrepTime())
	assert.Equal(t, 3, cfg.Judge.MaxAttempts)
}

func TestLoadAppliesEnvOverYAML(t *testing.T) {
	t.Setenv("DEBATE_DURATION_SEC", "120")
	t.Setenv("JUDGE_API_KEY", "secret")
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 2*time.Minute, cfg.DebateTime())
	assert.Equal(t, "secret", cfg.Judge.APIKey)
	assert.Equal(t, "memory", cfg.Store.Driver)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero duration", func(c *Config) { c.Debate.DurationSec = 0 }},
		{"negative prep", func(c *Config) { c.Debate.PrepSec = -1 }},
		{"zero forfeit window", func(c *Config) { c.Debate.ForfeitSec = 0 }},
		{"zero judge attempts", func(c *Config) { c.Judge.MaxAttempts = 0 }},
		{"bad tie rule", func(c *Config) { c.Debate.TieRule = "COIN_FLIP" }},
		{"bad store driver", func(c *Config) { c.Store.Driver = "cassandra" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
