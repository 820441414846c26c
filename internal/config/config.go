package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// TieRule decides the winner when both totals are equal.
type TieRule string

const (
	TieRuleFirstParticipant  TieRule = "FIRST_PARTICIPANT"
	TieRuleSecondParticipant TieRule = "SECOND_PARTICIPANT"
	TieRuleDraw              TieRule = "DRAW"
)

// Config holds every tunable of the session engine. Durations are expressed
// in seconds in the YAML file.
type Config struct {
	Debate struct {
		PrepSec         int     `yaml:"prep_sec"`
		DurationSec     int     `yaml:"duration_sec"`
		ForfeitSec      int     `yaml:"forfeit_sec"`
		RoutScore       int     `yaml:"rout_score"`
		TieRule         TieRule `yaml:"tie_rule"`
		PersistEverySec int     `yaml:"persist_every_sec"`
	} `yaml:"debate"`

	Poll struct {
		MessagesSec float64 `yaml:"messages_sec"`
		TurnSec     float64 `yaml:"turn_sec"`
		StatusSec   float64 `yaml:"status_sec"`
	} `yaml:"poll"`

	Judge struct {
		BaseURL     string  `yaml:"base_url"`
		Model       string  `yaml:"model"`
		APIKey      string  `yaml:"-"`
		MaxAttempts int     `yaml:"max_attempts"`
		BackoffSec  float64 `yaml:"backoff_sec"`
		TimeoutSec  int     `yaml:"timeout_sec"`
		Stream      bool    `yaml:"stream"`
	} `yaml:"judge"`

	Store struct {
		Driver      string `yaml:"driver"` // memory | supabase | postgres | redis
		SupabaseURL string `yaml:"supabase_url"`
		SupabaseKey string `yaml:"-"`
		PostgresDSN string `yaml:"postgres_dsn"`
		RedisAddr   string `yaml:"redis_addr"`
		NATSURL     string `yaml:"nats_url"`
	} `yaml:"store"`

	Gateway struct {
		Enabled bool   `yaml:"enabled"`
		Port    string `yaml:"port"`
	} `yaml:"gateway"`
}

// Default returns the engine defaults.
func Default() *Config {
	cfg := &Config{}
	cfg.Debate.PrepSec = 30
	cfg.Debate.DurationSec = 300
	cfg.Debate.ForfeitSec = 45
	cfg.Debate.RoutScore = 100
	cfg.Debate.TieRule = TieRuleFirstParticipant
	cfg.Debate.PersistEverySec = 10
	cfg.Poll.MessagesSec = 1.5
	cfg.Poll.TurnSec = 1.0
	cfg.Poll.StatusSec = 2.0
	cfg.Judge.BaseURL = "http://localhost:11434/v1"
	cfg.Judge.Model = "llama3.1:8b"
	cfg.Judge.MaxAttempts = 3
	cfg.Judge.BackoffSec = 1.0
	cfg.Judge.TimeoutSec = 60
	cfg.Judge.Stream = true
	cfg.Store.Driver = "memory"
	cfg.Gateway.Enabled = false
	cfg.Gateway.Port = "8080"
	return cfg
}

// Load reads the YAML config at path (optional) and applies environment
// overrides on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Judge.APIKey = getEnv("JUDGE_API_KEY", c.Judge.APIKey)
	c.Judge.BaseURL = getEnv("JUDGE_BASE_URL", c.Judge.BaseURL)
	c.Judge.Model = getEnv("JUDGE_MODEL", c.Judge.Model)
	c.Store.Driver = getEnv("STORE_DRIVER", c.Store.Driver)
	c.Store.SupabaseURL = getEnv("SUPABASE_URL", c.Store.SupabaseURL)
	c.Store.SupabaseKey = getEnv("SUPABASE_ANON_KEY", c.Store.SupabaseKey)
	c.Store.PostgresDSN = getEnv("POSTGRES_DSN", c.Store.PostgresDSN)
	c.Store.RedisAddr = getEnv("REDIS_ADDR", c.Store.RedisAddr)
	c.Store.NATSURL = getEnv("NATS_URL", c.Store.NATSURL)
	c.Gateway.Port = getEnv("PORT", c.Gateway.Port)
	c.Debate.DurationSec = getEnvAsInt("DEBATE_DURATION_SEC", c.Debate.DurationSec)
	c.Debate.PrepSec = getEnvAsInt("DEBATE_PREP_SEC", c.Debate.PrepSec)
	c.Debate.ForfeitSec = getEnvAsInt("DEBATE_FORFEIT_SEC", c.Debate.ForfeitSec)
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.Debate.DurationSec <= 0 {
		return fmt.Errorf("debate duration must be positive, got %d", c.Debate.DurationSec)
	}
	if c.Debate.PrepSec < 0 {
		return fmt.Errorf("prep time must be non-negative, got %d", c.Debate.PrepSec)
	}
	if c.Debate.ForfeitSec <= 0 {
		return fmt.Errorf("forfeit window must be positive, got %d", c.Debate.ForfeitSec)
	}
	if c.Judge.MaxAttempts < 1 {
		return fmt.Errorf("judge max attempts must be at least 1, got %d", c.Judge.MaxAttempts)
	}
	switch c.Debate.TieRule {
	case TieRuleFirstParticipant, TieRuleSecondParticipant, TieRuleDraw:
	default:
		return fmt.Errorf("unknown tie rule %q", c.Debate.TieRule)
	}
	switch c.Store.Driver {
	case "memory", "supabase", "postgres", "redis":
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	return nil
}

// Convenience duration accessors.

func (c *Config) PrepTime() time.Duration    { return time.Duration(c.Debate.PrepSec) * time.Second }
func (c *Config) DebateTime() time.Duration  { return time.Duration(c.Debate.DurationSec) * time.Second }
func (c *Config) ForfeitWindow() time.Duration {
	return time.Duration(c.Debate.ForfeitSec) * time.Second
}
func (c *Config) PersistEvery() time.Duration {
	return time.Duration(c.Debate.PersistEverySec) * time.Second
}
func (c *Config) MessagePoll() time.Duration { return secs(c.Poll.MessagesSec) }
func (c *Config) TurnPoll() time.Duration    { return secs(c.Poll.TurnSec) }
func (c *Config) StatusPoll() time.Duration  { return secs(c.Poll.StatusSec) }
func (c *Config) JudgeBackoff() time.Duration { return secs(c.Judge.BackoffSec) }
func (c *Config) JudgeTimeout() time.Duration {
	return time.Duration(c.Judge.TimeoutSec) * time.Second
}

func secs(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
