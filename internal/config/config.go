// /internal/config/config.go
package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Experiment conditions. In the reactive condition the trigger manager
// registers no timers: only direct replies, no proactive speech path.
const (
	ConditionProactive = "proactive"
	ConditionReactive  = "reactive"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, falling back to system environment variables")
	}
}

type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN"`
	OpenAIKey    string `env:"OPENAI_API_KEY"`
	LLMModel     string `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`

	AIName    string `env:"AI_NAME" envDefault:"Yui"`
	AIPersona string `env:"AI_PERSONA" envDefault:"You are Yui, a warm and curious friend. You talk casually, keep replies short, and never lecture."`

	MotivationThreshold         float64 `env:"MOTIVATION_THRESHOLD" envDefault:"3.5"`
	ThoughtIntervalSec          int     `env:"THOUGHT_GENERATION_INTERVAL" envDefault:"30"`
	SilenceTimeoutSec           int     `env:"SILENCE_TIMEOUT" envDefault:"300"`
	MinInterventionIntervalSec  int     `env:"MIN_INTERVENTION_INTERVAL" envDefault:"60"`
	MaxConsecutiveInterventions int     `env:"MAX_CONSECUTIVE_INTERVENTIONS" envDefault:"2"`
	PoolCapacity                int     `env:"THOUGHT_POOL_CAPACITY" envDefault:"10"`
	ReservationCap              int     `env:"RESERVATION_CAP" envDefault:"3"`
	ShortTermSize               int     `env:"SHORT_TERM_MEMORY_SIZE" envDefault:"20"`
	Condition                   string  `env:"EXPERIMENT_CONDITION" envDefault:"proactive"`

	StoragePath  string `env:"STORAGE_PATH" envDefault:"data/memory.json"`
	LogDirectory string `env:"LOG_DIRECTORY" envDefault:"logs"`
}

// New parses configuration from the environment and validates it. Validation
// errors are fatal at startup only; nothing here runs in steady state.
func New() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DiscordToken == "" {
		return fmt.Errorf("DISCORD_TOKEN is not set")
	}
	if c.OpenAIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is not set")
	}
	if c.MotivationThreshold < 1 || c.MotivationThreshold > 5 {
		return fmt.Errorf("MOTIVATION_THRESHOLD %.2f outside [1,5]", c.MotivationThreshold)
	}
	if c.Condition != ConditionProactive && c.Condition != ConditionReactive {
		return fmt.Errorf("unknown EXPERIMENT_CONDITION %q", c.Condition)
	}
	if c.ThoughtIntervalSec <= 0 || c.SilenceTimeoutSec <= 0 {
		return fmt.Errorf("timer intervals must be positive")
	}
	if c.PoolCapacity <= 0 || c.ReservationCap <= 0 || c.ShortTermSize <= 0 {
		return fmt.Errorf("capacities must be positive")
	}
	if c.MaxConsecutiveInterventions < 1 {
		return fmt.Errorf("MAX_CONSECUTIVE_INTERVENTIONS must be at least 1")
	}
	return nil
}

func (c *Config) ThoughtInterval() time.Duration {
	return time.Duration(c.ThoughtIntervalSec) * time.Second
}

func (c *Config) SilenceTimeout() time.Duration {
	return time.Duration(c.SilenceTimeoutSec) * time.Second
}

func (c *Config) MinInterventionInterval() time.Duration {
	return time.Duration(c.MinInterventionIntervalSec) * time.Second
}
