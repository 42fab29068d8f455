package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "test-token")
	t.Setenv("OPENAI_API_KEY", "test-key")
}

func TestNewDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", cfg.LLMModel)
	assert.Equal(t, "Yui", cfg.AIName)
	assert.Equal(t, 3.5, cfg.MotivationThreshold)
	assert.Equal(t, 30*time.Second, cfg.ThoughtInterval())
	assert.Equal(t, 5*time.Minute, cfg.SilenceTimeout())
	assert.Equal(t, time.Minute, cfg.MinInterventionInterval())
	assert.Equal(t, 2, cfg.MaxConsecutiveInterventions)
	assert.Equal(t, 10, cfg.PoolCapacity)
	assert.Equal(t, 3, cfg.ReservationCap)
	assert.Equal(t, 20, cfg.ShortTermSize)
	assert.Equal(t, ConditionProactive, cfg.Condition)
}

func TestNewMissingToken(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")
	t.Setenv("OPENAI_API_KEY", "test-key")
	_, err := New()
	require.ErrorContains(t, err, "DISCORD_TOKEN")
}

func TestNewMissingAPIKey(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "test-token")
	t.Setenv("OPENAI_API_KEY", "")
	_, err := New()
	require.ErrorContains(t, err, "OPENAI_API_KEY")
}

func TestNewThresholdOutOfRange(t *testing.T) {
	setRequired(t)
	t.Setenv("MOTIVATION_THRESHOLD", "0.5")
	_, err := New()
	require.ErrorContains(t, err, "MOTIVATION_THRESHOLD")

	t.Setenv("MOTIVATION_THRESHOLD", "5.1")
	_, err = New()
	require.ErrorContains(t, err, "MOTIVATION_THRESHOLD")
}

func TestNewUnknownCondition(t *testing.T) {
	setRequired(t)
	t.Setenv("EXPERIMENT_CONDITION", "chaotic")
	_, err := New()
	require.ErrorContains(t, err, "EXPERIMENT_CONDITION")
}

func TestNewReactiveCondition(t *testing.T) {
	setRequired(t)
	t.Setenv("EXPERIMENT_CONDITION", "reactive")
	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, ConditionReactive, cfg.Condition)
}

func TestNewRejectsNonPositiveIntervals(t *testing.T) {
	setRequired(t)
	t.Setenv("THOUGHT_GENERATION_INTERVAL", "0")
	_, err := New()
	require.ErrorContains(t, err, "intervals")
}

func TestNewRejectsNonPositiveCapacities(t *testing.T) {
	setRequired(t)
	t.Setenv("THOUGHT_POOL_CAPACITY", "-1")
	_, err := New()
	require.ErrorContains(t, err, "capacities")
}
