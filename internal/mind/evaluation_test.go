package mind

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampScore(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{-3, 1},
		{0, 1},
		{1, 1},
		{3.5, 3.5},
		{5, 5},
		{7.2, 5},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, clampScore(c.in))
	}
}

func TestEvaluateMotivationSetsScoreAndRationale(t *testing.T) {
	provider := &scriptedProvider{responses: []providerResponse{
		{text: "Here is my assessment:\n" + evaluationReply},
	}}
	e := newTestEngine(provider, &recordingTransport{}, DefaultParams())
	now := time.Now()
	cy := newCycle(e, Trigger{Kind: TriggerPeriodicTick, ContextID: "c1", OccurredAt: now})

	th := &Thought{ID: "t1", ContextID: "c1", Content: "ask about the interview"}
	ok := e.evaluateMotivation(cy, th, MemoryContext{}, now)

	require.True(t, ok)
	assert.Equal(t, 4.2, th.Score)
	assert.Equal(t, "natural moment to follow up", th.Rationale)
	assert.Equal(t, now, th.LastEvaluatedAt)
}

func TestEvaluateMotivationClampsHighScore(t *testing.T) {
	provider := &scriptedProvider{responses: []providerResponse{
		{text: `{"overall_score": 9.0, "reasoning": "very excited"}`},
	}}
	e := newTestEngine(provider, &recordingTransport{}, DefaultParams())
	cy := newCycle(e, Trigger{Kind: TriggerPeriodicTick, ContextID: "c1"})

	th := &Thought{ID: "t1", ContextID: "c1", Content: "x"}
	require.True(t, e.evaluateMotivation(cy, th, MemoryContext{}, time.Now()))
	assert.Equal(t, 5.0, th.Score)
}

func TestEvaluateMotivationProviderFailure(t *testing.T) {
	provider := &scriptedProvider{responses: []providerResponse{
		{err: errors.New("rate limited")},
	}}
	e := newTestEngine(provider, &recordingTransport{}, DefaultParams())
	cy := newCycle(e, Trigger{Kind: TriggerPeriodicTick, ContextID: "c1"})

	th := &Thought{ID: "t1", ContextID: "c1", Content: "x"}
	assert.False(t, e.evaluateMotivation(cy, th, MemoryContext{}, time.Now()))
	assert.Zero(t, th.Score)
}

func TestEvaluateMotivationGarbageOutput(t *testing.T) {
	provider := &scriptedProvider{responses: []providerResponse{
		{text: "I would rather not score this."},
	}}
	e := newTestEngine(provider, &recordingTransport{}, DefaultParams())
	cy := newCycle(e, Trigger{Kind: TriggerPeriodicTick, ContextID: "c1"})

	th := &Thought{ID: "t1", ContextID: "c1", Content: "x"}
	assert.False(t, e.evaluateMotivation(cy, th, MemoryContext{}, time.Now()))
}
