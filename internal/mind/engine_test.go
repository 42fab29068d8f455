package mind

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"proactive-friend/internal/ai"
)

type providerResponse struct {
	text string
	err  error
}

// scriptedProvider replays canned responses; the last one repeats.
type scriptedProvider struct {
	mu        sync.Mutex
	responses []providerResponse
	calls     int
	prompts   []string
}

func (p *scriptedProvider) Generate(_ context.Context, msgs []ai.Message) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompts = append(p.prompts, msgs[len(msgs)-1].Content)
	if len(p.responses) == 0 {
		return "", errors.New("no response configured")
	}
	idx := p.calls
	if idx >= len(p.responses) {
		idx = len(p.responses) - 1
	}
	p.calls++
	r := p.responses[idx]
	return r.text, r.err
}

type recordingTransport struct {
	mu        sync.Mutex
	sent      []string
	reactions []string
}

func (t *recordingTransport) Send(_, text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = append(t.sent, text)
	return nil
}

func (t *recordingTransport) React(_, _, emoji string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reactions = append(t.reactions, emoji)
	return nil
}

func (t *recordingTransport) allSent() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.sent))
	copy(out, t.sent)
	return out
}

func newTestEngine(provider ai.Provider, transport Transport, params Params) *Engine {
	return NewEngine(params, provider, transport, NewMemoryManager(nil, 20), nil)
}

func newCycle(e *Engine, tr Trigger) *cycleCtx {
	return &cycleCtx{
		ctx:     context.Background(),
		trigger: tr,
		state:   e.state(tr.ContextID),
		pool:    e.pool(tr.ContextID),
	}
}

const (
	formationReply  = `{"thought": "they mentioned a job interview earlier", "type": "curiosity", "potential_response": "Hey, how did the interview go?"}`
	evaluationReply = `{"relevance": 4, "information_gap": 4, "emotional_connection": 4, "timing": 5, "balance": 4, "overall_score": 4.2, "reasoning": "natural moment to follow up"}`
)

func TestCycleSpeaksWhenMotivated(t *testing.T) {
	provider := &scriptedProvider{responses: []providerResponse{
		{text: formationReply},
		{text: evaluationReply},
	}}
	transport := &recordingTransport{}
	e := newTestEngine(provider, transport, DefaultParams())

	e.HandleTrigger(context.Background(), Trigger{
		Kind:       TriggerPeriodicTick,
		ContextID:  "c1",
		OccurredAt: time.Now(),
	})

	require.Equal(t, []string{"Hey, how did the interview go?"}, transport.allSent())
	st := e.state("c1")
	require.Equal(t, 1, st.ConsecutiveInterventions)
	require.True(t, st.CooldownUntil.After(time.Now()))

	turns := e.memory.Turns("c1")
	require.Len(t, turns, 1)
	require.Equal(t, "assistant", turns[0].Role)
}

func TestMessageResetsConsecutiveInterventions(t *testing.T) {
	provider := &scriptedProvider{responses: []providerResponse{
		{err: errors.New("capability unavailable")},
	}}
	transport := &recordingTransport{}
	e := newTestEngine(provider, transport, DefaultParams())
	e.state("c1").ConsecutiveInterventions = 2

	e.HandleTrigger(context.Background(), Trigger{
		Kind:       TriggerMessageReceived,
		ContextID:  "c1",
		UserID:     "u1",
		Username:   "alice",
		Content:    "hi again",
		OccurredAt: time.Now(),
	})

	require.Equal(t, 0, e.state("c1").ConsecutiveInterventions)
	require.Empty(t, transport.allSent())
	turns := e.memory.Turns("c1")
	require.Len(t, turns, 1)
	require.Equal(t, "user", turns[0].Role)
}

func TestCapabilityFailureFailsOpenToSilence(t *testing.T) {
	provider := &scriptedProvider{responses: []providerResponse{
		{err: errors.New("timeout")},
	}}
	transport := &recordingTransport{}
	e := newTestEngine(provider, transport, DefaultParams())

	e.HandleTrigger(context.Background(), Trigger{
		Kind:       TriggerPeriodicTick,
		ContextID:  "c1",
		OccurredAt: time.Now(),
	})

	require.Empty(t, transport.allSent())
	require.Zero(t, e.pool("c1").Len())
}

func TestOutOfRangeScoreClampedLow(t *testing.T) {
	provider := &scriptedProvider{responses: []providerResponse{
		{text: formationReply},
		{text: `{"overall_score": -3.0, "reasoning": "broken evaluator"}`},
	}}
	transport := &recordingTransport{}
	e := newTestEngine(provider, transport, DefaultParams())

	e.HandleTrigger(context.Background(), Trigger{
		Kind:       TriggerPeriodicTick,
		ContextID:  "c1",
		OccurredAt: time.Now(),
	})

	require.Empty(t, transport.allSent())
	pending := e.pool("c1").Pending()
	require.Len(t, pending, 1)
	require.Equal(t, 1.0, pending[0].Score)
}

func TestReservedThoughtResurfacedAndSpoken(t *testing.T) {
	provider := &scriptedProvider{responses: []providerResponse{
		{err: errors.New("capability unavailable")},
	}}
	transport := &recordingTransport{}
	e := newTestEngine(provider, transport, DefaultParams())

	now := time.Now()
	held := &Thought{
		ID:               "held-1",
		ContextID:        "c1",
		Content:          "ask about the trip",
		Response:         "By the way, how was the trip?",
		Score:            4.0,
		Status:           ThoughtReserved,
		ReservationCount: 1,
		CreatedAt:        now.Add(-time.Minute),
		ExpiresAt:        now.Add(time.Hour),
	}
	e.pool("c1").Insert(held)

	e.HandleTrigger(context.Background(), Trigger{
		Kind:       TriggerPeriodicTick,
		ContextID:  "c1",
		OccurredAt: now,
	})

	require.Equal(t, []string{"By the way, how was the trip?"}, transport.allSent())
	require.Zero(t, e.pool("c1").Len())
	require.Equal(t, ThoughtSpoken, held.Status)
}

func TestTornDownContextDiscardsResults(t *testing.T) {
	provider := &scriptedProvider{responses: []providerResponse{
		{text: formationReply},
		{text: evaluationReply},
	}}
	transport := &recordingTransport{}
	e := newTestEngine(provider, transport, DefaultParams())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e.HandleTrigger(ctx, Trigger{
		Kind:       TriggerPeriodicTick,
		ContextID:  "c1",
		OccurredAt: time.Now(),
	})

	require.Empty(t, transport.allSent())
	require.Zero(t, e.pool("c1").Len())
}

func TestReactiveConditionDirectReply(t *testing.T) {
	provider := &scriptedProvider{responses: []providerResponse{
		{text: `{"action": "reply", "reason": "question needs an answer"}`},
		{text: "Sure, sounds fun!"},
	}}
	transport := &recordingTransport{}
	params := DefaultParams()
	params.Reactive = true
	e := newTestEngine(provider, transport, params)

	e.HandleTrigger(context.Background(), Trigger{
		Kind:       TriggerMessageReceived,
		ContextID:  "c1",
		UserID:     "u1",
		Username:   "alice",
		Content:    "want to join the game night?",
		OccurredAt: time.Now(),
	})

	require.Equal(t, []string{"Sure, sounds fun!"}, transport.allSent())
	require.Zero(t, e.pool("c1").Len())
}

func TestReactiveConditionEmojiReaction(t *testing.T) {
	provider := &scriptedProvider{responses: []providerResponse{
		{text: `{"action": "react", "reaction": "😂", "reason": "just a joke"}`},
	}}
	transport := &recordingTransport{}
	params := DefaultParams()
	params.Reactive = true
	e := newTestEngine(provider, transport, params)

	e.HandleTrigger(context.Background(), Trigger{
		Kind:       TriggerMessageReceived,
		ContextID:  "c1",
		UserID:     "u1",
		MessageID:  "m1",
		Content:    "lol that was great",
		OccurredAt: time.Now(),
	})

	require.Empty(t, transport.allSent())
	require.Equal(t, []string{"😂"}, transport.reactions)
}

func TestFactExtractionStoresNewFacts(t *testing.T) {
	provider := &scriptedProvider{responses: []providerResponse{
		{text: `{"action": "none"}`},
		{text: `[{"fact": "plays jazz guitar on weekends", "importance": 4}]`},
	}}
	transport := &recordingTransport{}
	params := DefaultParams()
	params.Reactive = true
	params.FactExtractEvery = 1

	store := newFakeStore()
	e := NewEngine(params, provider, transport, NewMemoryManager(store, 20), nil)

	e.HandleTrigger(context.Background(), Trigger{
		Kind:       TriggerMessageReceived,
		ContextID:  "c1",
		UserID:     "u1",
		Username:   "alice",
		Content:    "picked up my guitar again",
		OccurredAt: time.Now(),
	})

	facts, err := store.FactsFor("u1")
	require.NoError(t, err)
	require.Len(t, facts, 1)
	require.Equal(t, "plays jazz guitar on weekends", facts[0].Text)
}

func TestTeardownDropsEngineState(t *testing.T) {
	provider := &scriptedProvider{responses: []providerResponse{{err: errors.New("x")}}}
	e := newTestEngine(provider, &recordingTransport{}, DefaultParams())

	e.state("c1").ConsecutiveInterventions = 1
	e.pool("c1").Insert(&Thought{ID: "t1", ContextID: "c1", Status: ThoughtReserved})
	e.memory.AppendTurn("c1", Turn{Role: "user", Content: "hello"})

	e.Teardown("c1")

	require.Zero(t, e.pool("c1").Len())
	require.Zero(t, e.state("c1").ConsecutiveInterventions)
	require.Empty(t, e.memory.Turns("c1"))
}
