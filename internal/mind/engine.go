package mind

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"proactive-friend/internal/ai"
)

// Transport delivers agent output to the chat platform. Fire and forget:
// delivery guarantees are the transport's problem, not the engine's.
type Transport interface {
	Send(contextID, text string) error
	React(contextID, messageID, emoji string) error
}

// Engine is the inner thoughts engine: it consumes triggers, forms and
// scores candidate thoughts, and decides whether the agent speaks.
//
// HandleTrigger is never called concurrently for the same context (the
// trigger manager serializes per context), so ConversationState and the
// per-context pool are mutated without further locking. The maps holding
// them are still guarded because contexts run in parallel.
type Engine struct {
	params    Params
	provider  ai.Provider
	transport Transport
	memory    *MemoryManager
	research  *ResearchLogger

	mu     sync.Mutex
	pools  map[string]*ThoughtPool
	states map[string]*ConversationState
}

// cycleCtx bundles everything one trigger cycle operates on.
type cycleCtx struct {
	ctx     context.Context
	trigger Trigger
	state   *ConversationState
	pool    *ThoughtPool
}

func NewEngine(params Params, provider ai.Provider, transport Transport, memory *MemoryManager, research *ResearchLogger) *Engine {
	return &Engine{
		params:    params,
		provider:  provider,
		transport: transport,
		memory:    memory,
		research:  research,
		pools:     make(map[string]*ThoughtPool),
		states:    make(map[string]*ConversationState),
	}
}

// HandleTrigger runs one full cycle for tr: sweep expired thoughts, give the
// best reserved thought another chance, form and evaluate a new candidate,
// decide. The passed ctx is the context's lifetime; when it is cancelled,
// in-flight results are discarded.
func (e *Engine) HandleTrigger(ctxDone context.Context, tr Trigger) {
	now := time.Now()
	ctx := &cycleCtx{
		ctx:     ctxDone,
		trigger: tr,
		state:   e.state(tr.ContextID),
		pool:    e.pool(tr.ContextID),
	}

	for _, t := range ctx.pool.SweepExpired(now) {
		log.Printf("[MIND] thought expired context=%s id=%s score=%.1f", tr.ContextID, t.ID, t.Score)
		e.research.LogExpiry(tr.ContextID, t)
	}

	if tr.Kind == TriggerMessageReceived {
		// The user speaking resets the consecutive-intervention counter.
		ctx.state.ConsecutiveInterventions = 0
		ctx.state.LastUserMessageAt = tr.OccurredAt
		e.memory.AppendTurn(tr.ContextID, Turn{
			Role:     "user",
			UserID:   tr.UserID,
			Username: tr.Username,
			Content:  tr.Content,
			At:       tr.OccurredAt,
		})
		e.research.LogMessage(tr.ContextID, tr.UserID, tr.Content)
	}

	if e.params.Reactive {
		if tr.Kind == TriggerMessageReceived {
			e.replyReactive(ctx, now)
			e.maybeExtractFacts(ctx)
		}
		return
	}

	mc := e.memory.ContextFor(tr.ContextID, e.participants(tr))

	// Give the best held-back thought another chance before forming a new
	// one. Its stored score is reused as-is.
	if held := ctx.pool.HighestReserved(now); held != nil {
		e.decide(ctx, held, true, now)
	}

	if cand := e.formThought(ctx, mc, ctx.pool.Pending(), now); cand != nil {
		if e.evaluateMotivation(ctx, cand, mc, now) {
			e.decide(ctx, cand, false, now)
		} else {
			e.research.LogNoThought(tr)
		}
	} else {
		e.research.LogNoThought(tr)
	}

	if tr.Kind == TriggerMessageReceived {
		e.maybeExtractFacts(ctx)
	}
}

// Teardown drops all engine state for a context. Called after the trigger
// manager has cancelled the context's timers.
func (e *Engine) Teardown(contextID string) {
	e.mu.Lock()
	delete(e.pools, contextID)
	delete(e.states, contextID)
	e.mu.Unlock()
	e.memory.Forget(contextID)
}

// replyReactive handles the control condition: classify the message, then
// reply, react with an emoji, or stay quiet. No thought pool, no scoring.
func (e *Engine) replyReactive(ctx *cycleCtx, now time.Time) {
	tr := ctx.trigger
	mc := e.memory.ContextFor(tr.ContextID, e.participants(tr))

	c := e.classify(ctx, mc)
	switch c.Action {
	case actionNone:
		return

	case actionReact:
		if c.Reaction == "" {
			return
		}
		if err := e.transport.React(tr.ContextID, tr.MessageID, c.Reaction); err != nil {
			log.Printf("[MIND] reaction failed context=%s: %v", tr.ContextID, err)
		}
		return
	}

	msgs := []ai.Message{{Role: ai.RoleSystem, Content: reactiveSystemPrompt(e.params.Persona, mc)}}
	for _, t := range mc.Turns {
		role := ai.RoleUser
		if t.Role == "assistant" {
			role = ai.RoleAssistant
		}
		msgs = append(msgs, ai.Message{Role: role, Content: t.Content})
	}

	out, err := e.provider.Generate(ctx.ctx, msgs)
	if err != nil || ctx.ctx.Err() != nil {
		// Fail open to silence: the user just gets no reply this cycle.
		log.Printf("[MIND] reactive reply failed context=%s: %v", tr.ContextID, err)
		return
	}
	if out == "" {
		return
	}

	if err := e.transport.Send(tr.ContextID, out); err != nil {
		log.Printf("[MIND] send failed context=%s: %v", tr.ContextID, err)
	}
	ctx.state.LastBotSpeakAt = now
	e.memory.AppendTurn(tr.ContextID, Turn{Role: "assistant", Username: e.params.AIName, Content: out, At: now})
	e.research.LogSpeech(tr.ContextID, out, false)
}

// maybeExtractFacts runs long-term memory extraction every Nth user turn.
func (e *Engine) maybeExtractFacts(ctx *cycleCtx) {
	tr := ctx.trigger
	if tr.UserID == "" || e.params.FactExtractEvery <= 0 {
		return
	}
	n := e.memory.UserTurnCount(tr.ContextID)
	if n == 0 || n%e.params.FactExtractEvery != 0 {
		return
	}

	mc := e.memory.ContextFor(tr.ContextID, e.participants(tr))
	out, err := e.provider.Generate(ctx.ctx, []ai.Message{{Role: ai.RoleUser, Content: extractionPrompt(mc)}})
	if err != nil || ctx.ctx.Err() != nil {
		log.Printf("[MIND] fact extraction failed context=%s: %v", tr.ContextID, err)
		return
	}

	raw, ok := ai.ExtractJSON(out)
	if !ok {
		return
	}
	var items []struct {
		Fact       string  `json:"fact"`
		Importance float64 `json:"importance"`
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return
	}
	for _, it := range items {
		if err := e.memory.UpsertFact(tr.UserID, it.Fact, it.Importance); err != nil {
			log.Printf("[MIND] fact upsert failed user=%s: %v", tr.UserID, err)
		}
	}
}

// participants lists the distinct users seen in the context's short buffer,
// plus the trigger's author.
func (e *Engine) participants(tr Trigger) []string {
	seen := make(map[string]bool)
	var out []string
	if tr.UserID != "" {
		seen[tr.UserID] = true
		out = append(out, tr.UserID)
	}
	for _, t := range e.memory.Turns(tr.ContextID) {
		if t.Role != "user" || t.UserID == "" || seen[t.UserID] {
			continue
		}
		seen[t.UserID] = true
		out = append(out, t.UserID)
	}
	return out
}

func (e *Engine) state(contextID string) *ConversationState {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := e.states[contextID]
	if st == nil {
		st = &ConversationState{}
		e.states[contextID] = st
	}
	return st
}

func (e *Engine) pool(contextID string) *ThoughtPool {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := e.pools[contextID]
	if p == nil {
		p = NewThoughtPool(e.params.PoolCapacity)
		e.pools[contextID] = p
	}
	return p
}
