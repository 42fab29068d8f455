package mind

import (
	"context"
	"log"
	"sync"
	"time"
)

// TriggerManager owns per-context timers and serializes trigger processing
// per context. Each context runs at most one cycle at a time; while a cycle
// is in flight, at most one trigger waits in a size-1 queue where the latest
// MessageReceived always wins. Contexts never block each other.
type TriggerManager struct {
	handle         func(ctx context.Context, tr Trigger)
	tickInterval   time.Duration
	silenceTimeout time.Duration
	proactive      bool

	mu       sync.Mutex
	contexts map[string]*contextRunner
	closed   bool
}

// NewTriggerManager creates the manager. The experiment condition is fixed
// at construction: when proactive is false, no timers are ever registered
// and only message triggers flow.
func NewTriggerManager(proactive bool, tickInterval, silenceTimeout time.Duration, handle func(context.Context, Trigger)) *TriggerManager {
	return &TriggerManager{
		handle:         handle,
		tickInterval:   tickInterval,
		silenceTimeout: silenceTimeout,
		proactive:      proactive,
		contexts:       make(map[string]*contextRunner),
	}
}

type contextRunner struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc

	mu            sync.Mutex
	processing    bool
	queued        *Trigger
	lastMessageAt time.Time
	closed        bool

	ticker  *time.Ticker
	silence *time.Timer
}

// OnMessage surfaces a MessageReceived trigger. It also resets the context's
// silence timer and implicitly starts timers for a context seen for the
// first time.
func (tm *TriggerManager) OnMessage(contextID, userID, username, messageID, content string) {
	r := tm.runner(contextID)
	if r == nil {
		return
	}
	now := time.Now()

	r.mu.Lock()
	r.lastMessageAt = now
	r.mu.Unlock()
	if r.silence != nil {
		r.silence.Reset(tm.silenceTimeout)
	}

	tm.submit(r, Trigger{
		Kind:       TriggerMessageReceived,
		ContextID:  contextID,
		UserID:     userID,
		Username:   username,
		MessageID:  messageID,
		Content:    content,
		OccurredAt: now,
	})
}

// Teardown cancels the context's timers and queued trigger. No trigger fires
// for the context afterwards; an in-flight cycle finishes but its results
// are discarded via the cancelled context.
func (tm *TriggerManager) Teardown(contextID string) {
	tm.mu.Lock()
	r := tm.contexts[contextID]
	delete(tm.contexts, contextID)
	tm.mu.Unlock()
	if r == nil {
		return
	}
	r.shutdown()
}

// Close tears down every context.
func (tm *TriggerManager) Close() {
	tm.mu.Lock()
	tm.closed = true
	runners := make([]*contextRunner, 0, len(tm.contexts))
	for _, r := range tm.contexts {
		runners = append(runners, r)
	}
	tm.contexts = make(map[string]*contextRunner)
	tm.mu.Unlock()
	for _, r := range runners {
		r.shutdown()
	}
}

func (r *contextRunner) shutdown() {
	r.mu.Lock()
	r.closed = true
	r.queued = nil
	r.mu.Unlock()
	r.cancel()
	if r.ticker != nil {
		r.ticker.Stop()
	}
	if r.silence != nil {
		r.silence.Stop()
	}
}

func (tm *TriggerManager) runner(contextID string) *contextRunner {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if tm.closed {
		return nil
	}
	if r := tm.contexts[contextID]; r != nil {
		return r
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &contextRunner{id: contextID, ctx: ctx, cancel: cancel}
	if tm.proactive {
		r.ticker = time.NewTicker(tm.tickInterval)
		r.silence = time.NewTimer(tm.silenceTimeout)
		go tm.runTimers(r)
	}
	tm.contexts[contextID] = r
	log.Printf("[MIND] context registered id=%s proactive=%t", contextID, tm.proactive)
	return r
}

func (tm *TriggerManager) runTimers(r *contextRunner) {
	for {
		select {
		case <-r.ctx.Done():
			return
		case now := <-r.ticker.C:
			tm.submit(r, Trigger{Kind: TriggerPeriodicTick, ContextID: r.id, OccurredAt: now})
		case fired := <-r.silence.C:
			tm.submit(r, Trigger{Kind: TriggerSilenceTimeout, ContextID: r.id, OccurredAt: fired})
			// Arm again for the next stretch of silence.
			r.silence.Reset(tm.silenceTimeout)
		}
	}
}

// submit either starts a cycle for tr or parks it in the size-1 queue.
// Queue policy: a message supersedes anything; a timer trigger never
// displaces a queued message but does replace a queued timer.
func (tm *TriggerManager) submit(r *contextRunner, tr Trigger) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	if r.processing {
		if tr.Kind == TriggerMessageReceived || r.queued == nil || r.queued.Kind != TriggerMessageReceived {
			q := tr
			r.queued = &q
		}
		r.mu.Unlock()
		return
	}
	r.processing = true
	r.mu.Unlock()

	go tm.runLoop(r, tr)
}

// runLoop processes tr and then drains the queue until it is empty. The
// processing flag is held for the whole time, which is what makes pool and
// state mutations linearizable per context.
func (tm *TriggerManager) runLoop(r *contextRunner, tr Trigger) {
	for {
		if !tm.superseded(r, tr) {
			tm.handle(r.ctx, tr)
		}

		r.mu.Lock()
		if r.queued == nil || r.closed {
			r.processing = false
			r.mu.Unlock()
			return
		}
		tr = *r.queued
		r.queued = nil
		r.mu.Unlock()
	}
}

// superseded reports whether a timer trigger was overtaken by a message.
// A periodic tick self-cancels when a message arrived anywhere inside its
// interval: that message already ran its own cycle, and a tick on top of an
// active conversation would double the LLM traffic. A silence fire
// self-cancels only when a message landed after it fired, since any earlier
// message would have reset the timer.
func (tm *TriggerManager) superseded(r *contextRunner, tr Trigger) bool {
	if tr.Kind == TriggerMessageReceived {
		return false
	}
	since := tr.OccurredAt
	if tr.Kind == TriggerPeriodicTick {
		since = tr.OccurredAt.Add(-tm.tickInterval)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastMessageAt.After(since)
}
