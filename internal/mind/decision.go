package mind

import (
	"log"
	"time"
)

// decide runs the speak/reserve/discard state machine for a scored thought
// and performs the side effects. Resurfaced reserved thoughts go through the
// same gates with their stored score; they are not re-evaluated.
func (e *Engine) decide(ctx *cycleCtx, t *Thought, resurfaced bool, now time.Time) Decision {
	var decision Decision
	switch {
	case t.Score >= e.params.MotivationThreshold && e.mayIntervene(ctx.state, now):
		e.speak(ctx, t, now)
		decision = DecisionSpeak

	case t.ReservationCount >= e.params.ReservationCap:
		// Reserved too many times without ever clearing the bar. Drop it.
		t.Status = ThoughtDiscarded
		ctx.pool.Remove(t.ID)
		decision = DecisionDiscard

	default:
		t.Status = ThoughtReserved
		t.ReservationCount++
		t.ExpiresAt = now.Add(e.reserveTTL(t.Score))
		if evicted := ctx.pool.Insert(t); evicted != nil {
			log.Printf("[MIND] pool full context=%s, evicted id=%s score=%.1f", t.ContextID, evicted.ID, evicted.Score)
			e.research.LogEviction(t.ContextID, evicted)
		}
		decision = DecisionReserve
	}

	log.Printf("[MIND] decision=%s context=%s trigger=%s score=%.2f resurfaced=%t reservations=%d",
		decision, t.ContextID, ctx.trigger.Kind, t.Score, resurfaced, t.ReservationCount)
	e.research.LogEvaluation(ctx.trigger, t, decision, resurfaced)
	return decision
}

// mayIntervene is the fairness gate: no speech during cooldown and no more
// than MaxConsecutiveInterventions bot messages without a user reply in
// between. Checked before dispatch, never after.
func (e *Engine) mayIntervene(st *ConversationState, now time.Time) bool {
	if now.Before(st.CooldownUntil) {
		return false
	}
	if st.ConsecutiveInterventions >= e.params.MaxConsecutiveInterventions {
		return false
	}
	return true
}

// reserveTTL maps a score to how long the reserved thought stays alive.
// Monotone in score: weaker thoughts expire sooner.
func (e *Engine) reserveTTL(score float64) time.Duration {
	frac := (clampScore(score) - 1) / 4
	spread := e.params.ReserveTTLMax - e.params.ReserveTTLMin
	return e.params.ReserveTTLMin + time.Duration(frac*float64(spread))
}

// speak dispatches the thought to the transport and updates fairness state.
// Transport delivery is fire-and-forget: a send error is logged but the
// thought still counts as spoken.
func (e *Engine) speak(ctx *cycleCtx, t *Thought, now time.Time) {
	text := t.Response
	if text == "" {
		text = t.Content
	}
	if err := e.transport.Send(t.ContextID, text); err != nil {
		log.Printf("[MIND] send failed context=%s: %v", t.ContextID, err)
	}

	t.Status = ThoughtSpoken
	ctx.pool.Remove(t.ID)

	ctx.state.LastBotSpeakAt = now
	ctx.state.ConsecutiveInterventions++
	ctx.state.CooldownUntil = now.Add(e.params.Cooldown)

	e.memory.AppendTurn(t.ContextID, Turn{
		Role:     "assistant",
		Username: e.params.AIName,
		Content:  text,
		At:       now,
	})
	e.research.LogSpeech(t.ContextID, text, true)
}
