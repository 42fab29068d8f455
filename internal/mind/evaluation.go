package mind

import (
	"encoding/json"
	"log"
	"strings"
	"time"

	"proactive-friend/internal/ai"
)

// Criterion is one human-authored rubric dimension for motivation scoring.
type Criterion struct {
	Name        string
	Description string
}

func DefaultCriteria() []Criterion {
	return []Criterion{
		{"relevance", "how connected the thought is to what is being discussed right now"},
		{"information_gap", "whether the thought adds something the user does not already have"},
		{"emotional_connection", "whether saying it would strengthen rapport or show care"},
		{"timing", "whether this is a natural moment to speak, given pace and silence"},
		{"balance", "whether the AI has been talking too much relative to the user"},
	}
}

type evaluationResult struct {
	Relevance           float64 `json:"relevance"`
	InformationGap      float64 `json:"information_gap"`
	EmotionalConnection float64 `json:"emotional_connection"`
	Timing              float64 `json:"timing"`
	Balance             float64 `json:"balance"`
	Overall             float64 `json:"overall_score"`
	Reasoning           string  `json:"reasoning"`
}

// evaluateMotivation scores the candidate in place. Returns false when the
// capability failed or returned garbage; the caller treats that exactly like
// "no thought formed" and the cycle ends quietly.
func (e *Engine) evaluateMotivation(ctx *cycleCtx, t *Thought, mc MemoryContext, now time.Time) bool {
	silence := time.Duration(0)
	if !ctx.state.LastUserMessageAt.IsZero() {
		silence = now.Sub(ctx.state.LastUserMessageAt)
	}
	prompt := evaluationPrompt(t.Content, mc, silence, ctx.state.ConsecutiveInterventions, e.params.Criteria)

	out, err := e.provider.Generate(ctx.ctx, []ai.Message{{Role: ai.RoleUser, Content: prompt}})
	if err != nil {
		log.Printf("[MIND] evaluation failed context=%s: %v", t.ContextID, err)
		return false
	}
	if ctx.ctx.Err() != nil {
		return false // context torn down while the call was in flight
	}

	raw, ok := ai.ExtractJSON(out)
	if !ok {
		log.Printf("[MIND] evaluation returned no JSON context=%s", t.ContextID)
		return false
	}
	var res evaluationResult
	if err := json.Unmarshal(raw, &res); err != nil {
		log.Printf("[MIND] evaluation unmarshal failed context=%s: %v", t.ContextID, err)
		return false
	}

	score := res.Overall
	if score < 1 || score > 5 {
		log.Printf("[MIND] score %.2f outside [1,5] context=%s, clamping", score, t.ContextID)
	}
	t.Score = clampScore(score)
	t.Rationale = strings.TrimSpace(res.Reasoning)
	t.LastEvaluatedAt = now
	return true
}

// clampScore forces a score into [1,5]. An out-of-range value is a contract
// violation by the capability; it is clamped at this boundary and never
// propagated.
func clampScore(s float64) float64 {
	if s < 1 {
		return 1
	}
	if s > 5 {
		return 5
	}
	return s
}
