package mind

import (
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"proactive-friend/internal/ai"
)

type formationResult struct {
	Thought  string `json:"thought"`
	Type     string `json:"type"`
	Response string `json:"potential_response"`
}

// formThought asks the model for zero or one candidate thought. A nil return
// means "no thought formed" — the model had nothing worth saying, or the
// capability failed. Neither is an error; the cycle simply moves on.
func (e *Engine) formThought(ctx *cycleCtx, mc MemoryContext, pending []Thought, now time.Time) *Thought {
	var prompt string
	if ctx.trigger.Kind == TriggerSilenceTimeout {
		silence := time.Duration(0)
		if !ctx.state.LastUserMessageAt.IsZero() {
			silence = now.Sub(ctx.state.LastUserMessageAt)
		}
		prompt = silencePrompt(e.params.Persona, mc, silence)
	} else {
		prompt = formationPrompt(e.params.Persona, mc, pending)
	}

	out, err := e.provider.Generate(ctx.ctx, []ai.Message{{Role: ai.RoleUser, Content: prompt}})
	if err != nil {
		log.Printf("[MIND] thought formation failed context=%s: %v", ctx.trigger.ContextID, err)
		return nil
	}
	if ctx.ctx.Err() != nil {
		return nil // context torn down while the call was in flight
	}

	raw, ok := ai.ExtractJSON(out)
	if !ok {
		return nil
	}
	var res formationResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil
	}

	content := strings.TrimSpace(res.Thought)
	if content == "" {
		return nil
	}
	response := strings.TrimSpace(res.Response)
	if response == "" {
		response = content
	}

	return &Thought{
		ID:          uuid.NewString(),
		ContextID:   ctx.trigger.ContextID,
		Content:     content,
		Response:    response,
		TriggeredBy: ctx.trigger.Kind,
		CreatedAt:   now,
		Status:      ThoughtPending,
	}
}
