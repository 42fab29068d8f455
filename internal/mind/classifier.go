package mind

import (
	"encoding/json"
	"log"

	"proactive-friend/internal/ai"
)

const (
	actionReply = "reply"
	actionReact = "react"
	actionNone  = "none"
)

type classification struct {
	Action   string `json:"action"`
	Reaction string `json:"reaction,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// classify decides how to respond to a direct message: full reply, a single
// emoji reaction, or nothing. Any failure defaults to a full reply so the
// agent never goes mute on a message that was addressed to it.
func (e *Engine) classify(ctx *cycleCtx, mc MemoryContext) classification {
	fallback := classification{Action: actionReply}

	out, err := e.provider.Generate(ctx.ctx, []ai.Message{
		{Role: ai.RoleUser, Content: classifierPrompt(ctx.trigger.Content, mc)},
	})
	if err != nil || ctx.ctx.Err() != nil {
		log.Printf("[MIND] classifier failed context=%s: %v", ctx.trigger.ContextID, err)
		return fallback
	}

	raw, ok := ai.ExtractJSON(out)
	if !ok {
		return fallback
	}
	var c classification
	if err := json.Unmarshal(raw, &c); err != nil {
		return fallback
	}
	switch c.Action {
	case actionReply, actionReact, actionNone:
		return c
	}
	return fallback
}
