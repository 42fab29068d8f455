package mind

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Prompt templates for thought formation, motivation evaluation, silence
// breaking, fact extraction and response classification. Every template asks
// for a single JSON object (or array) so replies survive chatty models.

const thoughtGenerationTemplate = `%s

You are in the middle of a conversation with a friend. Put into words what is
going through your head right now. This is an inner thought, not something you
say out loud.

## Current conversation
%s

## What you remember about them
%s

## Thoughts you had earlier but have not said yet
%s

## Task
Produce exactly one inner thought about this conversation. Examples:
- "They mentioned that job interview last week. I wonder how it went."
- "They sound a bit down today. Maybe I should ask."
- "I know something about this topic that could actually help."
If nothing comes to mind, return an empty "thought".

## Output (JSON only)
{"thought": "your inner thought, one or two sentences", "type": "empathy|information|curiosity|concern|reflection", "potential_response": "how you would phrase it if you said it out loud"}`

const silenceBreakTemplate = `%s

Your friend has gone quiet for %s. You are thinking about whether and how to
gently restart the conversation.

## What you remember about them
%s

## The conversation before the silence
%s

## Task
Produce one inner thought about re-opening the conversation. Do not repeat
the last thing either of you said. If there is genuinely nothing natural to
say, return an empty "thought".

## Output (JSON only)
{"thought": "your inner thought", "type": "reconnect", "potential_response": "the short, casual message you would send"}`

const motivationEvaluationTemplate = `You are rating how motivated an AI friend is to say a thought out loud, on a
scale of 1 (stay quiet) to 5 (definitely say it).

## The thought
%s

## Current conversation
%s

## Conversation statistics
- Seconds since the user last spoke: %.0f
- Consecutive AI messages without a user reply: %d
- Turns in the conversation so far: %d

## Criteria
%s

## Output (JSON only)
{"relevance": 1-5, "information_gap": 1-5, "emotional_connection": 1-5, "timing": 1-5, "balance": 1-5, "overall_score": 1-5 weighted average, "reasoning": "one or two sentences"}`

const reactiveSystemTemplate = `%s

## What you remember about this user
%s

## Rules
- Keep the conversation natural and unforced
- Respect their mood; never interrogate
- Short replies over long ones`

const factExtractionTemplate = `Extract durable facts about the user from this conversation: interests,
work, relationships, worries, preferences. Skip small talk and anything
already known.

## Conversation
%s

## Already known
%s

## Output (JSON array only, empty array if nothing new)
[{"fact": "the fact, one sentence", "importance": 1-5}]`

const classifierTemplate = `Decide how an AI friend should respond to this message. Options:
- "reply": the message needs a real answer
- "react": a single emoji reaction is enough (short acknowledgements, "lol", stickers)
- "none": no response is expected at all

## Message
%s

## Recent conversation
%s

## Output (JSON only)
{"action": "reply|react|none", "reaction": "one emoji when action is react", "reason": "short"}`

func formationPrompt(persona string, mc MemoryContext, pending []Thought) string {
	return fmt.Sprintf(thoughtGenerationTemplate,
		persona,
		renderTurns(mc.Turns, 8),
		renderFacts(mc.Facts),
		renderPending(pending),
	)
}

func silencePrompt(persona string, mc MemoryContext, silence time.Duration) string {
	return fmt.Sprintf(silenceBreakTemplate,
		persona,
		silence.Round(time.Second),
		renderFacts(mc.Facts),
		renderTurns(mc.Turns, 8),
	)
}

func evaluationPrompt(thought string, mc MemoryContext, silence time.Duration, consecutive int, criteria []Criterion) string {
	return fmt.Sprintf(motivationEvaluationTemplate,
		thought,
		renderTurns(mc.Turns, 8),
		silence.Seconds(),
		consecutive,
		len(mc.Turns),
		renderCriteria(criteria),
	)
}

func reactiveSystemPrompt(persona string, mc MemoryContext) string {
	return fmt.Sprintf(reactiveSystemTemplate, persona, renderFacts(mc.Facts))
}

func extractionPrompt(mc MemoryContext) string {
	return fmt.Sprintf(factExtractionTemplate,
		renderTurns(mc.Turns, 10),
		renderFacts(mc.Facts),
	)
}

func classifierPrompt(content string, mc MemoryContext) string {
	return fmt.Sprintf(classifierTemplate, content, renderTurns(mc.Turns, 5))
}

func renderTurns(turns []Turn, limit int) string {
	if len(turns) == 0 {
		return "The conversation has not started yet."
	}
	if len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	var b strings.Builder
	for _, t := range turns {
		name := t.Username
		if name == "" {
			name = t.Role
		}
		b.WriteString(name)
		b.WriteString(": ")
		content := t.Content
		if len(content) > 200 {
			cut := 200
			for cut > 0 && !utf8.RuneStart(content[cut]) {
				cut--
			}
			content = content[:cut] + "..."
		}
		b.WriteString(content)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderFacts(facts []Fact) string {
	if len(facts) == 0 {
		return "Nothing yet."
	}
	var b strings.Builder
	for _, f := range facts {
		b.WriteString("- ")
		b.WriteString(f.Text)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderPending(pending []Thought) string {
	if len(pending) == 0 {
		return "None."
	}
	var b strings.Builder
	for _, t := range pending {
		fmt.Fprintf(&b, "- %s (score %.1f)\n", t.Content, t.Score)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderCriteria(criteria []Criterion) string {
	var b strings.Builder
	for _, c := range criteria {
		fmt.Fprintf(&b, "- %s: %s\n", c.Name, c.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}
