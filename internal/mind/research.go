package mind

import (
	"path/filepath"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ResearchLogger writes the append-only evaluation event stream: one JSON
// line per trigger evaluation, speech, expiry or eviction. The engine never
// reads it back. A nil *ResearchLogger is a no-op, which tests rely on.
type ResearchLogger struct {
	log zerolog.Logger
	out *lumberjack.Logger
}

// NewResearchLogger opens the rotating event log under dir. sessionID is
// stamped on every event so runs can be separated after the fact.
func NewResearchLogger(dir, sessionID string) *ResearchLogger {
	out := &lumberjack.Logger{
		Filename:   filepath.Join(dir, "thoughts.jsonl"),
		MaxSize:    20, // megabytes
		MaxBackups: 5,
	}
	logger := zerolog.New(out).With().Timestamp().Str("session", sessionID).Logger()
	return &ResearchLogger{log: logger, out: out}
}

func (r *ResearchLogger) Close() error {
	if r == nil || r.out == nil {
		return nil
	}
	return r.out.Close()
}

func (r *ResearchLogger) LogEvaluation(tr Trigger, t *Thought, decision Decision, resurfaced bool) {
	if r == nil {
		return
	}
	r.log.Info().
		Str("event", "evaluation").
		Str("context", tr.ContextID).
		Str("trigger", string(tr.Kind)).
		Str("thought_id", t.ID).
		Str("thought", t.Content).
		Float64("score", t.Score).
		Str("rationale", t.Rationale).
		Str("decision", string(decision)).
		Bool("resurfaced", resurfaced).
		Int("reservations", t.ReservationCount).
		Send()
}

func (r *ResearchLogger) LogNoThought(tr Trigger) {
	if r == nil {
		return
	}
	r.log.Info().
		Str("event", "evaluation").
		Str("context", tr.ContextID).
		Str("trigger", string(tr.Kind)).
		Str("decision", string(DecisionNoThought)).
		Send()
}

func (r *ResearchLogger) LogExpiry(contextID string, t *Thought) {
	if r == nil {
		return
	}
	r.log.Info().
		Str("event", "expired").
		Str("context", contextID).
		Str("thought_id", t.ID).
		Float64("score", t.Score).
		Int("reservations", t.ReservationCount).
		Send()
}

func (r *ResearchLogger) LogEviction(contextID string, t *Thought) {
	if r == nil {
		return
	}
	r.log.Info().
		Str("event", "evicted").
		Str("context", contextID).
		Str("thought_id", t.ID).
		Float64("score", t.Score).
		Send()
}

func (r *ResearchLogger) LogMessage(contextID, userID, content string) {
	if r == nil {
		return
	}
	r.log.Info().
		Str("event", "user_message").
		Str("context", contextID).
		Str("user", userID).
		Str("content", content).
		Send()
}

func (r *ResearchLogger) LogSpeech(contextID, content string, proactive bool) {
	if r == nil {
		return
	}
	r.log.Info().
		Str("event", "ai_message").
		Str("context", contextID).
		Str("content", content).
		Bool("proactive", proactive).
		Send()
}
