package mind

import "time"

// TriggerKind — what prompted the engine to consider speaking.
type TriggerKind string

const (
	TriggerMessageReceived TriggerKind = "message_received"
	TriggerSilenceTimeout  TriggerKind = "silence_timeout"
	TriggerPeriodicTick    TriggerKind = "periodic_tick"
)

// Trigger is created by the trigger manager and consumed by exactly one
// engine cycle. Message payload fields are empty for timer triggers.
type Trigger struct {
	Kind       TriggerKind
	ContextID  string
	UserID     string
	Username   string
	MessageID  string
	Content    string
	OccurredAt time.Time
}

type ThoughtStatus string

const (
	ThoughtPending   ThoughtStatus = "pending"
	ThoughtReserved  ThoughtStatus = "reserved"
	ThoughtSpoken    ThoughtStatus = "spoken"
	ThoughtExpired   ThoughtStatus = "expired"
	ThoughtDiscarded ThoughtStatus = "discarded"
)

// Thought is a candidate utterance that has not (or not yet) been spoken.
// Content is the inner thought itself; Response is how it would be phrased
// out loud. Score is set by motivation evaluation, always within [1,5].
type Thought struct {
	ID               string
	ContextID        string
	Content          string
	Response         string
	TriggeredBy      TriggerKind
	CreatedAt        time.Time
	LastEvaluatedAt  time.Time
	Score            float64
	Rationale        string
	Status           ThoughtStatus
	ReservationCount int
	ExpiresAt        time.Time
}

// ConversationState is the per-context fairness bookkeeping. It is only
// touched from that context's serialized trigger cycles, so no lock of its
// own is needed.
type ConversationState struct {
	LastUserMessageAt        time.Time
	LastBotSpeakAt           time.Time
	ConsecutiveInterventions int
	CooldownUntil            time.Time
}

// Turn is one entry in the short-term conversation ring.
type Turn struct {
	Role     string // "user" | "assistant"
	UserID   string
	Username string
	Content  string
	At       time.Time
}

// Fact is one long-term memory entry about a user. Facts are only added,
// never overwritten.
type Fact struct {
	UserID     string    `json:"user_id"`
	Text       string    `json:"text"`
	Importance float64   `json:"importance"`
	CreatedAt  time.Time `json:"created_at"`
}

// Decision outcomes, as written to the research log.
type Decision string

const (
	DecisionSpeak     Decision = "speak"
	DecisionReserve   Decision = "reserve"
	DecisionDiscard   Decision = "discard"
	DecisionNoThought Decision = "no_thought"
)

// Params holds engine thresholds and knobs. Defaults mirror the research
// setup the engine was built for.
type Params struct {
	MotivationThreshold         float64
	MaxConsecutiveInterventions int
	Cooldown                    time.Duration // minimum spacing between bot-initiated messages
	PoolCapacity                int
	ReservationCap              int
	ReserveTTLMin               time.Duration // lifetime of a reserved thought at score 1
	ReserveTTLMax               time.Duration // lifetime at score 5
	FactExtractEvery            int           // extract facts every Nth user turn
	Reactive                    bool          // reactive experiment condition: direct replies only
	AIName                      string
	Persona                     string
	Criteria                    []Criterion
}

func DefaultParams() Params {
	return Params{
		MotivationThreshold:         3.5,
		MaxConsecutiveInterventions: 2,
		Cooldown:                    60 * time.Second,
		PoolCapacity:                10,
		ReservationCap:              3,
		ReserveTTLMin:               2 * time.Minute,
		ReserveTTLMax:               10 * time.Minute,
		FactExtractEvery:            5,
		AIName:                      "Yui",
		Persona:                     "You are Yui, a warm and curious friend.",
		Criteria:                    DefaultCriteria(),
	}
}
