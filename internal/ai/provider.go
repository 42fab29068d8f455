package ai

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider is the language-model capability. Implementations retry
// internally; an error means the retry budget is exhausted. Callers must
// treat failures as "say nothing this cycle", never as fatal.
type Provider interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}
