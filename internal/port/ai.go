package port

import "context"

// Turn is one prior transcript entry sent to the conversational backend.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AIProvider abstracts the conversational backend behind the copilot.
// Implementations can target Gemini, Ollama, or a canned fallback.
type AIProvider interface {
	// ModelName returns the identifier of the model being used.
	ModelName() string

	// Chat sends a new message along with the prior transcript and returns the reply text.
	Chat(ctx context.Context, message string, history []Turn) (string, error)
}
