package driven

import "context"

// LLMService generates replies from a conversation.
//
// Implementations may include:
//   - OpenAI (gpt-4o-mini, gpt-4o)
//   - Anthropic (claude-3-5-sonnet)
//   - Ollama (llama3.2, mistral)
type LLMService interface {
	// Chat returns the model's reply to an ordered message sequence.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// ChatMessage represents a message in a conversation.
type ChatMessage struct {
	// Role is "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// ChatOptions configures chat behaviour.
type ChatOptions struct {
	// MaxTokens limits the response length. Zero uses the provider default.
	MaxTokens int

	// Temperature controls randomness (0.0-1.0).
	Temperature float64
}
