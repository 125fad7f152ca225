package llm

import "context"

// Chat roles, mirroring the chat-completions wire format.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options carries per-call completion parameters. An empty Model falls
// back to the client default.
type Options struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

// Client produces a text completion for a conversation. Implementations
// must be safe for concurrent use.
type Client interface {
	Complete(ctx context.Context, messages []Message, opts Options) (string, error)
}
