// Package completion defines the LLM text-completion collaborator used by the
// feedback prompting layer, plus a retrying decorator for transient failures.
//
// The reward engine never touches this package; completions happen strictly
// downstream of the assembled feedback package.
package completion

import "context"

// Chat roles accepted in requests.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a chat-style prompt.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request describes one completion call.
type Request struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// Completer produces a text completion for a chat-style request.
type Completer interface {
	// Complete returns the completion text, honoring ctx for cancellation.
	Complete(ctx context.Context, req Request) (string, error)
}
