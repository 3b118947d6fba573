package ai

import "context"

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider is the single capability the rest of the app needs from a language
// model: submit a structured chat request, receive free-form text. Prompt
// wording lives in the prompts file, not in providers.
type Provider interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}
