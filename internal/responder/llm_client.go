package responder

import "context"

// CompletionRequest is one system-plus-user exchange with a chat model.
type CompletionRequest struct {
	System      string
	User        string
	MaxTokens   int32
	Temperature float32
}

// Completer returns the raw assistant text for a request. Implementations
// ask the provider for a JSON object when it supports a forced-JSON mode.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
