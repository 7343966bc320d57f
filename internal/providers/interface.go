package providers

import (
	"context"
	"errors"
)

// ErrRateLimited marks backend failures caused by quota or rate limits at
// the completion API, so callers can surface a different message than for
// a generic outage.
var ErrRateLimited = errors.New("backend rate limited")

// Provider defines the interface to the model completion backend
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete performs a non-streaming completion and returns the full text
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// StreamComplete performs a streaming completion. The returned channel
	// is closed when the stream ends; a chunk with Err set terminates it.
	StreamComplete(ctx context.Context, req CompletionRequest) (<-chan StreamChunk, error)
}

// Message represents a chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest represents a chat completion request
type CompletionRequest struct {
	Messages    []Message `json:"messages"`
	Model       string    `json:"model"`
	Temperature *float32  `json:"temperature,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream"`
}

// StreamChunk represents one fragment of a streaming response
type StreamChunk struct {
	Delta        string `json:"delta,omitempty"`
	FinishReason string `json:"finish_reason,omitempty"`
	Err          error  `json:"-"`
}
