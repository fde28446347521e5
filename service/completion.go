package service

import (
	"context"
)

// CompletionRequest is a single prompt sent to a text-completion service.
type CompletionRequest struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
	Stop        []string
}

// Completer maps a prompt to generated text. Hosted APIs and local inference
// servers implement it alike.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	Name() string
}
