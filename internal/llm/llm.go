// Package llm provides text completion clients for semantic analysis of
// narrative text, plus tolerant parsing of JSON payloads embedded in
// free-form model output.
package llm

import (
	"context"
	"time"
)

// Options control a single completion request.
type Options struct {
	// MaxTokens bounds the response length. Zero means the backend default.
	MaxTokens int
	// Temperature and TopP are passed through to the backend.
	Temperature float32
	TopP        float32
	// Timeout bounds the whole request. Zero means the client default.
	Timeout time.Duration
}

// Completer is the text completion service used for section tagging,
// chapter summarization, dialogue extraction, and character profiling.
// Implementations must return an error rather than block indefinitely;
// callers treat any error as a recoverable degradation.
type Completer interface {
	Complete(ctx context.Context, system, prompt string, opts Options) (string, error)
}
