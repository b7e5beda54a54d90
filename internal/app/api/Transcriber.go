package api

import "context"

// Transcriber converts an audio file to plain text.
//
// Implementations return errors classified as transient or permanent
// (see internal/app/errors) so callers can decide whether to retry.
type Transcriber interface {
	Transcript(ctx context.Context, inputFilePath string) (string, error)
}

// Completer sends a system prompt and input text to a language model and
// returns its raw reply.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// CompletionRequest is one language model call.
type CompletionRequest struct {
	Prompt string
	Input  string
	// JSON asks the provider for a JSON object reply when it supports it.
	JSON bool
}
