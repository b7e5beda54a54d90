package gemini

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"
	"reel-digest/internal/app/api"
	apperrors "reel-digest/internal/app/errors"
)

const DefaultModel = "gemini-2.5-flash"

// Completer implements api.Completer on the Gemini API.
type Completer struct {
	client *genai.Client
	model  string
}

// NewCompleter creates a Gemini-backed completer.
func NewCompleter(ctx context.Context, apiKey, model string) (*Completer, error) {
	if apiKey == "" {
		return nil, apperrors.ErrMissingAPIKey
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, apperrors.Permanent(err, "create gemini client")
	}
	return &Completer{client: client, model: model}, nil
}

// Complete sends the prompt as the system instruction and the input as the
// user turn.
func (c *Completer) Complete(ctx context.Context, req api.CompletionRequest) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.Prompt, genai.RoleUser),
	}
	if req.JSON {
		config.ResponseMIMEType = "application/json"
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(req.Input), config)
	if err != nil {
		return "", classifyError(err)
	}

	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", apperrors.ErrEmptyResponse
	}

	var text strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			text.WriteString(part.Text)
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return "", apperrors.ErrEmptyResponse
	}
	return strings.TrimSpace(text.String()), nil
}

// classifyError inspects the error text: the SDK reports HTTP and RPC status
// in the message.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperrors.Transient(err, "generate content")
	}

	msg := err.Error()
	for _, marker := range []string{"429", "RESOURCE_EXHAUSTED", "quota", "500", "502", "503", "504", "UNAVAILABLE", "INTERNAL", "DEADLINE_EXCEEDED"} {
		if strings.Contains(msg, marker) {
			return apperrors.Transient(err, "generate content")
		}
	}
	for _, marker := range []string{"400", "401", "403", "404", "INVALID_ARGUMENT", "PERMISSION_DENIED", "UNAUTHENTICATED", "NOT_FOUND"} {
		if strings.Contains(msg, marker) {
			return apperrors.Permanent(err, "generate content")
		}
	}
	return apperrors.Transient(err, "generate content")
}
