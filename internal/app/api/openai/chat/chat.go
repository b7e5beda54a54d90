package chat

import (
	"context"
	"strings"

	"github.com/sashabaranov/go-openai"
	"reel-digest/internal/app/api"
	openai2 "reel-digest/internal/app/api/openai"
	apperrors "reel-digest/internal/app/errors"
)

// DefaultModel matches the model the summaries were tuned against.
const DefaultModel = openai.GPT4oMini

// Completer implements api.Completer with the chat completions endpoint.
type Completer struct {
	client *openai.Client
	model  string
}

// NewCompleter creates a chat completer. An empty model selects DefaultModel.
func NewCompleter(client *openai.Client, model string) *Completer {
	if model == "" {
		model = DefaultModel
	}
	return &Completer{client: client, model: model}
}

// Complete sends the prompt as the system message and the input as the user
// message. JSON requests use the json_object response format.
func (c *Completer) Complete(ctx context.Context, req api.CompletionRequest) (string, error) {
	request := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: req.Prompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.Input,
			},
		},
	}
	if req.JSON {
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return "", openai2.ClassifyError(err, "chat completion failed")
	}
	if len(resp.Choices) == 0 {
		return "", apperrors.ErrEmptyResponse
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", apperrors.ErrEmptyResponse
	}
	return content, nil
}
