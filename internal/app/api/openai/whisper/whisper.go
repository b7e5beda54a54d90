package whisper

import (
	"context"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"
	openai2 "reel-digest/internal/app/api/openai"
	apperrors "reel-digest/internal/app/errors"
)

// RemoteTranscriber implements remote transcription using the OpenAI API.
type RemoteTranscriber struct {
	client *openai.Client
	model  string
}

// NewRemoteTranscriber creates a new RemoteTranscriber instance.
func NewRemoteTranscriber(client *openai.Client, model string) *RemoteTranscriber {
	if model == "" {
		model = openai.Whisper1
	}
	return &RemoteTranscriber{client: client, model: model}
}

// Transcript uses the OpenAI API for remote transcription.
func (rt *RemoteTranscriber) Transcript(ctx context.Context, inputFilePath string) (string, error) {
	if _, err := os.Stat(inputFilePath); err != nil {
		return "", apperrors.Permanent(err, "audio file unavailable")
	}

	req := openai.AudioRequest{
		Model:    rt.model,
		FilePath: inputFilePath,
	}
	resp, err := rt.client.CreateTranscription(ctx, req)
	if err != nil {
		return "", openai2.ClassifyError(err, "createTranscription failed")
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", apperrors.ErrEmptyTranscript
	}
	return text, nil
}
