package summary

import (
	"context"
	"fmt"
	"strings"

	"reel-digest/internal/app/api"
	apperrors "reel-digest/internal/app/errors"
	"reel-digest/internal/app/model"
	"reel-digest/internal/app/retry"
)

// Input is what a summarizer turns into a structured summary.
type Input struct {
	Transcript string
	Caption    string
	// Violation is set on the single reformulation attempt that follows a
	// schema violation.
	Violation error
}

// Text returns the transcript with the caption appended.
func (in Input) Text() string {
	req := model.Request{Transcript: in.Transcript, Caption: in.Caption}
	return req.Input()
}

// Summarizer turns a transcript into the raw JSON of one category's summary.
// The output is untrusted until it passes the schema validator.
type Summarizer interface {
	Category() model.Category
	Summarize(ctx context.Context, in Input) (string, error)
}

type promptSummarizer struct {
	contract  Contract
	prompts   *Prompts
	completer api.Completer
	retrier   *retry.Retrier
}

func (s *promptSummarizer) Category() model.Category {
	return s.contract.Category
}

func (s *promptSummarizer) Summarize(ctx context.Context, in Input) (string, error) {
	if strings.TrimSpace(in.Transcript) == "" {
		return "", apperrors.ErrEmptyTranscript
	}

	prompt := s.contract.Prompt
	if in.Violation != nil {
		prompt = s.prompts.Reformulate(prompt, in.Violation)
	}

	var raw string
	err := s.retrier.Do(ctx, "summarize_"+string(s.contract.Category), func(ctx context.Context) error {
		out, err := s.completer.Complete(ctx, api.CompletionRequest{
			Prompt: prompt,
			Input:  in.Text(),
			JSON:   true,
		})
		if err != nil {
			return err
		}
		raw = out
		return nil
	})
	if err != nil {
		return "", err
	}
	return raw, nil
}

// Set holds one summarizer per category.
type Set map[model.Category]Summarizer

// NewSet builds the four category summarizers from the prompt contracts.
func NewSet(prompts *Prompts, completer api.Completer, retrier *retry.Retrier) (Set, error) {
	set := make(Set, len(model.Categories))
	for _, c := range model.Categories {
		contract, err := prompts.Contract(c)
		if err != nil {
			return nil, err
		}
		set[c] = &promptSummarizer{
			contract:  contract,
			prompts:   prompts,
			completer: completer,
			retrier:   retrier,
		}
	}
	return set, nil
}

// For returns the summarizer for c.
func (s Set) For(c model.Category) (Summarizer, error) {
	summarizer, ok := s[c]
	if !ok {
		return nil, apperrors.Wrap(fmt.Errorf("category %q", c), apperrors.KindInternal, apperrors.ErrUnsupportedCategory.Error())
	}
	return summarizer, nil
}
