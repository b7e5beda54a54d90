// Package classifier assigns one content category to a transcript.
package classifier

import (
	"context"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"reel-digest/internal/app/api"
	apperrors "reel-digest/internal/app/errors"
	"reel-digest/internal/app/model"
	"reel-digest/internal/app/retry"
)

// Classifier labels transcripts using a language model. Provider failures
// and unrecognised labels fall back to the general category.
type Classifier struct {
	prompt    string
	completer api.Completer
	retrier   *retry.Retrier
	logger    *zap.Logger
}

// New creates a Classifier that sends prompt as the system instruction.
func New(prompt string, completer api.Completer, retrier *retry.Retrier, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{
		prompt:    prompt,
		completer: completer,
		retrier:   retrier,
		logger:    logger,
	}
}

// Classify returns exactly one category for transcript. It only fails when
// the transcript is empty or ctx is done.
func (c *Classifier) Classify(ctx context.Context, transcript string) (model.Category, error) {
	if strings.TrimSpace(transcript) == "" {
		return "", apperrors.ErrEmptyTranscript
	}

	var reply string
	err := c.retrier.Do(ctx, "classify", func(ctx context.Context) error {
		out, err := c.completer.Complete(ctx, api.CompletionRequest{
			Prompt: c.prompt,
			Input:  transcript,
		})
		if err != nil {
			return err
		}
		reply = out
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", apperrors.Transient(ctxErr, "classify")
		}
		c.logger.Warn("classification failed, using fallback category",
			zap.String("kind", string(apperrors.KindInvalidClassification)),
			zap.String("category", string(model.CategoryGeneral)),
			zap.Error(err),
		)
		return model.CategoryGeneral, nil
	}

	category, err := model.ParseCategory(Normalize(reply))
	if err != nil {
		c.logger.Warn("unrecognised classification label, using fallback category",
			zap.String("kind", string(apperrors.KindInvalidClassification)),
			zap.String("label", reply),
			zap.String("category", string(model.CategoryGeneral)),
		)
		return model.CategoryGeneral, nil
	}
	return category, nil
}

// Normalize reduces a raw provider reply to a bare lowercase label. Only the
// first word is kept.
func Normalize(reply string) string {
	reply = strings.ToLower(strings.TrimSpace(reply))
	reply = strings.TrimFunc(reply, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
	if fields := strings.Fields(reply); len(fields) > 0 {
		reply = fields[0]
	}
	return strings.TrimFunc(reply, unicode.IsPunct)
}
