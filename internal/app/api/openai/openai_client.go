package openai

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/sashabaranov/go-openai"
	apperrors "reel-digest/internal/app/errors"
)

// Config holds the credentials and endpoint for the OpenAI API.
type Config struct {
	APIKey  string
	BaseURL string
}

// NewClient builds a client from explicit configuration.
func NewClient(cfg Config) (*openai.Client, error) {
	if cfg.APIKey == "" {
		return nil, apperrors.ErrMissingAPIKey
	}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(clientConfig), nil
}

// ClassifyError maps a go-openai error onto the transient/permanent taxonomy.
// Rate limits, timeouts, conflicts and 5xx responses are transient; other
// HTTP errors are permanent.
func ClassifyError(err error, op string) error {
	if err == nil {
		return nil
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if retriableStatus(apiErr.HTTPStatusCode) {
			return apperrors.Transient(err, op)
		}
		return apperrors.Permanent(err, op)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if retriableStatus(reqErr.HTTPStatusCode) {
			return apperrors.Transient(err, op)
		}
		return apperrors.Permanent(err, op)
	}

	if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
		return apperrors.Permanent(err, op)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperrors.Transient(err, op)
	}

	// Network failures, connection resets and truncated bodies.
	return apperrors.Transient(err, op)
}

func retriableStatus(code int) bool {
	switch {
	case code == http.StatusRequestTimeout,
		code == http.StatusConflict,
		code == http.StatusTooManyRequests,
		code >= http.StatusInternalServerError:
		return true
	}
	return false
}
