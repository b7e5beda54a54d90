package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Validate fails fast on settings the selected providers cannot run without.
func (c *Config) Validate() error {
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	switch c.LLM.Provider {
	case "openai":
		add(ValidateAPIKey(c.LLM.OpenAIKey, "OpenAI"))
	case "gemini":
		add(ValidateAPIKey(c.LLM.GeminiKey, "Gemini"))
	default:
		add(fmt.Errorf("LLM_PROVIDER must be openai or gemini, got %q", c.LLM.Provider))
	}
	if c.LLM.OpenAIBaseURL != "" {
		add(ValidateURL(c.LLM.OpenAIBaseURL, "OpenAI base"))
	}

	switch c.Notifier {
	case "telegram":
		if c.Telegram.Token == "" {
			add(fmt.Errorf("TELEGRAM_BOT_TOKEN is required for the telegram notifier"))
		}
		add(ValidateURL(c.Telegram.APIURL, "Telegram API"))
	case "nats":
		if c.NATS.URL == "" {
			add(fmt.Errorf("NATS_URL is required for the nats notifier"))
		}
	case "log":
	default:
		add(fmt.Errorf("NOTIFIER must be telegram, nats or log, got %q", c.Notifier))
	}

	switch c.Store.Driver {
	case "sqlite", "postgres":
		if c.Store.DatabaseURL == "" {
			add(fmt.Errorf("DATABASE_URL is required for the %s store", c.Store.Driver))
		}
	case "redis":
		if c.Store.RedisAddr == "" {
			add(fmt.Errorf("REDIS_ADDR is required for the redis store"))
		}
	case "memory":
	default:
		add(fmt.Errorf("STORE_DRIVER must be sqlite, postgres, redis or memory, got %q", c.Store.Driver))
	}

	if c.Archive.Endpoint != "" && (c.Archive.AccessKey == "" || c.Archive.SecretKey == "") {
		add(fmt.Errorf("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required when MINIO_ENDPOINT is set"))
	}

	p := c.Pipeline
	add(ValidateRetries(p.RetryMaxAttempts, "retry"))
	add(ValidateRetryDelay(p.RetryInitialInterval, "retry"))
	add(ValidateTimeout(p.InvocationTimeout, "invocation"))
	add(ValidateConcurrency(p.Workers, "worker"))
	if p.MaxResumes < 1 {
		add(fmt.Errorf("MAX_RESUMES must be at least 1"))
	}
	if p.QueueSize < 0 {
		add(fmt.Errorf("QUEUE_SIZE cannot be negative"))
	}

	return errors.Join(errs...)
}

// ValidateTimeout validates timeout duration
func ValidateTimeout(timeout time.Duration, name string) error {
	if timeout <= 0 {
		return fmt.Errorf("%s timeout must be positive", name)
	}
	if timeout > 30*time.Minute {
		return fmt.Errorf("%s timeout too large (max 30 minutes)", name)
	}
	return nil
}

// ValidateConcurrency validates concurrency setting
func ValidateConcurrency(concurrency int, name string) error {
	if concurrency <= 0 {
		return fmt.Errorf("%s concurrency must be positive", name)
	}
	if concurrency > 100 {
		return fmt.Errorf("%s concurrency too high (max 100)", name)
	}
	return nil
}

// ValidateRetries validates the attempt count of a retried operation
func ValidateRetries(attempts int, name string) error {
	if attempts < 1 {
		return fmt.Errorf("%s attempts must be at least 1", name)
	}
	if attempts > 10 {
		return fmt.Errorf("%s attempts too high (max 10)", name)
	}
	return nil
}

// ValidateRetryDelay validates retry delay
func ValidateRetryDelay(delay time.Duration, name string) error {
	if delay < 0 {
		return fmt.Errorf("%s retry delay cannot be negative", name)
	}
	if delay > time.Minute {
		return fmt.Errorf("%s retry delay too high (max 60 seconds)", name)
	}
	return nil
}

// ValidateAPIKey validates API key format
func ValidateAPIKey(apiKey string, keyType string) error {
	if apiKey == "" {
		return fmt.Errorf("%s API key is required", keyType)
	}

	switch keyType {
	case "OpenAI":
		if !strings.HasPrefix(apiKey, "sk-") {
			return fmt.Errorf("invalid OpenAI API key format: must start with 'sk-'")
		}
		if len(apiKey) < 20 {
			return fmt.Errorf("invalid OpenAI API key format: too short")
		}
	case "Gemini":
		if !strings.HasPrefix(apiKey, "AIza") {
			return fmt.Errorf("invalid Gemini API key format: must start with 'AIza'")
		}
		if len(apiKey) < 30 {
			return fmt.Errorf("invalid Gemini API key format: too short")
		}
	}

	return nil
}

// ValidateURL validates URL format
func ValidateURL(url string, name string) error {
	if url == "" {
		return fmt.Errorf("%s URL is required", name)
	}

	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return fmt.Errorf("%s URL must start with http:// or https://", name)
	}

	return nil
}
