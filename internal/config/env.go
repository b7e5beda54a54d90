package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full runtime configuration. It is built once by Load and
// passed to constructors.
type Config struct {
	Environment string
	HTTPAddr    string
	MediaDir    string
	PromptsFile string

	LLM      LLMConfig
	Telegram TelegramConfig
	Notifier string
	NATS     NATSConfig
	Store    StoreConfig
	Archive  ArchiveConfig
	Pipeline PipelineConfig
}

// LLMConfig selects the language model and transcription providers.
type LLMConfig struct {
	Provider        string
	Model           string
	OpenAIKey       string
	OpenAIBaseURL   string
	GeminiKey       string
	TranscribeModel string
}

// TelegramConfig holds the bot credentials.
type TelegramConfig struct {
	Token  string
	APIURL string
	// WebhookSecret, when set, must match the
	// X-Telegram-Bot-Api-Secret-Token header of webhook calls.
	WebhookSecret string
}

// NATSConfig holds the NATS notifier settings.
type NATSConfig struct {
	URL     string
	Subject string
}

// StoreConfig selects the result store.
type StoreConfig struct {
	Driver        string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// ArchiveConfig holds the MinIO archive settings. The archive is disabled
// when Endpoint is empty.
type ArchiveConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// PipelineConfig tunes retries, timeouts and the worker pool.
type PipelineConfig struct {
	RetryMaxAttempts     int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	InvocationTimeout    time.Duration
	MaxResumes           int
	Workers              int
	QueueSize            int
}

// Development reports whether the development logger should be used.
func (c *Config) Development() bool {
	return c.Environment == "development"
}

// LoadEnv loads the first .env file found in the usual locations. A missing
// file is not an error since variables may be set in the environment. It
// returns the path it loaded, if any.
func LoadEnv() (string, error) {
	envPaths := []string{
		".env",
		".env.local",
		"../.env",
		"../../.env",
	}

	for _, envPath := range envPaths {
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				return "", fmt.Errorf("error loading %s file: %w", envPath, err)
			}
			return envPath, nil
		}
	}
	return "", nil
}

// Load reads .env and the process environment into a validated Config.
func Load() (*Config, error) {
	if _, err := LoadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}
	cfg, err := FromEnv(os.Getenv)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv builds a Config from getenv without validating it.
func FromEnv(getenv func(string) string) (*Config, error) {
	r := envReader{getenv: getenv}

	cfg := &Config{
		Environment: r.str("ENVIRONMENT", DefaultEnvironment),
		HTTPAddr:    r.str("HTTP_ADDR", DefaultHTTPAddr),
		MediaDir:    r.str("MEDIA_DIR", DefaultMediaDir),
		PromptsFile: r.str("PROMPTS_FILE", ""),
		LLM: LLMConfig{
			Provider:        strings.ToLower(r.str("LLM_PROVIDER", DefaultLLMProvider)),
			Model:           r.str("LLM_MODEL", ""),
			OpenAIKey:       r.str("OPENAI_API_KEY", ""),
			OpenAIBaseURL:   r.str("OPENAI_BASE_URL", ""),
			GeminiKey:       r.str("GEMINI_API_KEY", ""),
			TranscribeModel: r.str("TRANSCRIBE_MODEL", DefaultTranscribeModel),
		},
		Telegram: TelegramConfig{
			Token:         r.str("TELEGRAM_BOT_TOKEN", ""),
			APIURL:        r.str("TELEGRAM_API_URL", DefaultTelegramAPI),
			WebhookSecret: r.str("TELEGRAM_WEBHOOK_SECRET", ""),
		},
		Notifier: strings.ToLower(r.str("NOTIFIER", DefaultNotifier)),
		NATS: NATSConfig{
			URL:     r.str("NATS_URL", ""),
			Subject: r.str("NATS_SUBJECT", DefaultNATSSubject),
		},
		Store: StoreConfig{
			Driver:        strings.ToLower(r.str("STORE_DRIVER", DefaultStoreDriver)),
			DatabaseURL:   r.str("DATABASE_URL", ""),
			RedisAddr:     r.str("REDIS_ADDR", ""),
			RedisPassword: r.str("REDIS_PASSWORD", ""),
			RedisDB:       r.integer("REDIS_DB", 0),
			RedisPrefix:   r.str("REDIS_PREFIX", DefaultRedisPrefix),
		},
		Archive: ArchiveConfig{
			Endpoint:  r.str("MINIO_ENDPOINT", ""),
			AccessKey: r.str("MINIO_ACCESS_KEY", ""),
			SecretKey: r.str("MINIO_SECRET_KEY", ""),
			Bucket:    r.str("MINIO_BUCKET", DefaultMinioBucket),
			UseSSL:    r.boolean("MINIO_USE_SSL", false),
		},
		Pipeline: PipelineConfig{
			RetryMaxAttempts:     r.integer("RETRY_MAX_ATTEMPTS", DefaultRetryMaxAttempts),
			RetryInitialInterval: r.duration("RETRY_INITIAL_INTERVAL", DefaultRetryInitialInterval),
			RetryMaxInterval:     r.duration("RETRY_MAX_INTERVAL", DefaultRetryMaxInterval),
			InvocationTimeout:    r.duration("INVOCATION_TIMEOUT", DefaultInvocationTimeout),
			MaxResumes:           r.integer("MAX_RESUMES", DefaultMaxResumes),
			Workers:              r.integer("WORKERS", DefaultWorkers),
			QueueSize:            r.integer("QUEUE_SIZE", DefaultQueueSize),
		},
	}
	if cfg.Store.Driver == "sqlite" && cfg.Store.DatabaseURL == "" {
		cfg.Store.DatabaseURL = DefaultSQLitePath
	}

	if err := errors.Join(r.errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envReader reads typed values and collects parse errors.
type envReader struct {
	getenv func(string) string
	errs   []error
}

func (r *envReader) str(key, def string) string {
	if v := strings.TrimSpace(r.getenv(key)); v != "" {
		return v
	}
	return def
}

func (r *envReader) integer(key string, def int) int {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: invalid integer %q", key, v))
		return def
	}
	return n
}

func (r *envReader) boolean(key string, def bool) bool {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: invalid boolean %q", key, v))
		return def
	}
	return b
}

func (r *envReader) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: invalid duration %q", key, v))
		return def
	}
	return d
}

// LoadUnvalidated reads .env and the environment without checking provider
// credentials, for commands that only touch the result store.
func LoadUnvalidated() (*Config, error) {
	if _, err := LoadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}
	return FromEnv(os.Getenv)
}
