package config

import "time"

// Defaults applied when the environment leaves a setting unset.
const (
	DefaultEnvironment = "production"
	DefaultHTTPAddr    = ":8080"

	DefaultLLMProvider     = "openai"
	DefaultTranscribeModel = "whisper-1"
	DefaultTelegramAPI     = "https://api.telegram.org"

	DefaultNotifier    = "telegram"
	DefaultNATSSubject = "reels.notifications"

	DefaultStoreDriver = "sqlite"
	DefaultSQLitePath  = "data/reel-digest.db"
	DefaultRedisPrefix = "reel"

	DefaultMinioBucket = "reel-summaries"
	DefaultMediaDir    = "media"

	DefaultRetryMaxAttempts     = 3
	DefaultRetryInitialInterval = time.Second
	DefaultRetryMaxInterval     = 8 * time.Second
	DefaultInvocationTimeout    = 5 * time.Minute
	DefaultMaxResumes           = 3
	DefaultWorkers              = 4
	DefaultQueueSize            = 64
)
