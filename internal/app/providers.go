package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"reel-digest/internal/api/server"
	"reel-digest/internal/app/api"
	"reel-digest/internal/app/api/gemini"
	"reel-digest/internal/app/api/openai"
	"reel-digest/internal/app/api/openai/chat"
	"reel-digest/internal/app/api/openai/whisper"
	"reel-digest/internal/app/classifier"
	"reel-digest/internal/app/common"
	"reel-digest/internal/app/notify"
	"reel-digest/internal/app/pipeline"
	"reel-digest/internal/app/reel"
	"reel-digest/internal/app/repository"
	"reel-digest/internal/app/repository/memory"
	"reel-digest/internal/app/repository/pg"
	"reel-digest/internal/app/repository/redis"
	"reel-digest/internal/app/repository/sqlite"
	"reel-digest/internal/app/retry"
	"reel-digest/internal/app/storage/archive"
	"reel-digest/internal/app/summary"
	"reel-digest/internal/config"
)

// App is everything the serve and process commands run.
type App struct {
	Config       *config.Config
	Logger       *zap.Logger
	Store        repository.ResultStore
	Notifier     notify.Notifier
	Orchestrator *pipeline.Orchestrator
	Runner       *pipeline.Runner
	Server       *server.Server
}

func NewApp(
	cfg *config.Config,
	logger *zap.Logger,
	store repository.ResultStore,
	notifier notify.Notifier,
	orchestrator *pipeline.Orchestrator,
	runner *pipeline.Runner,
	srv *server.Server,
) *App {
	return &App{
		Config:       cfg,
		Logger:       logger,
		Store:        store,
		Notifier:     notifier,
		Orchestrator: orchestrator,
		Runner:       runner,
		Server:       srv,
	}
}

func provideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	logger, err := common.NewLogger(cfg.Development())
	if err != nil {
		return nil, nil, err
	}
	return logger, func() { _ = logger.Sync() }, nil
}

func provideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func provideMetrics(reg *prometheus.Registry) *pipeline.Metrics {
	return pipeline.NewMetrics(reg)
}

func provideRetrier(cfg *config.Config, logger *zap.Logger, metrics *pipeline.Metrics) *retry.Retrier {
	policy := retry.DefaultPolicy()
	policy.MaxAttempts = cfg.Pipeline.RetryMaxAttempts
	policy.InitialInterval = cfg.Pipeline.RetryInitialInterval
	policy.MaxInterval = cfg.Pipeline.RetryMaxInterval
	return retry.New(policy, logger.Named("retry")).WithObserver(metrics.ObserveRetry)
}

func providePrompts(cfg *config.Config) (*summary.Prompts, error) {
	return summary.LoadPrompts(cfg.PromptsFile)
}

func provideCompleter(ctx context.Context, cfg *config.Config) (api.Completer, error) {
	switch cfg.LLM.Provider {
	case "gemini":
		return gemini.NewCompleter(ctx, cfg.LLM.GeminiKey, cfg.LLM.Model)
	case "openai":
		client, err := openai.NewClient(openai.Config{APIKey: cfg.LLM.OpenAIKey, BaseURL: cfg.LLM.OpenAIBaseURL})
		if err != nil {
			return nil, err
		}
		return chat.NewCompleter(client, cfg.LLM.Model), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLM.Provider)
	}
}

// provideTranscriber returns nil without an OpenAI key. Submissions must
// then carry a transcript.
func provideTranscriber(cfg *config.Config) (api.Transcriber, error) {
	if cfg.LLM.OpenAIKey == "" {
		return nil, nil
	}
	client, err := openai.NewClient(openai.Config{APIKey: cfg.LLM.OpenAIKey, BaseURL: cfg.LLM.OpenAIBaseURL})
	if err != nil {
		return nil, err
	}
	return whisper.NewRemoteTranscriber(client, cfg.LLM.TranscribeModel), nil
}

func provideClassifier(prompts *summary.Prompts, completer api.Completer, retrier *retry.Retrier, logger *zap.Logger) pipeline.Classifier {
	return classifier.New(prompts.Classification, completer, retrier, logger.Named("classifier"))
}

func provideSummarizers(prompts *summary.Prompts, completer api.Completer, retrier *retry.Retrier) (summary.Set, error) {
	return summary.NewSet(prompts, completer, retrier)
}

// provideStore opens the configured result store.
func provideStore(ctx context.Context, cfg *config.Config) (repository.ResultStore, func(), error) {
	store, err := OpenStore(ctx, cfg.Store)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { _ = store.Close() }, nil
}

// OpenStore opens a result store by driver name.
func OpenStore(ctx context.Context, sc config.StoreConfig) (repository.ResultStore, error) {
	switch sc.Driver {
	case "sqlite":
		return sqlite.Open(ctx, sc.DatabaseURL)
	case "postgres":
		return pg.Open(ctx, sc.DatabaseURL)
	case "redis":
		return redis.Open(ctx, redis.Options{
			Addr:     sc.RedisAddr,
			Password: sc.RedisPassword,
			DB:       sc.RedisDB,
			Prefix:   sc.RedisPrefix,
		})
	case "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", sc.Driver)
	}
}

func provideNotifier(cfg *config.Config, logger *zap.Logger) (notify.Notifier, func(), error) {
	switch cfg.Notifier {
	case "telegram":
		n, err := notify.NewTelegramNotifier(cfg.Telegram.APIURL, cfg.Telegram.Token, &http.Client{Timeout: 30 * time.Second})
		if err != nil {
			return nil, nil, err
		}
		return n, func() {}, nil
	case "nats":
		conn, err := notify.ConnectNATS(cfg.NATS.URL, 10*time.Second)
		if err != nil {
			return nil, nil, err
		}
		return notify.NewNATSNotifier(conn, cfg.NATS.Subject), func() { _ = conn.Drain() }, nil
	case "log":
		return notify.NewLogNotifier(logger.Named("notify")), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown notifier %q", cfg.Notifier)
	}
}

// provideArchiver returns nil when no MinIO endpoint is configured.
func provideArchiver(ctx context.Context, cfg *config.Config) (archive.Archiver, error) {
	if cfg.Archive.Endpoint == "" {
		return nil, nil
	}
	a, err := archive.NewMinioArchiver(ctx, archive.Config{
		Endpoint:  cfg.Archive.Endpoint,
		AccessKey: cfg.Archive.AccessKey,
		SecretKey: cfg.Archive.SecretKey,
		Bucket:    cfg.Archive.Bucket,
		UseSSL:    cfg.Archive.UseSSL,
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func provideMedia(cfg *config.Config) pipeline.MediaResolver {
	return reel.MediaLocator{Dir: cfg.MediaDir}
}

func provideCaptions() pipeline.CaptionSource {
	return reel.NewCaptionFetcher(&http.Client{Timeout: 15 * time.Second})
}

func provideOrchestrator(
	cfg *config.Config,
	store repository.ResultStore,
	cls pipeline.Classifier,
	summarizers summary.Set,
	notifier notify.Notifier,
	retrier *retry.Retrier,
	transcriber api.Transcriber,
	media pipeline.MediaResolver,
	captions pipeline.CaptionSource,
	archiver archive.Archiver,
	metrics *pipeline.Metrics,
	logger *zap.Logger,
) (*pipeline.Orchestrator, error) {
	opts := pipeline.DefaultOptions()
	opts.InvocationTimeout = cfg.Pipeline.InvocationTimeout
	opts.MaxResumes = cfg.Pipeline.MaxResumes

	return pipeline.New(pipeline.Dependencies{
		Store:       store,
		Classifier:  cls,
		Summarizers: summarizers,
		Notifier:    notifier,
		Retrier:     retrier,
		Transcriber: transcriber,
		Media:       media,
		Captions:    captions,
		Archiver:    archiver,
		Metrics:     metrics,
		Logger:      logger.Named("pipeline"),
	}, opts)
}

func provideRunner(cfg *config.Config, orchestrator *pipeline.Orchestrator, logger *zap.Logger) *pipeline.Runner {
	return pipeline.NewRunner(orchestrator, cfg.Pipeline.Workers, cfg.Pipeline.QueueSize, logger.Named("runner"))
}

func provideServer(
	cfg *config.Config,
	runner *pipeline.Runner,
	store repository.ResultStore,
	notifier notify.Notifier,
	reg *prometheus.Registry,
	logger *zap.Logger,
) *server.Server {
	sc := server.DefaultConfig(cfg.HTTPAddr, cfg.Environment)
	sc.WebhookSecret = cfg.Telegram.WebhookSecret
	return server.NewServer(sc, server.Dependencies{
		Submitter: runner,
		Records:   store,
		Notifier:  notifier,
		Gatherer:  reg,
		Logger:    logger.Named("http"),
	})
}
