//go:build wireinject
// +build wireinject

package app

import (
	"context"

	"github.com/google/wire"
	"reel-digest/internal/config"
)

var pipelineSet = wire.NewSet(
	provideRegistry,
	provideMetrics,
	provideRetrier,
	providePrompts,
	provideCompleter,
	provideTranscriber,
	provideClassifier,
	provideSummarizers,
	provideStore,
	provideNotifier,
	provideArchiver,
	provideMedia,
	provideCaptions,
	provideOrchestrator,
)

// InitializeApp builds the full service: pipeline, worker pool and HTTP server.
func InitializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	wire.Build(
		provideLogger,
		pipelineSet,
		provideRunner,
		provideServer,
		NewApp,
	)
	return nil, nil, nil
}
