//go:build wireinject
// +build wireinject

package app

import (
	"context"

	"github.com/google/wire"
	"go.uber.org/zap"

	"video-qa/internal/app/config"
	"video-qa/internal/app/retrieval"
	envconfig "video-qa/internal/config"
)

var engineSet = wire.NewSet(
	provideLogger,
	provideMetrics,
	provideRecorder,
	provideEmbedders,
	provideStore,
	provideIndexBuilder,
	provideIndexCache,
	providePlanner,
	provideGenerator,
	provideSynthesizer,
	provideRetrievalConfig,
	retrieval.NewEngine,
	NewRuntime,
)

// InitializeRuntime assembles the engine and its collaborators from configuration
func InitializeRuntime(ctx context.Context, cfg *config.EngineConfig, keys *envconfig.APIKeys, logger *zap.Logger) (*Runtime, func(), error) {
	wire.Build(engineSet)
	return &Runtime{}, nil, nil
}
