//go:build !wireinject
// +build !wireinject

package app

import (
	"context"

	"go.uber.org/zap"

	"video-qa/internal/app/config"
	"video-qa/internal/app/retrieval"
	envconfig "video-qa/internal/config"
)

// Hand-written builds of the injectors declared in wire.go; keep them in step with engineSet.

// InitializeRuntime assembles the engine and its collaborators from configuration
func InitializeRuntime(ctx context.Context, cfg *config.EngineConfig, keys *envconfig.APIKeys, logger *zap.Logger) (*Runtime, func(), error) {
	commonLogger := provideLogger(logger)
	embedderSet, cleanup, err := provideEmbedders(ctx, cfg, keys, commonLogger)
	if err != nil {
		return nil, nil, err
	}
	artifactStore, cleanup2, err := provideStore(ctx, cfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	indexBuilder := provideIndexBuilder(embedderSet, artifactStore, commonLogger, cfg)
	metricsMetrics := provideMetrics()
	recorder := provideRecorder(metricsMetrics)
	indexCache := provideIndexCache(artifactStore, embedderSet, cfg, recorder)
	planner := providePlanner(cfg)
	generator, err := provideGenerator(ctx, cfg, keys, commonLogger)
	if err != nil {
		cleanup2()
		cleanup()
		return nil, nil, err
	}
	synthesizer := provideSynthesizer(generator, commonLogger, recorder, cfg)
	retrievalConfig := provideRetrievalConfig(cfg)
	engine := retrieval.NewEngine(indexBuilder, artifactStore, indexCache, planner, synthesizer, commonLogger, recorder, retrievalConfig)
	runtime := NewRuntime(engine, metricsMetrics, artifactStore, cfg)
	return runtime, func() {
		cleanup2()
		cleanup()
	}, nil
}
