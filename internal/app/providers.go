package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"video-qa/internal/app/common"
	"video-qa/internal/app/config"
	"video-qa/internal/app/embedding/orchestrator"
	"video-qa/internal/app/embedding/provider"
	"video-qa/internal/app/generation"
	"video-qa/internal/app/metrics"
	"video-qa/internal/app/retrieval"
	"video-qa/internal/app/retrieval/answer"
	"video-qa/internal/app/retrieval/query"
	"video-qa/internal/app/storage/vector"
	envconfig "video-qa/internal/config"
)

const defaultLexicalDimension = 1024

// offlineReply is what the mock generator answers when no model is configured
const offlineReply = "ANSWER: Offline mode: these are the closest moments found by semantic search.\nRELEVANT: 1"

// Runtime is the assembled service
type Runtime struct {
	Engine  *retrieval.Engine
	Metrics *metrics.Metrics
	Store   vector.ArtifactStore
	Config  *config.EngineConfig
}

// NewRuntime bundles the engine with what the transports need alongside it
func NewRuntime(engine *retrieval.Engine, m *metrics.Metrics, store vector.ArtifactStore, cfg *config.EngineConfig) *Runtime {
	return &Runtime{Engine: engine, Metrics: m, Store: store, Config: cfg}
}

// EmbedderSet separates the build-side embedder from the query-side one,
// which may add a Redis cache in front
type EmbedderSet struct {
	Build provider.EmbeddingProvider
	Query provider.EmbeddingProvider
}

func provideLogger(z *zap.Logger) common.Logger {
	return common.NewZapLogger(z)
}

func provideMetrics() *metrics.Metrics {
	return metrics.New()
}

func provideRecorder(m *metrics.Metrics) retrieval.Recorder {
	return m
}

func apiKey(configured string, keys *envconfig.APIKeys, providerName string) string {
	if configured != "" {
		return configured
	}
	if keys == nil {
		return ""
	}
	return keys.KeyFor(providerName)
}

func newBaseEmbedder(ctx context.Context, cfg config.EmbedderConfig, keys *envconfig.APIKeys) (provider.EmbeddingProvider, bool, error) {
	switch cfg.Provider {
	case "gemini":
		key := apiKey(cfg.APIKey, keys, "gemini")
		if key == "" {
			return nil, false, envconfig.RequireAPIKey(&envconfig.APIKeys{}, "gemini")
		}
		p, err := provider.NewGeminiProvider(ctx, key, cfg.Model, cfg.Dimension)
		return p, true, err
	case "openai":
		key := apiKey(cfg.APIKey, keys, "openai")
		if key == "" {
			return nil, false, envconfig.RequireAPIKey(&envconfig.APIKeys{}, "openai")
		}
		if cfg.Model == "" {
			return provider.NewOpenAIProvider(key), true, nil
		}
		return provider.NewOpenAIProviderWithModel(key, cfg.Model, cfg.Dimension), true, nil
	case "lexical":
		dim := cfg.Dimension
		if dim == 0 {
			dim = defaultLexicalDimension
		}
		return provider.NewLexicalProvider(dim), false, nil
	case "mock":
		dim := cfg.Dimension
		if dim == 0 {
			dim = defaultLexicalDimension
		}
		return provider.NewMockProvider(dim), false, nil
	}
	return nil, false, fmt.Errorf("unsupported embedder provider: %s", cfg.Provider)
}

func provideEmbedders(ctx context.Context, cfg *config.EngineConfig, keys *envconfig.APIKeys, logger common.Logger) (*EmbedderSet, func(), error) {
	base, remote, err := newBaseEmbedder(ctx, cfg.Embedder, keys)
	if err != nil {
		return nil, nil, err
	}

	var build provider.EmbeddingProvider = base
	if remote {
		retry := cfg.Embedder.Retry
		build = provider.NewResilientProvider(base, provider.RetryConfig{
			MaxRetries:      retry.MaxRetries,
			InitialInterval: time.Duration(retry.InitialIntervalMs) * time.Millisecond,
			MaxInterval:     time.Duration(retry.MaxIntervalMs) * time.Millisecond,
			Multiplier:      retry.Multiplier,
		}, provider.RateLimitConfig{
			RequestsPerMinute: cfg.Embedder.RateLimit.RequestsPerMinute,
			Burst:             cfg.Embedder.RateLimit.Burst,
		}, logger)
	}

	set := &EmbedderSet{Build: build, Query: build}
	cleanup := func() {}
	if addr := cfg.Embedder.Cache.RedisAddr; addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis embedding cache unavailable, continuing without it", "addr", addr, "error", err)
			client.Close()
		} else {
			ttl := time.Duration(cfg.Embedder.Cache.TTLSec) * time.Second
			set.Query = provider.NewCachedProvider(build, client, ttl, logger)
			cleanup = func() { client.Close() }
		}
	}
	return set, cleanup, nil
}

func provideStore(ctx context.Context, cfg *config.EngineConfig) (vector.ArtifactStore, func(), error) {
	var (
		store vector.ArtifactStore
		err   error
	)
	switch cfg.Storage.Backend {
	case "memory":
		store = vector.NewMemoryStore()
	case "file":
		store, err = vector.NewFileStore(cfg.Storage.Dir)
	case "sqlite", "postgres":
		dialect, derr := vector.ParseDialect(cfg.Storage.Backend)
		if derr != nil {
			return nil, nil, derr
		}
		store, err = vector.OpenSQLStore(ctx, dialect, cfg.Storage.DSN)
	case "minio":
		m := cfg.Storage.Minio
		bucket, berr := vector.NewMinioBucket(ctx, vector.MinioConfig{
			Endpoint:  m.Endpoint,
			AccessKey: m.AccessKey,
			SecretKey: m.SecretKey,
			Bucket:    m.Bucket,
			UseSSL:    m.UseSSL,
		})
		if berr != nil {
			return nil, nil, berr
		}
		store = vector.NewObjectStore(bucket, m.Prefix)
	default:
		return nil, nil, fmt.Errorf("unsupported storage backend: %s", cfg.Storage.Backend)
	}
	if err != nil {
		return nil, nil, err
	}
	return store, func() { store.Close() }, nil
}

func provideIndexBuilder(embedders *EmbedderSet, store vector.ArtifactStore, logger common.Logger, cfg *config.EngineConfig) *orchestrator.IndexBuilder {
	return orchestrator.NewIndexBuilder(embedders.Build, store, logger, orchestrator.Options{
		BatchSize: cfg.Embedder.BatchSize,
		FramesDir: cfg.Frames.Dir,
	})
}

func provideIndexCache(store vector.ArtifactStore, embedders *EmbedderSet, cfg *config.EngineConfig, recorder retrieval.Recorder) *retrieval.IndexCache {
	return retrieval.NewIndexCache(store, embedders.Query, cfg.Cache.MaxEntries, time.Duration(cfg.Cache.TTLMinutes)*time.Minute, recorder)
}

func providePlanner(cfg *config.EngineConfig) *query.Planner {
	return query.NewPlanner(cfg.Retrieval.MaxVariants)
}

func provideGenerator(ctx context.Context, cfg *config.EngineConfig, keys *envconfig.APIKeys, logger common.Logger) (generation.Generator, error) {
	g := cfg.Generator
	var inner generation.Generator
	switch g.Provider {
	case "gemini":
		key := apiKey(g.APIKey, keys, "gemini")
		if key == "" {
			return nil, envconfig.RequireAPIKey(&envconfig.APIKeys{}, "gemini")
		}
		gem, err := generation.NewGeminiGenerator(ctx, key, g.Model)
		if err != nil {
			return nil, err
		}
		inner = gem
	case "openai":
		key := apiKey(g.APIKey, keys, "openai")
		if key == "" {
			return nil, envconfig.RequireAPIKey(&envconfig.APIKeys{}, "openai")
		}
		inner = generation.NewOpenAIGenerator(key, g.Model)
	case "mock":
		return generation.NewScriptedGenerator(offlineReply), nil
	default:
		return nil, fmt.Errorf("unsupported generator provider: %s", g.Provider)
	}

	return generation.NewBreakerGenerator(inner, generation.BreakerSettings{
		MaxRequests:  g.Breaker.MaxRequests,
		Interval:     time.Duration(g.Breaker.IntervalSec) * time.Second,
		Timeout:      time.Duration(g.Breaker.TimeoutSec) * time.Second,
		MinRequests:  g.Breaker.MinRequests,
		FailureRatio: g.Breaker.FailureRatio,
	}, logger), nil
}

func provideSynthesizer(gen generation.Generator, logger common.Logger, recorder retrieval.Recorder, cfg *config.EngineConfig) *answer.Synthesizer {
	return answer.NewSynthesizer(gen, logger, answer.Options{
		Temperature:     cfg.Generator.Temperature,
		FallbackMoments: cfg.Retrieval.FallbackMoments,
		OnFallback:      recorder.SynthesisFallback,
	})
}

func provideRetrievalConfig(cfg *config.EngineConfig) retrieval.Config {
	r := cfg.Retrieval
	return retrieval.Config{
		DefaultTopK:               r.DefaultTopK,
		ProducerDefaultTopK:       r.ProducerDefaultTopK,
		VariantTopK:               r.VariantTopK,
		DedupWindowSeconds:        r.DedupWindow(),
		FetchMultiplier:           r.FetchMultiplier,
		ProductionFetchMultiplier: r.ProductionFetchMultiplier,
		SearchWorkers:             r.SearchWorkers,
	}
}
