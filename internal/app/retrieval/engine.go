package retrieval

import (
	"context"
	"strings"
	"time"

	"video-qa/internal/app/common"
	"video-qa/internal/app/embedding/orchestrator"
	apperrors "video-qa/internal/app/errors"
	"video-qa/internal/app/model"
	"video-qa/internal/app/retrieval/answer"
	"video-qa/internal/app/retrieval/query"
	"video-qa/internal/app/storage/vector"
)

// Config holds the retrieval tunables
type Config struct {
	DefaultTopK               int
	ProducerDefaultTopK       int
	VariantTopK               int
	DedupWindowSeconds        int
	FetchMultiplier           int
	ProductionFetchMultiplier int
	SearchWorkers             int
}

// DefaultConfig returns the standard retrieval settings
func DefaultConfig() Config {
	return Config{
		DefaultTopK:               5,
		ProducerDefaultTopK:       15,
		VariantTopK:               10,
		DedupWindowSeconds:        3,
		FetchMultiplier:           2,
		ProductionFetchMultiplier: 3,
		SearchWorkers:             4,
	}
}

// Build outcomes reported to the Recorder
const (
	BuildSucceeded = "success"
	BuildFailed    = "failure"
)

// Engine is the public face of the retrieval core
type Engine struct {
	builder  *orchestrator.IndexBuilder
	store    vector.ArtifactStore
	cache    *IndexCache
	planner  *query.Planner
	synth    *answer.Synthesizer
	logger   common.Logger
	recorder Recorder
	cfg      Config
}

// NewEngine assembles an engine from its collaborators
func NewEngine(
	builder *orchestrator.IndexBuilder,
	store vector.ArtifactStore,
	cache *IndexCache,
	planner *query.Planner,
	synth *answer.Synthesizer,
	logger common.Logger,
	recorder Recorder,
	cfg Config,
) *Engine {
	if logger == nil {
		logger = common.NopLogger()
	}
	if recorder == nil {
		recorder = NopRecorder()
	}
	def := DefaultConfig()
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = def.DefaultTopK
	}
	if cfg.ProducerDefaultTopK <= 0 {
		cfg.ProducerDefaultTopK = def.ProducerDefaultTopK
	}
	if cfg.VariantTopK <= 0 {
		cfg.VariantTopK = def.VariantTopK
	}
	if cfg.DedupWindowSeconds < 0 {
		cfg.DedupWindowSeconds = 0
	}
	if cfg.FetchMultiplier <= 0 {
		cfg.FetchMultiplier = def.FetchMultiplier
	}
	if cfg.ProductionFetchMultiplier <= 0 {
		cfg.ProductionFetchMultiplier = def.ProductionFetchMultiplier
	}
	if cfg.SearchWorkers <= 0 {
		cfg.SearchWorkers = def.SearchWorkers
	}
	return &Engine{
		builder:  builder,
		store:    store,
		cache:    cache,
		planner:  planner,
		synth:    synth,
		logger:   logger,
		recorder: recorder,
		cfg:      cfg,
	}
}

// BuildIndex builds and commits the index set for videoID, then drops any
// cached handles so the next search sees the new snapshot
func (e *Engine) BuildIndex(ctx context.Context, videoID string, frames []model.FrameDescriptor, progress orchestrator.ProgressFunc) (*orchestrator.BuildReport, error) {
	start := time.Now()
	report, err := e.builder.Build(ctx, videoID, frames, progress)
	if err != nil {
		e.recorder.BuildObserved(BuildFailed, time.Since(start), len(frames))
		return nil, err
	}
	e.cache.Invalidate(videoID)
	e.recorder.BuildObserved(BuildSucceeded, time.Since(start), report.FramesIndexed)
	return report, nil
}

// IndexExists reports whether a complete index set is ready for videoID
func (e *Engine) IndexExists(ctx context.Context, videoID string) (bool, error) {
	if err := model.ValidateVideoID(videoID); err != nil {
		return false, err
	}
	return e.store.Exists(ctx, videoID)
}

// Manifest returns the description of the committed index set
func (e *Engine) Manifest(ctx context.Context, videoID string) (*vector.Manifest, error) {
	if err := model.ValidateVideoID(videoID); err != nil {
		return nil, err
	}
	return e.store.LoadManifest(ctx, videoID)
}

// BuildStatus returns the progress of a running build
func (e *Engine) BuildStatus(videoID string) (orchestrator.BuildStatus, bool) {
	return e.builder.Status(videoID)
}

// SearchWithAnswer runs the multi-query search and synthesizes an answer from its results
func (e *Engine) SearchWithAnswer(ctx context.Context, videoID, q string, role model.Role, topK int) (*model.AnswerBundle, error) {
	results, err := e.SearchMulti(ctx, videoID, q, role, topK)
	if err != nil {
		return nil, err
	}
	bundle := e.synth.Synthesize(ctx, strings.TrimSpace(q), role, results)
	return &bundle, nil
}

func (e *Engine) validate(videoID, q string, role model.Role, topK int) error {
	if err := model.ValidateVideoID(videoID); err != nil {
		return err
	}
	if strings.TrimSpace(q) == "" {
		return apperrors.ErrEmptyQuery
	}
	if !role.Valid() {
		return apperrors.Wrapf(apperrors.ErrUnknownRole, "role %q", string(role))
	}
	if topK < 0 {
		return apperrors.InvalidField("top_k", "must not be negative")
	}
	return nil
}

// resolveTopK applies the per-role default when the caller passed 0
func (e *Engine) resolveTopK(role model.Role, topK int) int {
	if topK > 0 {
		return topK
	}
	if role == model.RoleProduction {
		return e.cfg.ProducerDefaultTopK
	}
	return e.cfg.DefaultTopK
}
