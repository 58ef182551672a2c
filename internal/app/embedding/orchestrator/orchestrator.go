package orchestrator

import (
	"context"
	"errors"
	"strings"
	"time"

	"video-qa/internal/app/common"
	"video-qa/internal/app/descriptor"
	"video-qa/internal/app/embedding/provider"
	apperrors "video-qa/internal/app/errors"
	"video-qa/internal/app/model"
	"video-qa/internal/app/storage/vector"
)

const DefaultBatchSize = 16

// ProgressFunc receives the number of frames embedded so far
type ProgressFunc func(done, total int)

// BuildReport summarizes a finished build
type BuildReport struct {
	VideoID        string        `json:"video_id"`
	FramesTotal    int           `json:"frames_total"`
	FramesIndexed  int           `json:"frames_indexed"`
	FramesSkipped  int           `json:"frames_skipped"`
	SkippedSeconds []int         `json:"skipped_seconds,omitempty"`
	Dimension      int           `json:"dimension"`
	Duration       time.Duration `json:"duration"`
}

// Options configures an IndexBuilder
type Options struct {
	BatchSize int
	FramesDir string
}

// IndexBuilder turns a video's frame descriptors into one index per role
// plus the shared metadata table, committed as a single unit
type IndexBuilder struct {
	embedder provider.EmbeddingProvider
	store    vector.ArtifactStore
	logger   common.Logger
	locks    *KeyedMutex
	status   *statusBoard
	opts     Options
	now      func() time.Time
}

// NewIndexBuilder creates a new index builder
func NewIndexBuilder(
	embedder provider.EmbeddingProvider,
	store vector.ArtifactStore,
	logger common.Logger,
	opts Options,
) *IndexBuilder {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.FramesDir == "" {
		opts.FramesDir = "frames"
	}
	if logger == nil {
		logger = common.NopLogger()
	}
	return &IndexBuilder{
		embedder: embedder,
		store:    store,
		logger:   logger,
		locks:    NewKeyedMutex(),
		status:   newStatusBoard(),
		opts:     opts,
		now:      time.Now,
	}
}

// Status returns the live state of a running build
func (b *IndexBuilder) Status(videoID string) (BuildStatus, bool) {
	return b.status.get(videoID)
}

// IsBuilding reports whether a build for videoID holds the lock
func (b *IndexBuilder) IsBuilding(videoID string) bool {
	return b.locks.Held(videoID)
}

// Build embeds, indexes and commits frames for videoID.
// Only one build per video runs at a time; a second caller waits for the first.
func (b *IndexBuilder) Build(ctx context.Context, videoID string, frames []model.FrameDescriptor, progress ProgressFunc) (*BuildReport, error) {
	if err := model.ValidateVideoID(videoID); err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, apperrors.ErrNoDescriptors
	}

	unlock, err := b.locks.Lock(ctx, videoID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	start := b.now()
	kept, skipped := b.filter(videoID, frames)
	if len(kept) == 0 {
		return nil, apperrors.Wrapf(apperrors.ErrNoSurvivingFrames, "video %s: all %d frames lack a role text", videoID, len(frames))
	}

	b.logger.Info("Starting index build",
		"videoID", videoID,
		"frames", len(kept),
		"skipped", len(skipped),
		"provider", b.embedder.GetProviderInfo().Name)

	batches := batchCount(len(kept), b.opts.BatchSize)
	b.status.start(videoID, len(kept), batches, start)
	defer b.status.finish(videoID)

	roles := model.AllRoles()
	vectors := make([][][]float32, len(roles))
	for i := 0; i < len(kept); i += b.opts.BatchSize {
		if err := ctx.Err(); err != nil {
			b.logger.Warn("Index build cancelled", "videoID", videoID, "framesDone", i)
			return nil, err
		}

		end := min(i+b.opts.BatchSize, len(kept))
		batch := kept[i:end]
		rv, err := embedBatch(ctx, b.embedder, batch)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			b.logger.Error("Embedding failed, aborting build", "videoID", videoID, "batch", i/b.opts.BatchSize+1, "error", err)
			return nil, apperrors.Upstream(err, apperrors.ErrEmbeddingFailed.Error())
		}
		for r := range roles {
			vectors[r] = append(vectors[r], rv[r]...)
		}

		b.status.advance(videoID, i/b.opts.BatchSize+1, end, b.now())
		if progress != nil {
			for done := i + 1; done <= end; done++ {
				progress(done, len(kept))
			}
		}
		b.logger.Debug("Batch embedded", "videoID", videoID, "progress", float64(end)/float64(len(kept))*100)
	}

	set, err := b.assemble(videoID, kept, vectors)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := b.store.Commit(ctx, set); err != nil {
		return nil, apperrors.Wrapf(err, "failed to commit index set for %s", videoID)
	}

	report := &BuildReport{
		VideoID:        videoID,
		FramesTotal:    len(frames),
		FramesIndexed:  len(kept),
		FramesSkipped:  len(skipped),
		SkippedSeconds: skipped,
		Dimension:      set.Manifest.Dimension,
		Duration:       b.now().Sub(start),
	}
	b.logger.Info("Index build finished",
		"videoID", videoID,
		"indexed", report.FramesIndexed,
		"skipped", report.FramesSkipped,
		"duration", report.Duration)
	return report, nil
}

// filter derives missing texts and drops every frame lacking a text for any role,
// so all role indices stay positionally aligned
func (b *IndexBuilder) filter(videoID string, frames []model.FrameDescriptor) ([]model.FrameDescriptor, []int) {
	kept := make([]model.FrameDescriptor, 0, len(frames))
	var skipped []int
	for _, f := range frames {
		texts := make(map[model.Role]string, 3)
		for role, text := range f.Texts {
			texts[role] = text
		}
		f.Texts = texts
		if f.SceneID == "" {
			f.SceneID = model.DefaultSceneID
		}
		descriptor.DeriveTexts(&f)

		complete := true
		for _, role := range model.AllRoles() {
			if strings.TrimSpace(f.Text(role)) == "" {
				complete = false
				break
			}
		}
		if !complete {
			b.logger.Warn("Skipping frame with missing embedding text", "videoID", videoID, "second", f.Second)
			skipped = append(skipped, f.Second)
			continue
		}
		kept = append(kept, f)
	}
	return kept, skipped
}

func (b *IndexBuilder) assemble(videoID string, kept []model.FrameDescriptor, vectors [][][]float32) (*vector.IndexSet, error) {
	roles := model.AllRoles()
	indices := make(map[model.Role]*vector.FlatIndex, len(roles))
	for r, role := range roles {
		if len(vectors[r]) != len(kept) || len(vectors[r][0]) == 0 {
			return nil, apperrors.Newf("%s embeddings: got %d vectors for %d frames", role, len(vectors[r]), len(kept))
		}
		ix := vector.NewFlatIndex(len(vectors[r][0]))
		if err := ix.Add(vectors[r]...); err != nil {
			return nil, apperrors.Wrapf(err, "failed to build %s index", role)
		}
		indices[role] = ix
	}

	rows := make([]model.MetadataRow, len(kept))
	for i, f := range kept {
		rows[i] = model.MetadataRow{
			Position:   i,
			Second:     f.Second,
			SceneID:    f.SceneID,
			FramePath:  model.FramePath(b.opts.FramesDir, videoID, f.Second),
			Technical:  f.Text(model.RoleTechnical),
			Content:    f.Text(model.RoleContent),
			Production: f.Text(model.RoleProduction),
			Payload:    f.Payload,
		}
	}

	info := b.embedder.GetProviderInfo()
	return &vector.IndexSet{
		Manifest: vector.Manifest{
			VideoID:  videoID,
			Provider: info.Name,
			Model:    info.Model,
			BuiltAt:  b.now().UTC(),
		},
		Indices:  indices,
		Metadata: rows,
	}, nil
}
