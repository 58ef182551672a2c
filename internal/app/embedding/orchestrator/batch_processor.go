package orchestrator

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"video-qa/internal/app/embedding/provider"
	"video-qa/internal/app/model"
)

// BuildStatus is the live state of one video's build
type BuildStatus struct {
	VideoID      string    `json:"video_id"`
	IsBuilding   bool      `json:"is_building"`
	FramesDone   int       `json:"frames_done"`
	FramesTotal  int       `json:"frames_total"`
	CurrentBatch int       `json:"current_batch"`
	TotalBatches int       `json:"total_batches"`
	Progress     float64   `json:"progress"`
	StartTime    time.Time `json:"start_time"`
	ETA          time.Time `json:"eta,omitempty"`
}

// statusBoard tracks running builds for status queries
type statusBoard struct {
	mu       sync.RWMutex
	statuses map[string]*BuildStatus
}

func newStatusBoard() *statusBoard {
	return &statusBoard{statuses: make(map[string]*BuildStatus)}
}

func (b *statusBoard) start(videoID string, total, batches int, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.statuses[videoID] = &BuildStatus{
		VideoID:      videoID,
		IsBuilding:   true,
		FramesTotal:  total,
		TotalBatches: batches,
		StartTime:    now,
	}
}

func (b *statusBoard) advance(videoID string, batch, done int, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.statuses[videoID]
	if !ok {
		return
	}
	s.CurrentBatch = batch
	s.FramesDone = done
	if s.FramesTotal > 0 {
		s.Progress = float64(done) / float64(s.FramesTotal)
	}
	if done > 0 {
		elapsed := now.Sub(s.StartTime)
		perFrame := elapsed / time.Duration(done)
		s.ETA = now.Add(perFrame * time.Duration(s.FramesTotal-done))
	}
}

func (b *statusBoard) finish(videoID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.statuses, videoID)
}

func (b *statusBoard) get(videoID string) (BuildStatus, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.statuses[videoID]
	if !ok {
		return BuildStatus{}, false
	}
	return *s, true
}

// roleVectors holds one batch of embeddings per role, in model.AllRoles order
type roleVectors [][][]float32

// embedBatch embeds the batch for every role concurrently.
// The first failure cancels the sibling roles.
func embedBatch(ctx context.Context, embedder provider.EmbeddingProvider, batch []model.FrameDescriptor) (roleVectors, error) {
	roles := model.AllRoles()
	out := make(roleVectors, len(roles))

	g, gctx := errgroup.WithContext(ctx)
	for i, role := range roles {
		i, role := i, role
		texts := make([]string, len(batch))
		for j, f := range batch {
			texts[j] = f.Text(role)
		}
		g.Go(func() error {
			vecs, err := provider.EmbedAll(gctx, embedder, texts)
			if err != nil {
				return &roleError{role: role, err: err}
			}
			out[i] = vecs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

type roleError struct {
	role model.Role
	err  error
}

func (e *roleError) Error() string {
	return string(e.role) + " embedding: " + e.err.Error()
}

func (e *roleError) Unwrap() error {
	return e.err
}

func batchCount(n, size int) int {
	if size <= 0 {
		return 1
	}
	return (n + size - 1) / size
}
