package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"video-qa/internal/app/embedding/provider"
	apperrors "video-qa/internal/app/errors"
	"video-qa/internal/app/model"
	"video-qa/internal/app/storage/vector"
)

func frame(second int, text string) model.FrameDescriptor {
	return model.FrameDescriptor{
		Second:  second,
		SceneID: "scene_001",
		Texts: map[model.Role]string{
			model.RoleTechnical:  "technical " + text,
			model.RoleContent:    text,
			model.RoleProduction: "production " + text,
		},
		Payload: model.Payload{ContentInfo: model.ContentInfo{SceneSummary: text}},
	}
}

// countingProvider counts calls and can fail after a number of successes
type countingProvider struct {
	inner     provider.EmbeddingProvider
	calls     atomic.Int32
	failAfter int32
	err       error
	gate      chan struct{}
}

func (c *countingProvider) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if c.gate != nil {
		select {
		case <-c.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	n := c.calls.Add(1)
	if c.err != nil && n > c.failAfter {
		return nil, c.err
	}
	return c.inner.GenerateEmbedding(ctx, text)
}

func (c *countingProvider) GetProviderInfo() provider.ProviderInfo {
	return c.inner.GetProviderInfo()
}

func TestBuildAlignsEveryRoleWithMetadata(t *testing.T) {
	// Arrange
	store := vector.NewMemoryStore()
	builder := NewIndexBuilder(provider.NewMockProvider(16), store, nil, Options{BatchSize: 2, FramesDir: "frames"})
	frames := []model.FrameDescriptor{frame(0, "a"), frame(1, "b"), frame(2, "c"), frame(5, "d"), frame(9, "e")}

	var progress []int
	// Act
	report, err := builder.Build(context.Background(), "v1", frames, func(done, total int) {
		assert.Equal(t, 5, total)
		progress = append(progress, done)
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 5, report.FramesIndexed)
	assert.Equal(t, 16, report.Dimension)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, progress)

	rows, err := store.LoadMetadata(context.Background(), "v1")
	require.NoError(t, err)
	require.Len(t, rows, 5)
	for _, role := range model.AllRoles() {
		ix, err := store.LoadIndex(context.Background(), "v1", role)
		require.NoError(t, err)
		assert.Equal(t, len(rows), ix.Len())
	}
	assert.Equal(t, "frames/v1/frame_00005.jpg", rows[3].FramePath)
	assert.Equal(t, 3, rows[3].Position)
}

func TestBuildDropsFramesMissingAnyRoleText(t *testing.T) {
	store := vector.NewMemoryStore()
	builder := NewIndexBuilder(provider.NewMockProvider(8), store, nil, Options{})

	noProduction := frame(3, "no production")
	delete(noProduction.Texts, model.RoleProduction)
	blankTechnical := frame(4, "blank technical")
	blankTechnical.Texts[model.RoleTechnical] = "  "
	derivable := frame(6, "derived production")
	delete(derivable.Texts, model.RoleProduction)
	derivable.Payload.ProductionInfo = model.ProductionInfo{Props: model.Labels{"car"}}

	report, err := builder.Build(context.Background(), "v1",
		[]model.FrameDescriptor{frame(1, "ok"), noProduction, blankTechnical, derivable}, nil)

	require.NoError(t, err)
	assert.Equal(t, 2, report.FramesIndexed)
	assert.Equal(t, []int{3, 4}, report.SkippedSeconds)

	rows, err := store.LoadMetadata(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 6}, []int{rows[0].Second, rows[1].Second})
	assert.Contains(t, rows[1].Production, "Props: car")
	for _, role := range model.AllRoles() {
		ix, err := store.LoadIndex(context.Background(), "v1", role)
		require.NoError(t, err)
		assert.Equal(t, 2, ix.Len())
	}
}

func TestBuildValidation(t *testing.T) {
	builder := NewIndexBuilder(provider.NewMockProvider(8), vector.NewMemoryStore(), nil, Options{})

	_, err := builder.Build(context.Background(), "v1", nil, nil)
	assert.ErrorIs(t, err, apperrors.ErrNoDescriptors)

	empty := frame(1, "x")
	empty.Texts = nil
	_, err = builder.Build(context.Background(), "v1", []model.FrameDescriptor{empty}, nil)
	assert.ErrorIs(t, err, apperrors.ErrNoSurvivingFrames)
	assert.True(t, apperrors.IsValidationError(err))

	_, err = builder.Build(context.Background(), "../v1", []model.FrameDescriptor{frame(1, "x")}, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidVideoID)
}

func TestBuildEmbedderFailurePersistsNothing(t *testing.T) {
	store := vector.NewMemoryStore()
	failing := &countingProvider{inner: provider.NewMockProvider(8), failAfter: 4, err: errors.New("401 unauthorized")}
	builder := NewIndexBuilder(failing, store, nil, Options{BatchSize: 2})

	frames := make([]model.FrameDescriptor, 6)
	for i := range frames {
		frames[i] = frame(i*5, fmt.Sprintf("frame %d", i))
	}
	_, err := builder.Build(context.Background(), "v1", frames, nil)

	require.Error(t, err)
	assert.True(t, apperrors.IsUpstream(err))
	assert.ErrorIs(t, err, apperrors.ErrEmbeddingFailed)

	exists, err := store.Exists(context.Background(), "v1")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, 0, store.Commits())
}

func TestBuildCancelledBetweenBatches(t *testing.T) {
	store := vector.NewMemoryStore()
	builder := NewIndexBuilder(provider.NewMockProvider(8), store, nil, Options{BatchSize: 1})
	ctx, cancel := context.WithCancel(context.Background())

	frames := []model.FrameDescriptor{frame(0, "a"), frame(10, "b"), frame(20, "c")}
	_, err := builder.Build(ctx, "v1", frames, func(done, total int) {
		if done == 1 {
			cancel()
		}
	})

	assert.ErrorIs(t, err, context.Canceled)
	exists, _ := store.Exists(context.Background(), "v1")
	assert.False(t, exists)
}

func TestConcurrentBuildsOfOneVideoSerialize(t *testing.T) {
	store := vector.NewMemoryStore()
	gate := make(chan struct{})
	slow := &countingProvider{inner: provider.NewMockProvider(8), gate: gate}
	builder := NewIndexBuilder(slow, store, nil, Options{})

	frames := []model.FrameDescriptor{frame(0, "a"), frame(10, "b")}
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = builder.Build(context.Background(), "v1", frames, nil)
		}(i)
	}

	require.Eventually(t, func() bool {
		_, ok := builder.Status("v1")
		return ok
	}, time.Second, time.Millisecond)
	assert.True(t, builder.IsBuilding("v1"))
	status, ok := builder.Status("v1")
	require.True(t, ok)
	assert.True(t, status.IsBuilding)
	assert.Equal(t, 2, status.FramesTotal)

	close(gate)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, 2, store.Commits())
	assert.Equal(t, int32(12), slow.calls.Load(), "two full builds of two frames across three roles")
	assert.False(t, builder.IsBuilding("v1"))
	_, ok = builder.Status("v1")
	assert.False(t, ok)
}

func TestRebuildIsDeterministic(t *testing.T) {
	store := vector.NewMemoryStore()
	builder := NewIndexBuilder(provider.NewMockProvider(16), store, nil, Options{})
	frames := []model.FrameDescriptor{frame(0, "a"), frame(10, "b"), frame(20, "c")}
	ctx := context.Background()

	_, err := builder.Build(ctx, "v1", frames, nil)
	require.NoError(t, err)
	firstRows, _ := store.LoadMetadata(ctx, "v1")
	firstIx, _ := store.LoadIndex(ctx, "v1", model.RoleContent)

	_, err = builder.Build(ctx, "v1", frames, nil)
	require.NoError(t, err)
	secondRows, _ := store.LoadMetadata(ctx, "v1")
	secondIx, _ := store.LoadIndex(ctx, "v1", model.RoleContent)

	assert.Equal(t, firstRows, secondRows)
	assert.Equal(t, firstIx.Len(), secondIx.Len())
	for i := 0; i < firstIx.Len(); i++ {
		assert.Equal(t, firstIx.Vector(i), secondIx.Vector(i))
	}
}

func TestKeyedMutex(t *testing.T) {
	locks := NewKeyedMutex()

	unlock, err := locks.Lock(context.Background(), "a")
	require.NoError(t, err)
	assert.True(t, locks.Held("a"))
	assert.False(t, locks.Held("b"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locks.Lock(ctx, "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	otherUnlock, err := locks.Lock(context.Background(), "b")
	require.NoError(t, err)
	otherUnlock()

	unlock()
	unlock()
	assert.False(t, locks.Held("a"))
	assert.Empty(t, locks.locks)
}
