package services_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"video-qa/internal/api/v1/dto"
	"video-qa/internal/api/v1/services"
	"video-qa/internal/app"
	"video-qa/internal/app/config"
	apperrors "video-qa/internal/app/errors"
	"video-qa/internal/app/testutil"
)

func newService(t *testing.T) services.VideoQAService {
	t.Helper()
	return newServiceWithRoot(t, "")
}

func newServiceWithRoot(t *testing.T, analysisRoot string) services.VideoQAService {
	t.Helper()
	cfg, err := config.ParseEngineConfig([]byte("embedder:\n  provider: lexical\nstorage:\n  backend: memory\n"))
	require.NoError(t, err)

	rt, cleanup, err := app.InitializeRuntime(context.Background(), cfg, nil, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(cleanup)

	return services.NewVideoQAService(rt.Engine, analysisRoot)
}

func TestVideoQAService_EndToEnd(t *testing.T) {
	// Arrange
	svc := newService(t)
	ctx := context.Background()
	analysis := testutil.AnalysisJSON(t, testutil.SampleFrames)

	// Act
	report, err := svc.BuildIndex(ctx, "beach-movie", &dto.BuildIndexRequest{Analysis: analysis})
	require.NoError(t, err)
	status, err := svc.IndexStatus(ctx, "beach-movie")
	require.NoError(t, err)
	search, err := svc.Search(ctx, "beach-movie", &dto.SearchRequest{Query: "beach sunset romantic"})
	require.NoError(t, err)
	chat, err := svc.Chat(ctx, "beach-movie", &dto.ChatRequest{Query: "city chase", Role: "actor"})
	require.NoError(t, err)

	// Assert
	assert.Equal(t, 3, report.FramesIndexed)
	assert.True(t, status.Exists)
	require.NotNil(t, status.Manifest)
	assert.Equal(t, 3, status.Manifest.Count)
	assert.ElementsMatch(t, []string{"technical", "content", "production"}, status.Manifest.Roles)

	assert.Equal(t, "content", search.Role)
	assert.Equal(t, dto.ModeSingle, search.Mode)
	assert.Equal(t, len(search.Results), search.Count)
	for i := 1; i < len(search.Results); i++ {
		assert.Greater(t, search.Results[i].Second-search.Results[i-1].Second, 3)
	}

	assert.Equal(t, "content", chat.Role)
	assert.NotEmpty(t, chat.Answer)
	assert.NotNil(t, chat.RelevantMoments)
}

func TestVideoQAService_BuildFromFile(t *testing.T) {
	// Arrange
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "movies"), 0o755))
	testutil.WriteAnalysisFile(t, filepath.Join(root, "movies"), testutil.SampleFrames)
	svc := newServiceWithRoot(t, root)

	// Act
	report, err := svc.BuildIndex(context.Background(), "from-file", &dto.BuildIndexRequest{DescriptorPath: "movies/analysis.json"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "from-file", report.VideoID)
	assert.Equal(t, 3, report.FramesTotal)
}

func TestVideoQAService_DescriptorPathConfinedToRoot(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "analysis")
	require.NoError(t, os.MkdirAll(root, 0o755))
	outside := testutil.WriteAnalysisFile(t, parent, testutil.SampleFrames)
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "link.json")))

	tests := []struct {
		name  string
		root  string
		path  string
		check func(error) bool
	}{
		{name: "no root configured", root: "", path: "analysis.json", check: apperrors.IsValidationError},
		{name: "absolute path", root: root, path: outside, check: apperrors.IsValidationError},
		{name: "parent traversal", root: root, path: "../analysis.json", check: apperrors.IsValidationError},
		{name: "nested traversal", root: root, path: "a/../../analysis.json", check: apperrors.IsValidationError},
		{name: "symlink out of root", root: root, path: "link.json", check: apperrors.IsValidationError},
		{name: "missing file inside root", root: root, path: "nope.json", check: apperrors.IsNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			svc := newServiceWithRoot(t, tt.root)

			// Act
			_, err := svc.BuildIndex(context.Background(), "movie", &dto.BuildIndexRequest{DescriptorPath: tt.path})

			// Assert
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
			exists, err := svc.IndexStatus(context.Background(), "movie")
			require.NoError(t, err)
			assert.False(t, exists.Exists)
		})
	}
}

func TestVideoQAService_Errors(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		call  func() error
		check func(error) bool
	}{
		{
			name: "unknown role",
			call: func() error {
				_, err := svc.Chat(ctx, "movie", &dto.ChatRequest{Query: "q", Role: "critic"})
				return err
			},
			check: func(err error) bool { return apperrors.Is(err, apperrors.ErrUnknownRole) },
		},
		{
			name: "missing index",
			call: func() error {
				_, err := svc.Search(ctx, "movie", &dto.SearchRequest{Query: "q", Mode: dto.ModeMulti})
				return err
			},
			check: apperrors.IsNotFound,
		},
		{
			name: "descriptor path without analysis root",
			call: func() error {
				_, err := svc.BuildIndex(ctx, "movie", &dto.BuildIndexRequest{DescriptorPath: "exist.json"})
				return err
			},
			check: apperrors.IsValidationError,
		},
		{
			name: "empty analysis",
			call: func() error {
				_, err := svc.BuildIndex(ctx, "movie", &dto.BuildIndexRequest{Analysis: []byte(`{"frames":[]}`)})
				return err
			},
			check: func(err error) bool { return apperrors.Is(err, apperrors.ErrNoDescriptors) },
		},
		{
			name: "invalid video id",
			call: func() error {
				_, err := svc.BuildIndex(ctx, "../etc", &dto.BuildIndexRequest{Analysis: []byte(`{"frames":[{}]}`)})
				return err
			},
			check: apperrors.IsValidationError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()

			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
		})
	}
}
