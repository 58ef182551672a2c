package test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"video-qa/internal/api/middleware"
	"video-qa/internal/api/v1/dto"
	"video-qa/internal/api/v1/handlers"
	"video-qa/internal/api/v1/services"
	"video-qa/internal/app"
	"video-qa/internal/app/config"
	apperrors "video-qa/internal/app/errors"
	"video-qa/internal/app/model"
	"video-qa/internal/app/testutil"
)

func setupTestRouter(t *testing.T) (*gin.Engine, *testutil.MockServices) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.RequestID())
	mockServices := testutil.NewMockServices(t)
	return router, mockServices
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, payload interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var responseBody map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &responseBody))
	return rec, responseBody
}

func TestVideoHandler_Chat(t *testing.T) {
	tests := []struct {
		name           string
		request        interface{}
		setupMocks     func(*testutil.MockServices)
		expectedStatus int
		validateBody   func(*testing.T, map[string]interface{})
	}{
		{
			name:    "successful chat",
			request: dto.ChatRequest{Query: "where is the sunset", Role: "actor"},
			setupMocks: func(ms *testutil.MockServices) {
				ms.VideoQAService.On("Chat", mock.Anything, "movie", mock.MatchedBy(func(r *dto.ChatRequest) bool {
					return r.Query == "where is the sunset" && r.Role == "actor"
				})).Return(&dto.ChatResponse{
					VideoID: "movie",
					Role:    "content",
					Answer:  "The sunset is at 00:10.",
					RelevantMoments: []model.SearchResult{
						{Second: 10, Score: 0.9, Timestamp: "00:10"},
					},
					FoundCount: 2,
				}, nil)
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "The sunset is at 00:10.", body["answer"])
				assert.Equal(t, float64(2), body["found_count"])
				moments := body["relevant_moments"].([]interface{})
				require.Len(t, moments, 1)
				assert.Equal(t, "00:10", moments[0].(map[string]interface{})["timestamp"])
			},
		},
		{
			name:    "unknown role",
			request: dto.ChatRequest{Query: "where", Role: "critic"},
			setupMocks: func(ms *testutil.MockServices) {
				ms.VideoQAService.On("Chat", mock.Anything, "movie", mock.Anything).
					Return(nil, apperrors.Wrapf(apperrors.ErrUnknownRole, "role %q", "critic"))
			},
			expectedStatus: http.StatusUnprocessableEntity,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "validation", body["kind"])
				assert.Contains(t, body["message"], "unknown role")
			},
		},
		{
			name:    "missing index",
			request: dto.ChatRequest{Query: "where"},
			setupMocks: func(ms *testutil.MockServices) {
				ms.VideoQAService.On("Chat", mock.Anything, "movie", mock.Anything).
					Return(nil, apperrors.Wrapf(apperrors.ErrIndexNotFound, "video %s", "movie"))
			},
			expectedStatus: http.StatusNotFound,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "not_found", body["kind"])
			},
		},
		{
			name:           "validation error - missing query",
			request:        map[string]interface{}{"role": "content"},
			setupMocks:     func(ms *testutil.MockServices) {},
			expectedStatus: http.StatusUnprocessableEntity,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "validation", body["kind"])
				details := body["details"].(map[string]interface{})
				assert.Equal(t, "is required", details["query"])
			},
		},
		{
			name:    "all variants failed",
			request: dto.ChatRequest{Query: "where"},
			setupMocks: func(ms *testutil.MockServices) {
				ms.VideoQAService.On("Chat", mock.Anything, "movie", mock.Anything).
					Return(nil, apperrors.ErrAllVariantsFailed)
			},
			expectedStatus: http.StatusBadGateway,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "upstream", body["kind"])
				assert.NotEmpty(t, body["request_id"])
			},
		},
		{
			name:    "internal errors are not leaked",
			request: dto.ChatRequest{Query: "where"},
			setupMocks: func(ms *testutil.MockServices) {
				ms.VideoQAService.On("Chat", mock.Anything, "movie", mock.Anything).
					Return(nil, apperrors.Wrap(apperrors.ErrStoreFailed, "disk /var/lib/vqa is full"))
			},
			expectedStatus: http.StatusInternalServerError,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "internal", body["kind"])
				assert.NotContains(t, body["message"], "/var/lib")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			router, mockServices := setupTestRouter(t)
			tt.setupMocks(mockServices)
			handler := handlers.NewVideoHandler(mockServices.VideoQAService)
			router.POST("/api/v1/videos/:id/chat", handler.Chat)

			// Act
			rec, body := doJSON(t, router, http.MethodPost, "/api/v1/videos/movie/chat", tt.request)

			// Assert
			assert.Equal(t, tt.expectedStatus, rec.Code)
			tt.validateBody(t, body)
		})
	}
}

func TestVideoHandler_Search(t *testing.T) {
	tests := []struct {
		name           string
		request        interface{}
		setupMocks     func(*testutil.MockServices)
		expectedStatus int
		validateBody   func(*testing.T, map[string]interface{})
	}{
		{
			name:    "multi mode search",
			request: dto.SearchRequest{Query: "props", Role: "producer", Mode: dto.ModeMulti},
			setupMocks: func(ms *testutil.MockServices) {
				ms.VideoQAService.On("Search", mock.Anything, "movie", mock.MatchedBy(func(r *dto.SearchRequest) bool {
					return r.Mode == dto.ModeMulti
				})).Return(&dto.SearchResponse{
					VideoID: "movie",
					Query:   "props",
					Role:    "production",
					Mode:    dto.ModeMulti,
					Results: []model.SearchResult{{Second: 3}, {Second: 40}},
					Count:   2,
				}, nil)
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "production", body["role"])
				assert.Equal(t, float64(2), body["count"])
			},
		},
		{
			name:           "invalid mode",
			request:        map[string]interface{}{"query": "props", "mode": "fuzzy"},
			setupMocks:     func(ms *testutil.MockServices) {},
			expectedStatus: http.StatusUnprocessableEntity,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				details := body["details"].(map[string]interface{})
				assert.Contains(t, details["mode"], "must be one of")
			},
		},
		{
			name:           "negative top_k",
			request:        map[string]interface{}{"query": "props", "top_k": -1},
			setupMocks:     func(ms *testutil.MockServices) {},
			expectedStatus: http.StatusUnprocessableEntity,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				details := body["details"].(map[string]interface{})
				assert.Equal(t, "is too small", details["top_k"])
			},
		},
		{
			name:           "malformed json",
			request:        "not an object",
			setupMocks:     func(ms *testutil.MockServices) {},
			expectedStatus: http.StatusUnprocessableEntity,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				details := body["details"].(map[string]interface{})
				assert.Equal(t, "invalid JSON format", details["request"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			router, mockServices := setupTestRouter(t)
			tt.setupMocks(mockServices)
			handler := handlers.NewVideoHandler(mockServices.VideoQAService)
			router.POST("/api/v1/videos/:id/search", handler.Search)

			// Act
			rec, body := doJSON(t, router, http.MethodPost, "/api/v1/videos/movie/search", tt.request)

			// Assert
			assert.Equal(t, tt.expectedStatus, rec.Code)
			tt.validateBody(t, body)
		})
	}
}

func TestVideoHandler_BuildIndex(t *testing.T) {
	t.Run("successful build", func(t *testing.T) {
		// Arrange
		router, mockServices := setupTestRouter(t)
		mockServices.VideoQAService.On("BuildIndex", mock.Anything, "movie", mock.Anything).
			Return(&dto.BuildIndexResponse{VideoID: "movie", FramesTotal: 3, FramesIndexed: 3, Dimension: 768}, nil)
		handler := handlers.NewVideoHandler(mockServices.VideoQAService)
		router.POST("/api/v1/videos/:id/index", handler.BuildIndex)

		// Act
		rec, body := doJSON(t, router, http.MethodPost, "/api/v1/videos/movie/index",
			map[string]interface{}{"descriptor_path": "movie/analysis.json"})

		// Assert
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, float64(3), body["frames_indexed"])
	})

	t.Run("both sources rejected before reaching the service", func(t *testing.T) {
		router, mockServices := setupTestRouter(t)
		handler := handlers.NewVideoHandler(mockServices.VideoQAService)
		router.POST("/api/v1/videos/:id/index", handler.BuildIndex)

		rec, body := doJSON(t, router, http.MethodPost, "/api/v1/videos/movie/index",
			map[string]interface{}{
				"descriptor_path": "/data/movie/analysis.json",
				"analysis":        map[string]interface{}{"frames": []interface{}{}},
			})

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "validation", body["kind"])
		mockServices.VideoQAService.AssertNotCalled(t, "BuildIndex", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestVideoHandler_BuildIndex_DescriptorPathOutsideRoot(t *testing.T) {
	cfg, err := config.ParseEngineConfig([]byte("embedder:\n  provider: lexical\nstorage:\n  backend: memory\n"))
	require.NoError(t, err)
	rt, cleanup, err := app.InitializeRuntime(context.Background(), cfg, nil, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(cleanup)
	root := t.TempDir()

	tests := []struct {
		name string
		path string
	}{
		{name: "absolute path", path: "/etc/passwd"},
		{name: "parent traversal", path: "../../../../etc/passwd"},
		{name: "missing file outside root", path: "../no-such-dir/analysis.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			gin.SetMode(gin.TestMode)
			router := gin.New()
			router.Use(middleware.RequestID())
			handler := handlers.NewVideoHandler(services.NewVideoQAService(rt.Engine, root))
			router.POST("/api/v1/videos/:id/index", handler.BuildIndex)

			// Act
			rec, body := doJSON(t, router, http.MethodPost, "/api/v1/videos/movie/index",
				map[string]interface{}{"descriptor_path": tt.path})

			// Assert
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Equal(t, "validation", body["kind"])
		})
	}
}

func TestVideoHandler_GetIndex(t *testing.T) {
	router, mockServices := setupTestRouter(t)
	mockServices.VideoQAService.On("IndexStatus", mock.Anything, "movie").
		Return(&dto.IndexStatusResponse{VideoID: "movie", Exists: false}, nil)
	handler := handlers.NewVideoHandler(mockServices.VideoQAService)
	router.GET("/api/v1/videos/:id/index", handler.GetIndex)

	rec, body := doJSON(t, router, http.MethodGet, "/api/v1/videos/movie/index", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["exists"])
	assert.Nil(t, body["manifest"])
}
