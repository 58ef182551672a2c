package services

import (
	"context"

	"video-qa/internal/api/v1/dto"
	"video-qa/internal/app/embedding/orchestrator"
	"video-qa/internal/app/model"
	"video-qa/internal/app/storage/vector"
)

// VideoQAService defines the operations the v1 API exposes per video
type VideoQAService interface {
	BuildIndex(ctx context.Context, videoID string, req *dto.BuildIndexRequest) (*dto.BuildIndexResponse, error)
	IndexStatus(ctx context.Context, videoID string) (*dto.IndexStatusResponse, error)
	Search(ctx context.Context, videoID string, req *dto.SearchRequest) (*dto.SearchResponse, error)
	Chat(ctx context.Context, videoID string, req *dto.ChatRequest) (*dto.ChatResponse, error)
}

// Engine is the part of the retrieval engine the service drives
type Engine interface {
	BuildIndex(ctx context.Context, videoID string, frames []model.FrameDescriptor, progress orchestrator.ProgressFunc) (*orchestrator.BuildReport, error)
	IndexExists(ctx context.Context, videoID string) (bool, error)
	Manifest(ctx context.Context, videoID string) (*vector.Manifest, error)
	BuildStatus(videoID string) (orchestrator.BuildStatus, bool)
	Search(ctx context.Context, videoID, q string, role model.Role, topK int) ([]model.SearchResult, error)
	SearchMulti(ctx context.Context, videoID, q string, role model.Role, topK int) ([]model.SearchResult, error)
	SearchWithAnswer(ctx context.Context, videoID, q string, role model.Role, topK int) (*model.AnswerBundle, error)
}
