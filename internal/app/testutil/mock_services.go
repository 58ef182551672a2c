package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	"video-qa/internal/api/v1/dto"
)

// MockServices contains all mock services for testing
type MockServices struct {
	VideoQAService *MockVideoQAService
}

// NewMockServices creates a new instance of mock services
func NewMockServices(t *testing.T) *MockServices {
	return &MockServices{
		VideoQAService: NewMockVideoQAService(t),
	}
}

// MockVideoQAService is a mock implementation of VideoQAService
type MockVideoQAService struct {
	mock.Mock
}

func NewMockVideoQAService(t *testing.T) *MockVideoQAService {
	m := &MockVideoQAService{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockVideoQAService) BuildIndex(ctx context.Context, videoID string, req *dto.BuildIndexRequest) (*dto.BuildIndexResponse, error) {
	args := m.Called(ctx, videoID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.BuildIndexResponse), args.Error(1)
}

func (m *MockVideoQAService) IndexStatus(ctx context.Context, videoID string) (*dto.IndexStatusResponse, error) {
	args := m.Called(ctx, videoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.IndexStatusResponse), args.Error(1)
}

func (m *MockVideoQAService) Search(ctx context.Context, videoID string, req *dto.SearchRequest) (*dto.SearchResponse, error) {
	args := m.Called(ctx, videoID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.SearchResponse), args.Error(1)
}

func (m *MockVideoQAService) Chat(ctx context.Context, videoID string, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	args := m.Called(ctx, videoID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ChatResponse), args.Error(1)
}
