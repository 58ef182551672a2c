package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"video-qa/internal/api/middleware"
	"video-qa/internal/api/v1/dto"
	"video-qa/internal/api/v1/services"
)

// VideoHandler handles per-video index, search and chat requests
type VideoHandler struct {
	service services.VideoQAService
}

// NewVideoHandler creates a new video handler
func NewVideoHandler(service services.VideoQAService) *VideoHandler {
	return &VideoHandler{
		service: service,
	}
}

// BuildIndex handles POST /api/v1/videos/:id/index
// Builds or rebuilds the video's role indices and replaces the committed set atomically
//
// @Summary Build a video index
// @Description Embeds every frame descriptor under the three roles and commits the index set. The analysis is sent inline, or as descriptor_path relative to the server's analysis root.
// @Tags videos
// @Accept json
// @Produce json
// @Param id path string true "Video ID" example(beach-movie)
// @Param request body dto.BuildIndexRequest true "Analysis document or descriptor path"
// @Success 201 {object} dto.BuildIndexResponse "Build report"
// @Failure 404 {object} errors.APIError "Analysis file not found under the analysis root"
// @Failure 422 {object} errors.APIError "Invalid video ID, descriptor source or empty analysis"
// @Failure 502 {object} errors.APIError "Embedding provider failed"
// @Failure 500 {object} errors.APIError "Internal server error"
// @Router /videos/{id}/index [post]
func (h *VideoHandler) BuildIndex(c *gin.Context) {
	var req dto.BuildIndexRequest
	if err := middleware.ValidateRequest(c, &req); err != nil {
		middleware.HandleError(c, err)
		return
	}

	report, err := h.service.BuildIndex(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, report)
}

// GetIndex handles GET /api/v1/videos/:id/index
//
// @Summary Get index status
// @Description Reports whether the video has a committed index, its manifest, and the progress of any build in flight
// @Tags videos
// @Produce json
// @Param id path string true "Video ID" example(beach-movie)
// @Success 200 {object} dto.IndexStatusResponse "Index status"
// @Failure 422 {object} errors.APIError "Invalid video ID"
// @Failure 500 {object} errors.APIError "Internal server error"
// @Router /videos/{id}/index [get]
func (h *VideoHandler) GetIndex(c *gin.Context) {
	status, err := h.service.IndexStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// Search handles POST /api/v1/videos/:id/search
// Finds the moments of a video that match a query
//
// @Summary Search video moments
// @Description Searches one role index (single mode) or the merged query variants (multi mode) and returns deduplicated moments in chronological order
// @Tags videos
// @Accept json
// @Produce json
// @Param id path string true "Video ID" example(beach-movie)
// @Param request body dto.SearchRequest true "Query, role, top_k and mode"
// @Success 200 {object} dto.SearchResponse "Matching moments"
// @Failure 404 {object} errors.APIError "Video has no index"
// @Failure 422 {object} errors.APIError "Empty query or unknown role"
// @Failure 502 {object} errors.APIError "Query embedding failed"
// @Failure 500 {object} errors.APIError "Internal server error"
// @Router /videos/{id}/search [post]
func (h *VideoHandler) Search(c *gin.Context) {
	var req dto.SearchRequest
	if err := middleware.ValidateRequest(c, &req); err != nil {
		middleware.HandleError(c, err)
		return
	}

	results, err := h.service.Search(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}

// Chat handles POST /api/v1/videos/:id/chat
//
// @Summary Ask a question about a video
// @Description Retrieves the most relevant moments and synthesizes an answer in the voice of the requested role
// @Tags videos
// @Accept json
// @Produce json
// @Param id path string true "Video ID" example(beach-movie)
// @Param request body dto.ChatRequest true "Question, role and top_k"
// @Success 200 {object} dto.ChatResponse "Answer and relevant moments"
// @Failure 404 {object} errors.APIError "Video has no index"
// @Failure 422 {object} errors.APIError "Empty query or unknown role"
// @Failure 502 {object} errors.APIError "All query variants failed to embed"
// @Failure 500 {object} errors.APIError "Internal server error"
// @Router /videos/{id}/chat [post]
func (h *VideoHandler) Chat(c *gin.Context) {
	var req dto.ChatRequest
	if err := middleware.ValidateRequest(c, &req); err != nil {
		middleware.HandleError(c, err)
		return
	}

	answer, err := h.service.Chat(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, answer)
}
