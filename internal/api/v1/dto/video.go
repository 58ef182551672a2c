package dto

import (
	"encoding/json"
	"time"

	apperrors "video-qa/internal/app/errors"
	"video-qa/internal/app/model"
)

// Search modes
const (
	ModeSingle = "single"
	ModeMulti  = "multi"
)

// BuildIndexRequest carries the frame descriptors of one video, either
// inline as an analysis document or as a path relative to the server's analysis root
type BuildIndexRequest struct {
	Analysis       json.RawMessage `json:"analysis,omitempty"`
	DescriptorPath string          `json:"descriptor_path,omitempty"`
}

// Validate requires exactly one descriptor source
func (r *BuildIndexRequest) Validate() error {
	hasInline := len(r.Analysis) > 0 && string(r.Analysis) != "null"
	if hasInline == (r.DescriptorPath != "") {
		return apperrors.InvalidField("analysis", "provide exactly one of analysis or descriptor_path")
	}
	return nil
}

// BuildIndexResponse reports a finished build
type BuildIndexResponse struct {
	VideoID        string `json:"video_id"`
	FramesTotal    int    `json:"frames_total"`
	FramesIndexed  int    `json:"frames_indexed"`
	FramesSkipped  int    `json:"frames_skipped"`
	SkippedSeconds []int  `json:"skipped_seconds,omitempty"`
	Dimension      int    `json:"dimension"`
	DurationMs     int64  `json:"duration_ms"`
}

// IndexStatusResponse describes a video's committed index and any build in flight
type IndexStatusResponse struct {
	VideoID  string         `json:"video_id"`
	Exists   bool           `json:"exists"`
	Manifest *ManifestInfo  `json:"manifest,omitempty"`
	Build    *BuildProgress `json:"build,omitempty"`
}

// ManifestInfo is the public view of a committed index set
type ManifestInfo struct {
	Generation string    `json:"generation"`
	Count      int       `json:"count"`
	Dimension  int       `json:"dimension"`
	Roles      []string  `json:"roles"`
	Provider   string    `json:"provider"`
	Model      string    `json:"model"`
	BuiltAt    time.Time `json:"built_at"`
}

// BuildProgress is the live state of a running build
type BuildProgress struct {
	FramesDone   int       `json:"frames_done"`
	FramesTotal  int       `json:"frames_total"`
	CurrentBatch int       `json:"current_batch"`
	TotalBatches int       `json:"total_batches"`
	Progress     float64   `json:"progress"`
	StartTime    time.Time `json:"start_time"`
	ETA          time.Time `json:"eta,omitempty"`
}

// SearchRequest asks for the moments of a video matching a query
type SearchRequest struct {
	Query string `json:"query" binding:"required"`
	Role  string `json:"role,omitempty"`
	TopK  int    `json:"top_k,omitempty" binding:"gte=0,lte=100"`
	Mode  string `json:"mode,omitempty" binding:"omitempty,oneof=single multi"`
}

// SearchResponse lists the retrieved moments
type SearchResponse struct {
	VideoID string               `json:"video_id"`
	Query   string               `json:"query"`
	Role    string               `json:"role"`
	Mode    string               `json:"mode"`
	Results []model.SearchResult `json:"results"`
	Count   int                  `json:"count"`
}

// ChatRequest asks a question about a video
type ChatRequest struct {
	Query string `json:"query" binding:"required"`
	Role  string `json:"role,omitempty"`
	TopK  int    `json:"top_k,omitempty" binding:"gte=0,lte=100"`
}

// ChatResponse is the synthesized answer
type ChatResponse struct {
	VideoID         string               `json:"video_id"`
	Role            string               `json:"role"`
	Answer          string               `json:"answer"`
	RelevantMoments []model.SearchResult `json:"relevant_moments"`
	FoundCount      int                  `json:"found_count"`
}
