package services

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"

	"video-qa/internal/api/v1/dto"
	"video-qa/internal/app/descriptor"
	apperrors "video-qa/internal/app/errors"
	"video-qa/internal/app/model"
)

// VideoQAServiceImpl implements VideoQAService on top of the retrieval engine
type VideoQAServiceImpl struct {
	engine       Engine
	analysisRoot string
}

// NewVideoQAService creates a new video QA service. descriptor_path requests
// are resolved inside analysisRoot; an empty root disables them.
func NewVideoQAService(engine Engine, analysisRoot string) VideoQAService {
	return &VideoQAServiceImpl{engine: engine, analysisRoot: analysisRoot}
}

// BuildIndex decodes the request's analysis document and builds the video's index set
func (s *VideoQAServiceImpl) BuildIndex(ctx context.Context, videoID string, req *dto.BuildIndexRequest) (*dto.BuildIndexResponse, error) {
	if err := model.ValidateVideoID(videoID); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var (
		frames []model.FrameDescriptor
		err    error
	)
	if req.DescriptorPath != "" {
		var path string
		if path, err = s.resolveDescriptorPath(req.DescriptorPath); err != nil {
			return nil, err
		}
		frames, err = descriptor.LoadFile(path)
	} else {
		frames, err = descriptor.Decode(bytes.NewReader(req.Analysis))
	}
	if err != nil {
		return nil, err
	}

	report, err := s.engine.BuildIndex(ctx, videoID, frames, nil)
	if err != nil {
		return nil, err
	}

	return &dto.BuildIndexResponse{
		VideoID:        report.VideoID,
		FramesTotal:    report.FramesTotal,
		FramesIndexed:  report.FramesIndexed,
		FramesSkipped:  report.FramesSkipped,
		SkippedSeconds: report.SkippedSeconds,
		Dimension:      report.Dimension,
		DurationMs:     report.Duration.Milliseconds(),
	}, nil
}

// resolveDescriptorPath maps a client supplied relative path onto a file under
// the analysis root, following symlinks before the containment check
func (s *VideoQAServiceImpl) resolveDescriptorPath(p string) (string, error) {
	if s.analysisRoot == "" {
		return "", apperrors.InvalidField("descriptor_path", "no analysis root is configured; send the analysis inline")
	}
	if filepath.IsAbs(p) || filepath.VolumeName(p) != "" {
		return "", apperrors.InvalidField("descriptor_path", "must be relative to the analysis root")
	}
	root, err := filepath.Abs(s.analysisRoot)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to resolve analysis root")
	}
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}

	target := filepath.Join(root, p)
	if !within(root, target) {
		return "", apperrors.InvalidField("descriptor_path", "escapes the analysis root")
	}
	resolved, err := filepath.EvalSymlinks(target)
	if err != nil {
		if os.IsNotExist(err) {
			return "", apperrors.NotFound("analysis file", p)
		}
		return "", apperrors.Wrapf(err, "failed to resolve analysis file %s", p)
	}
	if !within(root, resolved) {
		return "", apperrors.InvalidField("descriptor_path", "escapes the analysis root")
	}
	return resolved, nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// IndexStatus reports whether the index is ready, its manifest, and any running build
func (s *VideoQAServiceImpl) IndexStatus(ctx context.Context, videoID string) (*dto.IndexStatusResponse, error) {
	exists, err := s.engine.IndexExists(ctx, videoID)
	if err != nil {
		return nil, err
	}

	resp := &dto.IndexStatusResponse{VideoID: videoID, Exists: exists}
	if exists {
		m, err := s.engine.Manifest(ctx, videoID)
		if err != nil {
			return nil, err
		}
		resp.Manifest = &dto.ManifestInfo{
			Generation: m.Generation,
			Count:      m.Count,
			Dimension:  m.Dimension,
			Roles:      lo.Map(m.Roles, func(r model.Role, _ int) string { return r.String() }),
			Provider:   m.Provider,
			Model:      m.Model,
			BuiltAt:    m.BuiltAt,
		}
	}

	if st, ok := s.engine.BuildStatus(videoID); ok && st.IsBuilding {
		resp.Build = &dto.BuildProgress{
			FramesDone:   st.FramesDone,
			FramesTotal:  st.FramesTotal,
			CurrentBatch: st.CurrentBatch,
			TotalBatches: st.TotalBatches,
			Progress:     st.Progress,
			StartTime:    st.StartTime,
			ETA:          st.ETA,
		}
	}
	return resp, nil
}

// Search returns the matching moments in chronological order
func (s *VideoQAServiceImpl) Search(ctx context.Context, videoID string, req *dto.SearchRequest) (*dto.SearchResponse, error) {
	role, err := parseRole(req.Role)
	if err != nil {
		return nil, err
	}

	mode := req.Mode
	if mode == "" {
		mode = dto.ModeSingle
	}

	var results []model.SearchResult
	if mode == dto.ModeMulti {
		results, err = s.engine.SearchMulti(ctx, videoID, req.Query, role, req.TopK)
	} else {
		results, err = s.engine.Search(ctx, videoID, req.Query, role, req.TopK)
	}
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []model.SearchResult{}
	}

	return &dto.SearchResponse{
		VideoID: videoID,
		Query:   req.Query,
		Role:    role.String(),
		Mode:    mode,
		Results: results,
		Count:   len(results),
	}, nil
}

// Chat answers a question from the video's most relevant moments
func (s *VideoQAServiceImpl) Chat(ctx context.Context, videoID string, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	role, err := parseRole(req.Role)
	if err != nil {
		return nil, err
	}

	bundle, err := s.engine.SearchWithAnswer(ctx, videoID, req.Query, role, req.TopK)
	if err != nil {
		return nil, err
	}

	moments := bundle.RelevantMoments
	if moments == nil {
		moments = []model.SearchResult{}
	}
	return &dto.ChatResponse{
		VideoID:         videoID,
		Role:            role.String(),
		Answer:          bundle.Answer,
		RelevantMoments: moments,
		FoundCount:      bundle.FoundCount,
	}, nil
}

// parseRole treats an omitted role as content; any other unknown value is rejected
func parseRole(s string) (model.Role, error) {
	if strings.TrimSpace(s) == "" {
		return model.RoleContent, nil
	}
	return model.ParseRole(s)
}
