package vector

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	apperrors "video-qa/internal/app/errors"
	"video-qa/internal/app/model"
)

// ArtifactStore persists one immutable index set per video.
// Commit is all-or-nothing: a reader either sees the complete new set,
// the complete previous set, or nothing. LoadSnapshot is the only read that
// guarantees manifest, index and metadata come from the same commit.
type ArtifactStore interface {
	Commit(ctx context.Context, set *IndexSet) error
	LoadSnapshot(ctx context.Context, videoID string, role model.Role) (*Snapshot, error)
	LoadIndex(ctx context.Context, videoID string, role model.Role) (*FlatIndex, error)
	LoadMetadata(ctx context.Context, videoID string) ([]model.MetadataRow, error)
	LoadManifest(ctx context.Context, videoID string) (*Manifest, error)
	Exists(ctx context.Context, videoID string) (bool, error)
	Close() error
}

// Manifest describes a committed index set and marks it ready
type Manifest struct {
	VideoID    string       `json:"video_id"`
	Generation string       `json:"generation"`
	Count      int          `json:"count"`
	Dimension  int          `json:"dimension"`
	Roles      []model.Role `json:"roles"`
	Provider   string       `json:"provider"`
	Model      string       `json:"model"`
	BuiltAt    time.Time    `json:"built_at"`
}

// IndexSet is everything a build produces for one video
type IndexSet struct {
	Manifest Manifest
	Indices  map[model.Role]*FlatIndex
	Metadata []model.MetadataRow
}

// Validate checks positional alignment: every role index holds exactly one vector per metadata row
func (s *IndexSet) Validate() error {
	if err := model.ValidateVideoID(s.Manifest.VideoID); err != nil {
		return err
	}
	n := len(s.Metadata)
	if n == 0 {
		return apperrors.ErrNoSurvivingFrames
	}
	dim := -1
	for _, role := range model.AllRoles() {
		ix, ok := s.Indices[role]
		if !ok || ix == nil {
			return apperrors.Newf("index set for %s is missing role %s", s.Manifest.VideoID, role)
		}
		if ix.Len() != n {
			return apperrors.Newf("%s index has %d vectors, metadata has %d rows", role, ix.Len(), n)
		}
		if dim >= 0 && ix.Dim() != dim {
			return apperrors.Wrapf(apperrors.ErrDimensionMismatch, "%s index has dimension %d, want %d", role, ix.Dim(), dim)
		}
		dim = ix.Dim()
	}
	for i, row := range s.Metadata {
		if row.Position != i {
			return apperrors.Newf("metadata row %d has position %d", i, row.Position)
		}
	}
	s.Manifest.Count = n
	s.Manifest.Dimension = dim
	s.Manifest.Roles = model.AllRoles()
	return nil
}

func indexNotFound(videoID string) error {
	return apperrors.Wrapf(apperrors.ErrIndexNotFound, "video %s", videoID)
}

func decodeMetadata(data []byte) ([]model.MetadataRow, error) {
	var rows []model.MetadataRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCorruptArtifact, fmt.Sprintf("metadata: %v", err))
	}
	return rows, nil
}

func decodeManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCorruptArtifact, fmt.Sprintf("manifest: %v", err))
	}
	return &m, nil
}

func indexFileName(role model.Role) string {
	return string(role) + ".index"
}

const (
	metadataFileName = "metadata.json"
	manifestFileName = "manifest.json"
)
