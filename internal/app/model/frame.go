package model

import (
	"fmt"
	"regexp"

	apperrors "video-qa/internal/app/errors"
)

// DefaultSceneID is assigned to frames whose scene was not detected
const DefaultSceneID = "scene_000"

// FrameDescriptor is one analysed frame handed to the index builder
type FrameDescriptor struct {
	Second  int             `json:"second"`
	SceneID string          `json:"scene_id,omitempty"`
	Texts   map[Role]string `json:"-"`
	Payload Payload         `json:"llava_json"`
}

// Text returns the embedding text of the frame for a role
func (f FrameDescriptor) Text(role Role) string {
	if f.Texts == nil {
		return ""
	}
	return f.Texts[role]
}

// MetadataRow is one position of the shared metadata table
type MetadataRow struct {
	Position   int     `json:"position"`
	Second     int     `json:"second"`
	SceneID    string  `json:"scene_id"`
	FramePath  string  `json:"frame_path"`
	Technical  string  `json:"embedding_text_technical"`
	Content    string  `json:"embedding_text_content"`
	Production string  `json:"embedding_text_production"`
	Payload    Payload `json:"llava_json"`
}

// EmbeddingText returns the row's text for a role
func (m MetadataRow) EmbeddingText(role Role) string {
	switch role {
	case RoleTechnical:
		return m.Technical
	case RoleProduction:
		return m.Production
	default:
		return m.Content
	}
}

// FramePath builds the conventional path of a sampled frame image
func FramePath(framesDir, videoID string, second int) string {
	return fmt.Sprintf("%s/%s/frame_%05d.jpg", framesDir, videoID, second)
}

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// ValidateVideoID rejects ids that are unsafe as path or key components
func ValidateVideoID(id string) error {
	if !videoIDPattern.MatchString(id) {
		return apperrors.Wrapf(apperrors.ErrInvalidVideoID, "video id %q", id)
	}
	return nil
}
