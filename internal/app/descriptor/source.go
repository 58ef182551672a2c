package descriptor

import (
	"encoding/json"
	"io"
	"os"

	apperrors "video-qa/internal/app/errors"
	"video-qa/internal/app/model"
)

// analysisFrame mirrors one frame of the analysis output file
type analysisFrame struct {
	Second         *int          `json:"second"`
	SceneID        string        `json:"scene_id"`
	TechnicalText  string        `json:"embedding_text_technical"`
	ContentText    string        `json:"embedding_text_content"`
	ProductionText string        `json:"embedding_text_production"`
	Payload        model.Payload `json:"llava_json"`
}

type analysisOutput struct {
	VideoID string          `json:"video_id,omitempty"`
	Frames  []analysisFrame `json:"frames"`
}

// Decode reads an analysis document and returns its frames in order,
// with missing role texts derived from the structured payload
func Decode(r io.Reader) ([]model.FrameDescriptor, error) {
	var out analysisOutput
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, apperrors.WithKind(apperrors.KindValidation, err, "failed to decode analysis output")
	}
	if len(out.Frames) == 0 {
		return nil, apperrors.ErrNoDescriptors
	}

	frames := make([]model.FrameDescriptor, 0, len(out.Frames))
	for i, af := range out.Frames {
		second := i
		if af.Second != nil {
			second = *af.Second
		}
		sceneID := af.SceneID
		if sceneID == "" {
			sceneID = model.DefaultSceneID
		}
		fd := model.FrameDescriptor{
			Second:  second,
			SceneID: sceneID,
			Payload: af.Payload,
			Texts: map[model.Role]string{
				model.RoleTechnical:  af.TechnicalText,
				model.RoleContent:    af.ContentText,
				model.RoleProduction: af.ProductionText,
			},
		}
		DeriveTexts(&fd)
		frames = append(frames, fd)
	}
	return frames, nil
}

// LoadFile reads an analysis document from disk
func LoadFile(path string) ([]model.FrameDescriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NotFound("analysis file", path)
		}
		return nil, apperrors.Wrapf(err, "failed to open analysis file %s", path)
	}
	defer f.Close()
	return Decode(f)
}
