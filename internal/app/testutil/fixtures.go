package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// AnalysisFrame is one frame of a sample analysis document
type AnalysisFrame struct {
	Second         int            `json:"second"`
	SceneID        string         `json:"scene_id,omitempty"`
	TechnicalText  string         `json:"embedding_text_technical,omitempty"`
	ContentText    string         `json:"embedding_text_content,omitempty"`
	ProductionText string         `json:"embedding_text_production,omitempty"`
	Payload        map[string]any `json:"llava_json,omitempty"`
}

// SampleFrames is a three-moment video: two adjacent beach frames and a
// later chase, with role texts set so lexical embedders separate them
var SampleFrames = []AnalysisFrame{
	{
		Second:         10,
		SceneID:        "scene_001",
		TechnicalText:  "Second 10. Shot Type: wide shot. Lighting: golden hour backlight",
		ContentText:    "beach sunset, romantic couple walking",
		ProductionText: "Location Type: beach exterior. Props: surfboard",
		Payload: map[string]any{
			"content_info": map[string]any{"scene_summary": "couple on the beach at sunset"},
		},
	},
	{
		Second:         11,
		SceneID:        "scene_001",
		TechnicalText:  "Second 11. Shot Type: medium shot. Lighting: golden hour backlight",
		ContentText:    "beach sunset, romantic embrace",
		ProductionText: "Location Type: beach exterior. Props: surfboard, blanket",
		Payload: map[string]any{
			"content_info": map[string]any{"scene_summary": "couple embraces at sunset"},
		},
	},
	{
		Second:         40,
		SceneID:        "scene_002",
		TechnicalText:  "Second 40. Shot Type: handheld tracking shot. Lighting: neon night",
		ContentText:    "city street, tense chase",
		ProductionText: "Location Type: urban street. Props: motorcycle",
		Payload: map[string]any{
			"content_info": map[string]any{"scene_summary": "a chase through the city"},
		},
	},
}

// AnalysisJSON encodes frames as an analysis document
func AnalysisJSON(t *testing.T, frames []AnalysisFrame) []byte {
	t.Helper()
	data, err := json.Marshal(map[string]any{"frames": frames})
	require.NoError(t, err)
	return data
}

// WriteAnalysisFile writes frames as an analysis document under dir and returns its path
func WriteAnalysisFile(t *testing.T, dir string, frames []AnalysisFrame) string {
	t.Helper()
	path := filepath.Join(dir, "analysis.json")
	require.NoError(t, os.WriteFile(path, AnalysisJSON(t, frames), 0o644))
	return path
}
