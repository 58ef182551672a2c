package descriptor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "video-qa/internal/app/errors"
	"video-qa/internal/app/model"
)

const sampleAnalysis = `{
  "frames": [
    {
      "second": 4,
      "scene_id": "scene_001",
      "embedding_text_technical": "given technical text",
      "llava_json": {
        "technical_info": {"shot_type": "wide shot", "lighting": "golden hour"},
        "content_info": {
          "characters": [{"description": "a woman", "activity": "walking", "body_language": "relaxed"}],
          "emotions": {"primary": "peaceful", "secondary": ["content"], "intensity": "low"},
          "setting": {"location": "beach", "time_of_day": "sunset", "atmosphere": "warm"},
          "actions": ["walking"],
          "scene_summary": "A woman walks along the shore"
        },
        "production_info": {"props": ["umbrella"], "location_type": "exterior"}
      }
    },
    {
      "embedding_text_technical": "t",
      "embedding_text_content": "c"
    }
  ]
}`

func TestDecodeDerivesMissingTexts(t *testing.T) {
	frames, err := Decode(strings.NewReader(sampleAnalysis))
	require.NoError(t, err)
	require.Len(t, frames, 2)

	first := frames[0]
	assert.Equal(t, 4, first.Second)
	assert.Equal(t, "scene_001", first.SceneID)
	assert.Equal(t, "given technical text", first.Text(model.RoleTechnical), "supplied text must win")
	assert.Contains(t, first.Text(model.RoleContent), "Setting: beach at sunset, warm atmosphere")
	assert.Contains(t, first.Text(model.RoleContent), "Characters: 1 - a woman walking (relaxed)")
	assert.Contains(t, first.Text(model.RoleContent), "Emotions: peaceful, content (intensity: low)")
	assert.Contains(t, first.Text(model.RoleProduction), "Props: umbrella")
	assert.Contains(t, first.Text(model.RoleProduction), "Location Type: exterior")

	second := frames[1]
	assert.Equal(t, 1, second.Second, "missing second falls back to position")
	assert.Equal(t, model.DefaultSceneID, second.SceneID)
	assert.Empty(t, second.Text(model.RoleProduction), "nothing to derive from")
}

func TestDecodeRejectsEmptyInput(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"frames": []}`))
	assert.ErrorIs(t, err, apperrors.ErrNoDescriptors)

	_, err = Decode(strings.NewReader(`not json`))
	assert.True(t, apperrors.IsValidationError(err))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analysis.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleAnalysis), 0o644))

	frames, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, frames, 2)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, apperrors.IsNotFound(err))
}

func TestTextBuilders(t *testing.T) {
	p := model.Payload{
		TechnicalInfo: model.TechnicalInfo{ShotType: "close-up"},
		ContentInfo: model.ContentInfo{
			Emotions:     model.Emotions{Legacy: []string{"happy", "calm"}},
			Setting:      model.Setting{Location: "forest"},
			SceneSummary: " A quiet moment ",
		},
	}

	tech := TechnicalText(7, p)
	assert.True(t, strings.HasPrefix(tech, "Second: 7\nShot Type: close-up\nCamera Angle: unknown"))
	assert.True(t, strings.HasSuffix(tech, "Summary: A quiet moment"))

	content := ContentText(7, p)
	assert.Contains(t, content, "Emotions: happy, calm")
	assert.Contains(t, content, "Characters: 0 - none")
	assert.Contains(t, content, "Mood: neutral")

	assert.Equal(t, "none", EmotionsText(model.Emotions{}))
	assert.Equal(t, "neutral (intensity: medium)", EmotionsText(model.Emotions{Context: "x"}))
	assert.Equal(t, "unknown", SettingText(model.Setting{}))
}
