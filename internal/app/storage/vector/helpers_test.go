package vector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"video-qa/internal/app/model"
)

// sampleSet builds a three-frame index set with distinct axis-aligned vectors per role
func sampleSet(t *testing.T, videoID string) *IndexSet {
	t.Helper()
	indices := make(map[model.Role]*FlatIndex)
	for r, role := range model.AllRoles() {
		ix := NewFlatIndex(4)
		for i := 0; i < 3; i++ {
			v := make([]float32, 4)
			v[(i+r)%4] = 2
			require.NoError(t, ix.Add(v))
		}
		indices[role] = ix
	}
	rows := make([]model.MetadataRow, 3)
	for i := range rows {
		rows[i] = model.MetadataRow{
			Position:   i,
			Second:     i * 10,
			SceneID:    model.DefaultSceneID,
			FramePath:  model.FramePath("frames", videoID, i*10),
			Technical:  "technical text",
			Content:    "content text",
			Production: "production text",
		}
	}
	return &IndexSet{
		Manifest: Manifest{
			VideoID:  videoID,
			Provider: "mock",
			Model:    "mock-model",
			BuiltAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		Indices:  indices,
		Metadata: rows,
	}
}
