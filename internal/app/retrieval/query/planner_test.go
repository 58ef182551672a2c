package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"video-qa/internal/app/model"
)

func TestExpand(t *testing.T) {
	p := NewPlanner(0)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{
			name:  "no known terms",
			query: "show me the car",
			want:  []string{"show me the car"},
		},
		{
			name:  "emotion uses three synonyms and skips the identity substitution",
			query: "Happy scene",
			want:  []string{"Happy scene", "joyful scene", "cheerful scene"},
		},
		{
			name:  "lowercase original is not repeated",
			query: "happy scene",
			want:  []string{"happy scene", "joyful scene", "cheerful scene"},
		},
		{
			name:  "location uses two synonyms",
			query: "beach",
			want:  []string{"beach", "seaside"},
		},
		{
			name:  "emotion then location then action, capped at five",
			query: "romantic beach walking",
			want: []string{
				"romantic beach walking",
				"intimate beach walking",
				"loving beach walking",
				"romantic seaside walking",
				"romantic beach strolling",
			},
		},
		{
			name:  "substring matches count",
			query: "saddest moment",
			want:  []string{"saddest moment", "melancholicdest moment", "sorrowfuldest moment"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Expand(tt.query)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len(got), MaxVariants)
		})
	}
}

func TestExpandHappySceneContainsSynonym(t *testing.T) {
	got := NewPlanner(0).Expand("happy scene")

	require.NotEmpty(t, got)
	assert.Equal(t, "happy scene", got[0])
	found := false
	for _, v := range got[1:] {
		for _, syn := range []string{"joyful", "cheerful", "content", "pleased", "delighted"} {
			if strings.Contains(v, syn) {
				found = true
			}
		}
	}
	assert.True(t, found)

	seen := map[string]bool{}
	for _, v := range got {
		assert.False(t, seen[v], "duplicate variant %q", v)
		seen[v] = true
	}
}

func TestExpandRespectsCustomCap(t *testing.T) {
	got := NewPlanner(2).Expand("romantic beach")
	assert.Equal(t, []string{"romantic beach", "intimate beach"}, got)
}

func TestFrame(t *testing.T) {
	assert.Equal(t,
		"Technical cinematography and filmmaking: wide shot. Focus on shot types, camera angles, lighting, and visual composition.",
		Frame(model.RoleTechnical, "wide shot"))
	assert.Equal(t,
		"Scene content and performance: a hug. Focus on characters, actions, emotions, and story elements.",
		Frame(model.RoleContent, "a hug"))
	assert.True(t, strings.HasPrefix(Frame(model.RoleProduction, "car"), "Production and commercial aspects: car. Focus on visible objects"))
	assert.True(t, strings.HasSuffix(Frame(model.RoleProduction, "car"), "specific items and objects present in the scene."))
}

func TestPlan(t *testing.T) {
	variants := NewPlanner(0).Plan("tense chase", model.RoleContent)

	require.Len(t, variants, 3)
	assert.Equal(t, "tense chase", variants[0].Text)
	assert.Equal(t, "anxious chase", variants[1].Text)
	assert.Equal(t, Frame(model.RoleContent, "nervous chase"), variants[2].Framed)
}
