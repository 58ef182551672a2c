package answer

import (
	"fmt"
	"strings"

	"video-qa/internal/app/model"
)

const (
	technicalSystemPrompt = `You are a master cinematographer analyzing video footage.
Based on the retrieved moments with detailed technical analysis, answer the user's question about cinematography, shot composition, lighting, and visual storytelling.

Be specific, accurate, and honest. If moments truly match, explain which ones and why.
If they don't match well, say so and suggest what to search for instead.
Focus on technical and visual aspects.`

	productionSystemPrompt = `You are an experienced film producer analyzing production elements and commercial aspects.
Based on the retrieved moments with detailed production analysis, answer the user's question about production value, locations, sets, props, costumes, budget indicators, and commercial viability.

**IMPORTANT:** Pay special attention to visible objects, props, equipment, and items in the scene. When the user asks about objects (like "find car" or "show phone"), prioritize mentioning the specific props and objects present.

Be specific, accurate, and honest. If moments truly match, explain which ones and why, highlighting the specific objects/props found.
If they don't match well, say so and suggest what to search for instead.
Focus on objective, business-oriented production elements and specific visible items.`

	contentSystemPrompt = `You are an expert video content analyst specializing in story, performance, emotions, and atmosphere.
Based on the retrieved moments with detailed content analysis, answer the user's question about characters, emotions, actions, settings, and narrative elements.

Be specific, accurate, and honest. If moments truly match, explain which ones and why.
If they don't match well, say so and suggest what to search for instead.
Capture subtle emotional nuances and atmospheric details.`

	userPromptTemplate = `User Query: "%s"

Retrieved Moments from Video (with rich details):
%s

Task:
1. Carefully analyze if these moments TRULY answer the user's query
2. Look for subtle details that match the query (emotions, atmosphere, settings, actions)
3. Provide a clear, natural answer (2-4 sentences) explaining what you found
4. List ONLY the moment numbers that are genuinely relevant (e.g., "1, 3" or "2" or "none")
5. If none truly match, honestly say so and suggest alternative search terms

Important:
- Be specific about WHY moments are relevant (mention emotions, settings, actions)
- Don't force matches - if nothing fits, say so
- Capture subtle nuances (romantic vs just happy, tense vs angry, etc.)

Format:
ANSWER: [Your detailed natural language answer]
RELEVANT: [Comma-separated moment numbers like "1, 3, 5" or "none"]`
)

// SystemPrompt returns the persona instruction for a role
func SystemPrompt(role model.Role) string {
	switch role {
	case model.RoleTechnical:
		return technicalSystemPrompt
	case model.RoleProduction:
		return productionSystemPrompt
	default:
		return contentSystemPrompt
	}
}

// UserPrompt embeds the query and the numbered context into the answer request
func UserPrompt(query, context string) string {
	return fmt.Sprintf(userPromptTemplate, query, context)
}

func valueOr(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

func joinOr(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return strings.Join(items, ", ")
}

func emotionsLine(e model.Emotions) string {
	if len(e.Legacy) > 0 {
		return strings.Join(e.Legacy, ", ")
	}
	if e.IsZero() {
		return "none"
	}
	s := valueOr(e.Primary, "neutral")
	if len(e.Secondary) > 0 {
		s += ", " + strings.Join(e.Secondary, ", ")
	}
	s += fmt.Sprintf(" (%s intensity)", valueOr(e.Intensity, "medium"))
	if e.Context != "" {
		s += " - " + e.Context
	}
	return s
}

func settingLine(s model.Setting) string {
	out := valueOr(s.Location, "unknown")
	if s.Atmosphere != "" {
		out += ", " + s.Atmosphere + " atmosphere"
	}
	return out
}

// MomentBlock renders one numbered context block; idx is 1-based
func MomentBlock(idx int, r model.SearchResult, role model.Role) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Moment %d at %s (second %d):\n", idx, r.Timestamp, r.Second)

	switch role {
	case model.RoleTechnical:
		var t model.TechnicalInfo
		if r.TechnicalInfo != nil {
			t = *r.TechnicalInfo
		}
		fmt.Fprintf(&b, "  Shot: %s\n", valueOr(t.ShotType, "unknown"))
		fmt.Fprintf(&b, "  Angle: %s\n", valueOr(t.CameraAngle, "unknown"))
		fmt.Fprintf(&b, "  Lighting: %s\n", valueOr(t.Lighting, "unknown"))
		fmt.Fprintf(&b, "  Color: %s\n", valueOr(t.ColorGrading, "unknown"))
		fmt.Fprintf(&b, "  Visual Mood: %s\n", valueOr(t.VisualMood, "unknown"))
	case model.RoleProduction:
		var p model.ProductionInfo
		if r.ProductionInfo != nil {
			p = *r.ProductionInfo
		}
		fmt.Fprintf(&b, "  Production Value: %s\n", valueOr(p.ProductionValue, "unknown"))
		fmt.Fprintf(&b, "  Location Type: %s\n", valueOr(p.LocationType, "unknown"))
		fmt.Fprintf(&b, "  Set Design: %s\n", valueOr(p.SetDesign, "unknown"))
		fmt.Fprintf(&b, "  **Props/Objects: %s**\n", joinOr(p.Props, "none"))
		fmt.Fprintf(&b, "  Costumes: %s\n", valueOr(p.Costumes, "unknown"))
		fmt.Fprintf(&b, "  Commercial Appeal: %s\n", valueOr(p.CommercialAppeal, "unknown"))
		fmt.Fprintf(&b, "  Budget: %s\n", valueOr(p.BudgetIndication, "unknown"))
		fmt.Fprintf(&b, "  Pacing: %s\n", valueOr(p.Pacing, "unknown"))
	default:
		var c model.ContentInfo
		if r.ContentInfo != nil {
			c = *r.ContentInfo
		}
		fmt.Fprintf(&b, "  Setting: %s\n", settingLine(c.Setting))
		fmt.Fprintf(&b, "  Characters: %d\n", c.CharacterCount)
		fmt.Fprintf(&b, "  Emotions: %s\n", emotionsLine(c.Emotions))
		fmt.Fprintf(&b, "  Actions: %s\n", joinOr(c.Actions, "none"))
		fmt.Fprintf(&b, "  Mood: %s\n", valueOr(c.Mood, "neutral"))
	}
	fmt.Fprintf(&b, "  Scene: %s", r.SceneSummary)
	return b.String()
}

// BuildContext numbers candidates from 1 in the given order
func BuildContext(candidates []model.SearchResult, role model.Role) string {
	blocks := make([]string, len(candidates))
	for i, r := range candidates {
		blocks[i] = MomentBlock(i+1, r, role)
	}
	return strings.Join(blocks, "\n\n")
}
