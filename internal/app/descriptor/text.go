package descriptor

import (
	"fmt"
	"strings"

	"video-qa/internal/app/model"
)

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

// EmotionsText renders emotions in the form used for embedding text
func EmotionsText(e model.Emotions) string {
	if len(e.Legacy) > 0 {
		return strings.Join(e.Legacy, ", ")
	}
	if e.IsZero() {
		return "none"
	}
	s := orDefault(e.Primary, "neutral")
	if len(e.Secondary) > 0 {
		s += ", " + strings.Join(e.Secondary, ", ")
	}
	return fmt.Sprintf("%s (intensity: %s)", s, orDefault(e.Intensity, "medium"))
}

// SettingText renders a setting as "location at time, weather weather, atmosphere atmosphere"
func SettingText(s model.Setting) string {
	out := orDefault(s.Location, "unknown")
	if s.TimeOfDay != "" {
		out += " at " + s.TimeOfDay
	}
	if s.Weather != "" {
		out += ", " + s.Weather + " weather"
	}
	if s.Atmosphere != "" {
		out += ", " + s.Atmosphere + " atmosphere"
	}
	return out
}

func characterDescriptions(chars []model.Character) []string {
	var out []string
	for _, c := range chars {
		info := c.Description
		if c.Activity != "" {
			info += " " + c.Activity
		}
		if c.BodyLanguage != "" {
			info += " (" + c.BodyLanguage + ")"
		}
		info = strings.TrimSpace(info)
		if info != "" {
			out = append(out, info)
		}
	}
	return out
}

// TechnicalText builds the technical embedding text of a frame
func TechnicalText(second int, p model.Payload) string {
	t := p.TechnicalInfo
	var b strings.Builder
	fmt.Fprintf(&b, "Second: %d\n", second)
	fmt.Fprintf(&b, "Shot Type: %s\n", orDefault(t.ShotType, "unknown"))
	fmt.Fprintf(&b, "Camera Angle: %s\n", orDefault(t.CameraAngle, "unknown"))
	fmt.Fprintf(&b, "Lighting: %s\n", orDefault(t.Lighting, "unknown"))
	fmt.Fprintf(&b, "Color Grading: %s\n", orDefault(t.ColorGrading, "unknown"))
	fmt.Fprintf(&b, "Visual Mood: %s\n", orDefault(t.VisualMood, "unknown"))
	fmt.Fprintf(&b, "Scene Type: %s\n", orDefault(t.SceneType, "unknown"))
	fmt.Fprintf(&b, "Summary: %s", strings.TrimSpace(p.ContentInfo.SceneSummary))
	return b.String()
}

// ContentText builds the content embedding text of a frame
func ContentText(second int, p model.Payload) string {
	c := p.ContentInfo
	chars := characterDescriptions(c.Characters)
	charText := "none"
	if len(chars) > 0 {
		charText = strings.Join(chars, "; ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Second: %d\n", second)
	fmt.Fprintf(&b, "Setting: %s\n", SettingText(c.Setting))
	fmt.Fprintf(&b, "Characters: %d - %s\n", len(chars), charText)
	fmt.Fprintf(&b, "Actions: %s\n", c.Actions.Join("none"))
	fmt.Fprintf(&b, "Emotions: %s\n", EmotionsText(c.Emotions))
	fmt.Fprintf(&b, "Interactions: %s\n", orDefault(c.Interactions, "none"))
	fmt.Fprintf(&b, "Mood: %s\n", orDefault(c.Mood, "neutral"))
	fmt.Fprintf(&b, "Atmosphere: %s\n", orDefault(c.Setting.Atmosphere, "neutral"))
	fmt.Fprintf(&b, "Summary: %s", strings.TrimSpace(c.SceneSummary))
	return b.String()
}

// ProductionText builds the production embedding text of a frame
func ProductionText(second int, p model.Payload) string {
	pi := p.ProductionInfo
	var b strings.Builder
	fmt.Fprintf(&b, "Second: %d\n", second)
	fmt.Fprintf(&b, "Production Value: %s\n", orDefault(pi.ProductionValue, "unknown"))
	fmt.Fprintf(&b, "Location Type: %s\n", orDefault(pi.LocationType, "unknown"))
	fmt.Fprintf(&b, "Set Design: %s\n", orDefault(pi.SetDesign, "unknown"))
	fmt.Fprintf(&b, "Props: %s\n", pi.Props.Join("none"))
	fmt.Fprintf(&b, "Costumes: %s\n", orDefault(pi.Costumes, "unknown"))
	fmt.Fprintf(&b, "Commercial Appeal: %s\n", orDefault(pi.CommercialAppeal, "unknown"))
	fmt.Fprintf(&b, "Budget: %s\n", orDefault(pi.BudgetIndication, "unknown"))
	fmt.Fprintf(&b, "Pacing: %s\n", orDefault(pi.Pacing, "unknown"))
	fmt.Fprintf(&b, "Summary: %s", strings.TrimSpace(p.ContentInfo.SceneSummary))
	return b.String()
}

// DeriveTexts fills in role texts that are missing but whose payload section is present.
// Texts supplied by the analysis step always win.
func DeriveTexts(f *model.FrameDescriptor) {
	if f.Texts == nil {
		f.Texts = make(map[model.Role]string, 3)
	}
	p := f.Payload
	if strings.TrimSpace(f.Texts[model.RoleTechnical]) == "" && !p.TechnicalInfo.IsZero() {
		f.Texts[model.RoleTechnical] = TechnicalText(f.Second, p)
	}
	if strings.TrimSpace(f.Texts[model.RoleContent]) == "" && !p.ContentInfo.IsZero() {
		f.Texts[model.RoleContent] = ContentText(f.Second, p)
	}
	if strings.TrimSpace(f.Texts[model.RoleProduction]) == "" && !p.ProductionInfo.IsZero() {
		f.Texts[model.RoleProduction] = ProductionText(f.Second, p)
	}
}
