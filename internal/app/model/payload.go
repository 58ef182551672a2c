package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Payload is the structured per-frame analysis produced by the vision step
type Payload struct {
	Second         int            `json:"second"`
	TechnicalInfo  TechnicalInfo  `json:"technical_info"`
	ContentInfo    ContentInfo    `json:"content_info"`
	ProductionInfo ProductionInfo `json:"production_info"`
}

type TechnicalInfo struct {
	ShotType     string `json:"shot_type,omitempty"`
	CameraAngle  string `json:"camera_angle,omitempty"`
	Lighting     string `json:"lighting,omitempty"`
	ColorGrading string `json:"color_grading,omitempty"`
	VisualMood   string `json:"visual_mood,omitempty"`
	SceneType    string `json:"scene_type,omitempty"`
}

// IsZero reports whether no technical field was supplied
func (t TechnicalInfo) IsZero() bool {
	return t == TechnicalInfo{}
}

type Character struct {
	Description  string `json:"description,omitempty"`
	Activity     string `json:"activity,omitempty"`
	BodyLanguage string `json:"body_language,omitempty"`
}

type ContentInfo struct {
	Characters     []Character `json:"characters,omitempty"`
	Emotions       Emotions    `json:"emotions"`
	Setting        Setting     `json:"setting"`
	Actions        Labels      `json:"actions,omitempty"`
	Interactions   string      `json:"interactions,omitempty"`
	Mood           string      `json:"mood,omitempty"`
	CharacterCount int         `json:"character_count"`
	SceneSummary   string      `json:"scene_summary,omitempty"`
}

// IsZero reports whether no content field was supplied
func (c ContentInfo) IsZero() bool {
	return len(c.Characters) == 0 && c.Emotions.IsZero() && c.Setting.IsZero() &&
		len(c.Actions) == 0 && c.Interactions == "" && c.Mood == "" &&
		c.CharacterCount == 0 && c.SceneSummary == ""
}

type ProductionInfo struct {
	ProductionValue  string `json:"production_value,omitempty"`
	LocationType     string `json:"location_type,omitempty"`
	SetDesign        string `json:"set_design,omitempty"`
	Props            Labels `json:"props,omitempty"`
	Costumes         string `json:"costumes,omitempty"`
	CommercialAppeal string `json:"commercial_appeal,omitempty"`
	BudgetIndication string `json:"budget_indication,omitempty"`
	Pacing           string `json:"pacing,omitempty"`
}

// IsZero reports whether no production field was supplied
func (p ProductionInfo) IsZero() bool {
	return p.ProductionValue == "" && p.LocationType == "" && p.SetDesign == "" &&
		len(p.Props) == 0 && p.Costumes == "" && p.CommercialAppeal == "" &&
		p.BudgetIndication == "" && p.Pacing == ""
}

// Emotions accepts either the structured object form or a legacy list of {"type": ...}
type Emotions struct {
	Primary   string   `json:"primary,omitempty"`
	Secondary []string `json:"secondary,omitempty"`
	Intensity string   `json:"intensity,omitempty"`
	Context   string   `json:"context,omitempty"`
	// Legacy holds the list form; when set the object fields are empty
	Legacy []string `json:"-"`
}

func (e Emotions) IsZero() bool {
	return e.Primary == "" && len(e.Secondary) == 0 && e.Intensity == "" && e.Context == "" && len(e.Legacy) == 0
}

func (e *Emotions) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == "" {
		return nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var labels Labels
		if err := json.Unmarshal(data, &labels); err != nil {
			return fmt.Errorf("emotions: %w", err)
		}
		*e = Emotions{Legacy: labels}
		return nil
	}
	type plain Emotions
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("emotions: %w", err)
	}
	*e = Emotions(p)
	return nil
}

func (e Emotions) MarshalJSON() ([]byte, error) {
	if len(e.Legacy) > 0 {
		out := make([]map[string]string, 0, len(e.Legacy))
		for _, l := range e.Legacy {
			out = append(out, map[string]string{"type": l})
		}
		return json.Marshal(out)
	}
	type plain Emotions
	return json.Marshal(plain(e))
}

// Setting accepts either an object or a bare location string
type Setting struct {
	Location   string `json:"location,omitempty"`
	TimeOfDay  string `json:"time_of_day,omitempty"`
	Weather    string `json:"weather,omitempty"`
	Atmosphere string `json:"atmosphere,omitempty"`
}

func (s Setting) IsZero() bool {
	return s == Setting{}
}

func (s *Setting) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == "" {
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var loc string
		if err := json.Unmarshal(data, &loc); err != nil {
			return fmt.Errorf("setting: %w", err)
		}
		*s = Setting{Location: loc}
		return nil
	}
	type plain Setting
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("setting: %w", err)
	}
	*s = Setting(p)
	return nil
}

// Labels is a list of strings that also accepts objects carrying a "type" or "name" key
type Labels []string

func (l *Labels) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == "" {
		*l = nil
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var single string
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		if single != "" {
			*l = Labels{single}
		}
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("labels: %w", err)
	}
	out := make(Labels, 0, len(raw))
	for _, item := range raw {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			if s != "" {
				out = append(out, s)
			}
			continue
		}
		var obj map[string]interface{}
		if err := json.Unmarshal(item, &obj); err != nil {
			continue
		}
		for _, key := range []string{"type", "name"} {
			if v, ok := obj[key]; ok && v != nil {
				if str := fmt.Sprint(v); str != "" {
					out = append(out, str)
				}
				break
			}
		}
	}
	*l = out
	return nil
}

// Join renders the labels or a fallback when empty
func (l Labels) Join(fallback string) string {
	if len(l) == 0 {
		return fallback
	}
	return strings.Join(l, ", ")
}
