package model

import "fmt"

// SearchResult is one retrieved moment
type SearchResult struct {
	Second         int             `json:"second"`
	Score          float32         `json:"score"`
	Timestamp      string          `json:"timestamp"`
	SceneID        string          `json:"scene_id"`
	FramePath      string          `json:"frame_path"`
	EmbeddingText  string          `json:"embedding_text"`
	SceneSummary   string          `json:"scene_summary"`
	TechnicalInfo  *TechnicalInfo  `json:"technical_info,omitempty"`
	ContentInfo    *ContentInfo    `json:"content_info,omitempty"`
	ProductionInfo *ProductionInfo `json:"production_info,omitempty"`
}

// NewSearchResult projects a metadata row onto the payload slice of a role
func NewSearchResult(row MetadataRow, role Role, score float32) SearchResult {
	r := SearchResult{
		Second:        row.Second,
		Score:         score,
		Timestamp:     FormatTimestamp(row.Second),
		SceneID:       row.SceneID,
		FramePath:     row.FramePath,
		EmbeddingText: row.EmbeddingText(role),
		SceneSummary:  row.Payload.ContentInfo.SceneSummary,
	}
	switch role {
	case RoleTechnical:
		info := row.Payload.TechnicalInfo
		r.TechnicalInfo = &info
	case RoleProduction:
		info := row.Payload.ProductionInfo
		r.ProductionInfo = &info
	default:
		info := row.Payload.ContentInfo
		r.ContentInfo = &info
	}
	return r
}

// AnswerBundle is the synthesized answer with the moments that support it
type AnswerBundle struct {
	Answer          string         `json:"answer"`
	RelevantMoments []SearchResult `json:"relevant_moments"`
	FoundCount      int            `json:"found_count"`
}

// FormatTimestamp renders seconds as MM:SS
func FormatTimestamp(second int) string {
	if second < 0 {
		second = 0
	}
	return fmt.Sprintf("%02d:%02d", second/60, second%60)
}
