package analysis

import (
	"encoding/json"
	"strings"

	"github.com/git4ruby/rfe-ready-api-sub000/internal/errs"
)

type evidenceSection struct {
	DocumentName string `json:"document_name"`
	Description  string `json:"description"`
	Guidance     string `json:"guidance"`
	Priority     string `json:"priority"`
}

type noticeSection struct {
	Title           string            `json:"title"`
	SectionType     string            `json:"section_type"`
	OriginalText    string            `json:"original_text"`
	Summary         string            `json:"summary"`
	CfrReference    string            `json:"cfr_reference"`
	ConfidenceScore float64           `json:"confidence_score"`
	EvidenceNeeded  []evidenceSection `json:"evidence_needed"`
}

type analysisResponse struct {
	Sections []noticeSection `json:"sections"`
}

// parseAnalysisResponse decodes the completion output. Models occasionally
// wrap JSON in markdown fences despite instructions, so fences are stripped
// before decoding. Anything else unparseable is a MalformedResponse.
func parseAnalysisResponse(raw string) (analysisResponse, error) {
	cleaned := stripCodeFences(raw)

	var parsed analysisResponse
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return analysisResponse{}, &errs.MalformedResponse{Detail: err.Error()}
	}
	return parsed, nil
}

func stripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
