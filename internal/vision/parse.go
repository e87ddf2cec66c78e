package vision

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	trailingCommaObj = regexp.MustCompile(`,\s*}`)
	trailingCommaArr = regexp.MustCompile(`,\s*]`)
)

// parseAnalysisJSON decodes a model response into an Analysis. Models wrap
// JSON in code fences and emit trailing commas often enough that both are
// repaired before giving up.
func parseAnalysisJSON(raw string) (*Analysis, error) {
	text := stripCodeFences(raw)
	if text == "" {
		return nil, &ParseError{Reason: "empty response"}
	}

	var a Analysis
	if err := json.Unmarshal([]byte(text), &a); err != nil {
		repaired := trailingCommaObj.ReplaceAllString(text, "}")
		repaired = trailingCommaArr.ReplaceAllString(repaired, "]")
		if err := json.Unmarshal([]byte(repaired), &a); err != nil {
			return nil, &ParseError{Reason: err.Error()}
		}
	}

	if a.RoomType == "" || a.StagingPrompt == "" {
		return nil, &ParseError{Reason: "missing room_type or staging_prompt"}
	}
	return &a, nil
}

// stripCodeFences removes a surrounding markdown code fence, with or without
// a json language tag, and trims whitespace.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	return s
}
