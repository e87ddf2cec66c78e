// Package vision analyzes listing photos with a multimodal model and turns
// each one into a concrete staging instruction.
package vision

import (
	"context"
	"fmt"

	"stagevision/internal/styles"
)

// Analysis is the structured result of examining one photo.
type Analysis struct {
	RoomType       string   `json:"room_type"`
	IsOccupied     bool     `json:"is_occupied"`
	Issues         []string `json:"issues"`
	SuggestedStyle string   `json:"suggested_style"`
	StagingPrompt  string   `json:"staging_prompt"`
}

// Request describes one photo to analyze together with the job context that
// shapes the staging instruction.
type Request struct {
	ImagePath string
	Style     styles.Key
	Occupied  bool
	Comments  string
}

// Analyzer examines a photo and produces its staging analysis.
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (*Analysis, error)
}

// ParseError reports a model response that could not be decoded into an
// Analysis after repair attempts.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("vision: unparseable model response: %s", e.Reason)
}
