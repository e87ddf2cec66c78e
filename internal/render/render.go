// Package render generates staged versions of listing photos with an image
// model, retrying transient failures and degrading to a generic staging
// instruction when the tailored one keeps failing.
package render

import (
	"context"
	"fmt"

	"stagevision/internal/styles"
)

// StageRequest describes one photo to stage.
type StageRequest struct {
	SourcePath  string
	Instruction string
	RoomType    string
	Style       styles.Key
	Occupied    bool
	AspectRatio string
	ImageSize   string
}

// Renderer produces the staged image bytes for a request.
type Renderer interface {
	Stage(ctx context.Context, req StageRequest) ([]byte, error)
}

// NoImageError reports a model response that completed without image data.
// These are retryable; the model occasionally answers in prose.
type NoImageError struct {
	Detail string
}

func (e *NoImageError) Error() string {
	return fmt.Sprintf("render: model returned no image: %s", e.Detail)
}

// HTTPError carries the API status code so the retry loop can distinguish
// transient server failures from permanent request rejections.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("render: api error %d: %s", e.StatusCode, e.Message)
}

// Retryable reports whether another attempt could succeed. Client errors
// (other than rate limits) will fail identically every time.
func (e *HTTPError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
