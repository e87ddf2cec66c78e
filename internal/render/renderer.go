package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"stagevision/internal/imaging"
)

// generateCaller is the slice of the image model API the renderer depends
// on. Tests inject a fake to exercise the retry loop.
type generateCaller interface {
	Generate(ctx context.Context, imageData []byte, mimeType, instruction, aspectRatio, imageSize string) ([]byte, error)
}

// geminiCaller drives the Gemini image model and normalizes its failure
// modes into NoImageError and HTTPError.
type geminiCaller struct {
	client *genai.Client
	model  string
}

func (c *geminiCaller) Generate(ctx context.Context, imageData []byte, mimeType, instruction, aspectRatio, imageSize string) ([]byte, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(imageData, mimeType),
			genai.NewPartFromText(instruction),
		}, genai.RoleUser),
	}
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
		ImageConfig: &genai.ImageConfig{
			AspectRatio: aspectRatio,
			ImageSize:   imageSize,
		},
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		var ae genai.APIError
		if errors.As(err, &ae) {
			return nil, &HTTPError{StatusCode: ae.Code, Message: ae.Message}
		}
		return nil, fmt.Errorf("render: generate content: %w", err)
	}
	return extractImage(resp)
}

// extractImage pulls the first inline image out of the response, collecting
// any text parts as the diagnostic when no image came back.
func extractImage(resp *genai.GenerateContentResponse) ([]byte, error) {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return nil, &NoImageError{Detail: fmt.Sprintf("prompt blocked: %s", resp.PromptFeedback.BlockReason)}
	}
	if len(resp.Candidates) == 0 {
		return nil, &NoImageError{Detail: "no candidates"}
	}

	cand := resp.Candidates[0]
	var text strings.Builder
	if cand.Content != nil {
		for _, part := range cand.Content.Parts {
			if part.Thought {
				continue
			}
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data, nil
			}
			text.WriteString(part.Text)
		}
	}

	detail := strings.TrimSpace(text.String())
	if detail == "" {
		detail = fmt.Sprintf("finish reason %s", cand.FinishReason)
	}
	return nil, &NoImageError{Detail: detail}
}

// GeminiRenderer retries staging with linear backoff, switching to a generic
// style instruction once the tailored one has failed.
type GeminiRenderer struct {
	caller     generateCaller
	timeout    time.Duration
	maxRetries int
	log        zerolog.Logger
	sleep      func(time.Duration)
}

// NewGeminiRenderer wraps a shared genai client.
func NewGeminiRenderer(client *genai.Client, model string, timeout time.Duration, maxRetries int, log zerolog.Logger) *GeminiRenderer {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &GeminiRenderer{
		caller:     &geminiCaller{client: client, model: model},
		timeout:    timeout,
		maxRetries: maxRetries,
		log:        log.With().Str("component", "render").Logger(),
		sleep:      time.Sleep,
	}
}

// Stage generates the staged image. Attempt 1 uses the tailored instruction;
// later attempts use the generic fallback, each preceded by a linearly
// growing pause. Client errors abort immediately.
func (r *GeminiRenderer) Stage(ctx context.Context, req StageRequest) ([]byte, error) {
	data, err := os.ReadFile(req.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("render: read source image: %w", err)
	}
	mime := imaging.MIMEType(req.SourcePath)
	name := filepath.Base(req.SourcePath)

	var lastErr error
	for attempt := 0; attempt < r.maxRetries; attempt++ {
		r.sleep(time.Duration(attempt) * time.Second)
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		instruction := req.Instruction
		if attempt > 0 {
			instruction = FallbackInstruction(req.RoomType, req.Style, req.Occupied)
		}

		img, err := r.stageOnce(ctx, data, mime, instruction, req)
		if err == nil {
			r.log.Info().Str("image", name).Int("attempt", attempt+1).Msg("image staged")
			return img, nil
		}
		lastErr = err

		var he *HTTPError
		if errors.As(err, &he) && !he.Retryable() {
			return nil, fmt.Errorf("render: stage %s: %w", name, err)
		}
		r.log.Warn().Err(err).Str("image", name).Int("attempt", attempt+1).Msg("staging attempt failed")
	}
	return nil, fmt.Errorf("render: stage %s after %d attempts: %w", name, r.maxRetries, lastErr)
}

func (r *GeminiRenderer) stageOnce(ctx context.Context, data []byte, mime, instruction string, req StageRequest) ([]byte, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.caller.Generate(callCtx, data, mime, instruction, req.AspectRatio, req.ImageSize)
}
