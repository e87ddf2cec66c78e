package vision

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"stagevision/internal/imaging"
)

// contentCaller is the slice of the model SDK the analyzer uses. Tests
// substitute a fake to drive retry behavior without network access.
type contentCaller interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type genaiContentCaller struct {
	client *genai.Client
}

func (c *genaiContentCaller) GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return c.client.Models.GenerateContent(ctx, model, contents, cfg)
}

// GeminiAnalyzer implements Analyzer against the Gemini API.
type GeminiAnalyzer struct {
	caller     contentCaller
	model      string
	timeout    time.Duration
	maxRetries int
	log        zerolog.Logger
}

// NewGeminiAnalyzer wraps a shared genai client.
func NewGeminiAnalyzer(client *genai.Client, model string, timeout time.Duration, maxRetries int, log zerolog.Logger) *GeminiAnalyzer {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &GeminiAnalyzer{
		caller:     &genaiContentCaller{client: client},
		model:      model,
		timeout:    timeout,
		maxRetries: maxRetries,
		log:        log.With().Str("component", "vision").Logger(),
	}
}

// Analyze sends the photo and instruction to the model and decodes the JSON
// answer. Responses truncated at the token limit and unparseable responses
// are retried.
func (a *GeminiAnalyzer) Analyze(ctx context.Context, req Request) (*Analysis, error) {
	data, err := os.ReadFile(req.ImagePath)
	if err != nil {
		return nil, fmt.Errorf("vision: read image: %w", err)
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(data, imaging.MIMEType(req.ImagePath)),
			genai.NewPartFromText(buildAnalysisInstruction(req)),
		}, genai.RoleUser),
	}
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.2),
		MaxOutputTokens: 65536,
	}

	var lastErr error
	for attempt := 1; attempt <= a.maxRetries; attempt++ {
		analysis, err := a.analyzeOnce(ctx, contents, cfg)
		if err == nil {
			return analysis, nil
		}
		lastErr = err
		a.log.Warn().
			Err(err).
			Int("attempt", attempt).
			Str("image", filepath.Base(req.ImagePath)).
			Msg("photo analysis attempt failed")
	}
	return nil, fmt.Errorf("vision: analyze %s after %d attempts: %w",
		filepath.Base(req.ImagePath), a.maxRetries, lastErr)
}

func (a *GeminiAnalyzer) analyzeOnce(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*Analysis, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.caller.GenerateContent(callCtx, a.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("vision: generate content: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return nil, &ParseError{Reason: "no candidates in response"}
	}

	cand := resp.Candidates[0]
	if cand.FinishReason == genai.FinishReasonMaxTokens {
		return nil, &ParseError{Reason: "response truncated at token limit"}
	}

	var text strings.Builder
	if cand.Content != nil {
		for _, part := range cand.Content.Parts {
			if part.Thought {
				continue
			}
			text.WriteString(part.Text)
		}
	}
	return parseAnalysisJSON(text.String())
}
