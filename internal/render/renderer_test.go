package render

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"stagevision/internal/styles"
)

// fakeGenerator scripts outcomes per attempt and records what it was asked.
type fakeGenerator struct {
	errs         []error
	image        []byte
	instructions []string
}

func (f *fakeGenerator) Generate(_ context.Context, _ []byte, _ string, instruction, _, _ string) ([]byte, error) {
	f.instructions = append(f.instructions, instruction)
	i := len(f.instructions) - 1
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	return f.image, nil
}

func newTestRenderer(caller generateCaller, retries int) (*GeminiRenderer, *[]time.Duration) {
	var waits []time.Duration
	r := &GeminiRenderer{
		caller:     caller,
		timeout:    time.Second,
		maxRetries: retries,
		log:        zerolog.Nop(),
		sleep:      func(d time.Duration) { waits = append(waits, d) },
	}
	return r, &waits
}

func tempSource(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "room.jpg")
	if err := os.WriteFile(path, []byte("fakejpeg"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func stageRequest(t *testing.T) StageRequest {
	return StageRequest{
		SourcePath:  tempSource(t),
		Instruction: "Place a walnut dining table under the pendant.",
		RoomType:    "dining_room",
		Style:       styles.Modern,
		AspectRatio: "16:9",
		ImageSize:   "2K",
	}
}

func TestStageFirstAttemptUsesTailoredInstruction(t *testing.T) {
	gen := &fakeGenerator{image: []byte("img")}
	r, waits := newTestRenderer(gen, 6)

	out, err := r.Stage(context.Background(), stageRequest(t))
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if string(out) != "img" {
		t.Errorf("output = %q", out)
	}
	if len(gen.instructions) != 1 || !strings.Contains(gen.instructions[0], "walnut dining table") {
		t.Errorf("first attempt should use the tailored instruction: %v", gen.instructions)
	}
	if len(*waits) != 1 || (*waits)[0] != 0 {
		t.Errorf("first attempt should not wait: %v", *waits)
	}
}

func TestStageFallsBackAfterFailure(t *testing.T) {
	gen := &fakeGenerator{
		errs:  []error{&NoImageError{Detail: "prose answer"}},
		image: []byte("img"),
	}
	r, _ := newTestRenderer(gen, 6)

	if _, err := r.Stage(context.Background(), stageRequest(t)); err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if len(gen.instructions) != 2 {
		t.Fatalf("attempts = %d, want 2", len(gen.instructions))
	}
	if !strings.Contains(gen.instructions[1], "dining table set for six") {
		t.Errorf("second attempt should use the generic fallback, got %q", gen.instructions[1])
	}
}

func TestStageLinearBackoff(t *testing.T) {
	gen := &fakeGenerator{errs: []error{
		&HTTPError{StatusCode: 500, Message: "a"},
		&HTTPError{StatusCode: 503, Message: "b"},
		&HTTPError{StatusCode: 500, Message: "c"},
		&HTTPError{StatusCode: 500, Message: "d"},
		&HTTPError{StatusCode: 500, Message: "e"},
		&HTTPError{StatusCode: 500, Message: "f"},
	}}
	r, waits := newTestRenderer(gen, 6)

	_, err := r.Stage(context.Background(), stageRequest(t))
	if err == nil {
		t.Fatal("expected failure after exhausting retries")
	}
	want := []time.Duration{0, time.Second, 2 * time.Second, 3 * time.Second, 4 * time.Second, 5 * time.Second}
	if len(*waits) != len(want) {
		t.Fatalf("waits = %v", *waits)
	}
	for i, w := range want {
		if (*waits)[i] != w {
			t.Errorf("wait[%d] = %v, want %v", i, (*waits)[i], w)
		}
	}
}

func TestStageClientErrorFailsFast(t *testing.T) {
	gen := &fakeGenerator{errs: []error{&HTTPError{StatusCode: 400, Message: "bad request"}}}
	r, _ := newTestRenderer(gen, 6)

	if _, err := r.Stage(context.Background(), stageRequest(t)); err == nil {
		t.Fatal("expected immediate failure on client error")
	}
	if len(gen.instructions) != 1 {
		t.Errorf("client error should not retry, attempts = %d", len(gen.instructions))
	}
}

func TestStageRateLimitRetries(t *testing.T) {
	gen := &fakeGenerator{
		errs:  []error{&HTTPError{StatusCode: 429, Message: "slow down"}},
		image: []byte("img"),
	}
	r, _ := newTestRenderer(gen, 6)

	if _, err := r.Stage(context.Background(), stageRequest(t)); err != nil {
		t.Fatalf("rate limit should be retried: %v", err)
	}
	if len(gen.instructions) != 2 {
		t.Errorf("attempts = %d, want 2", len(gen.instructions))
	}
}

func TestStagePassesInstructionThrough(t *testing.T) {
	gen := &fakeGenerator{image: []byte("img")}
	r, _ := newTestRenderer(gen, 6)

	req := stageRequest(t)
	req.Instruction = ""
	if _, err := r.Stage(context.Background(), req); err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if gen.instructions[0] != "" {
		t.Errorf("first attempt must send the caller's instruction verbatim, got %q", gen.instructions[0])
	}
}
