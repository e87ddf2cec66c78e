package stager

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"testing"

	"github.com/rs/zerolog"

	"stagevision/internal/mailer"
	"stagevision/internal/media"
	"stagevision/internal/render"
	"stagevision/internal/storage"
	"stagevision/internal/styles"
	"stagevision/internal/vision"
)

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.NewStore(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

// newTestJob creates a job with n decodable source photos already in raw/.
func newTestJob(t *testing.T, store *storage.Store, n int) *storage.Order {
	t.Helper()
	order, err := store.CreateJob(storage.NewJobInput{
		AirtableRecordID: "recTEST123",
		ClientName:       "Jamie Doe",
		ClientEmail:      "jamie@example.com",
		Address:          "42 Elm Street",
		Style:            styles.Modern,
		Photos:           []storage.PhotoRef{{URL: "https://example.com/a.png"}},
	})
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	for i := 0; i < n; i++ {
		name := string(rune('a'+i)) + ".png"
		if err := os.WriteFile(store.AbsolutePath(order.JobID, "raw", name), pngBytes(t), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return order
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: 180, G: 170, B: 160, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// fakeAnalyzer returns a canned analysis, optionally failing for specific
// source files.
type fakeAnalyzer struct {
	calls   int
	failFor map[string]bool
	failAll bool
}

func (f *fakeAnalyzer) Analyze(_ context.Context, req vision.Request) (*vision.Analysis, error) {
	f.calls++
	if f.failAll || f.failFor[req.ImagePath] {
		return nil, errors.New("analysis blew up")
	}
	return &vision.Analysis{
		RoomType:      "living_room",
		IsOccupied:    false,
		Issues:        []string{"bare walls"},
		StagingPrompt: "Add a sofa and a rug.",
	}, nil
}

// fakeRenderer returns a decodable staged image, optionally failing.
type fakeRenderer struct {
	calls   int
	img     []byte
	failFor map[string]bool
	failAll bool
}

func (f *fakeRenderer) Stage(_ context.Context, req render.StageRequest) ([]byte, error) {
	f.calls++
	if f.failAll || f.failFor[req.SourcePath] {
		return nil, errors.New("staging blew up")
	}
	return f.img, nil
}

// spyMailer records deliveries.
type spyMailer struct {
	sent []mailer.Delivery
	err  error
}

func (s *spyMailer) SendDelivery(_ context.Context, d mailer.Delivery) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, d)
	return nil
}

// spySink records status updates pushed to the source record.
type spySink struct {
	inProgress []string
	done       []string
	doneNotes  []string
	errored    []string
	messages   []string
}

func (s *spySink) MarkInProgress(_ context.Context, recordID string) error {
	s.inProgress = append(s.inProgress, recordID)
	return nil
}

func (s *spySink) MarkDone(_ context.Context, recordID, note string) error {
	s.done = append(s.done, recordID)
	s.doneNotes = append(s.doneNotes, note)
	return nil
}

func (s *spySink) MarkError(_ context.Context, recordID, message string) error {
	s.errored = append(s.errored, recordID)
	s.messages = append(s.messages, message)
	return nil
}

func newTestPipeline(t *testing.T, store *storage.Store, analyzer vision.Analyzer, renderer render.Renderer, m mailer.Mailer, sink *spySink) *Pipeline {
	t.Helper()
	log := zerolog.Nop()
	planner := NewPlanner(store, analyzer, log)
	runner := NewRunner(store, renderer, "", log)
	delivery := NewDelivery(store, m, media.Disabled(), log)
	return NewPipeline(store, planner, runner, delivery, sink, log)
}
