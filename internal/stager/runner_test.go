package stager

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"stagevision/internal/storage"
)

func planJobForTest(t *testing.T, store *storage.Store, jobID string) {
	t.Helper()
	planner := NewPlanner(store, &fakeAnalyzer{}, zerolog.Nop())
	if _, err := planner.PlanJob(context.Background(), jobID); err != nil {
		t.Fatalf("PlanJob: %v", err)
	}
}

func TestStageJob(t *testing.T) {
	store := newTestStore(t)
	order := newTestJob(t, store, 2)
	planJobForTest(t, store, order.JobID)

	renderer := &fakeRenderer{img: pngBytes(t)}
	runner := NewRunner(store, renderer, "", zerolog.Nop())

	result, err := runner.StageJob(context.Background(), order.JobID)
	if err != nil {
		t.Fatalf("StageJob: %v", err)
	}
	if result.Staged != 2 || result.Failed != 0 {
		t.Fatalf("result = %+v, want 2 staged", result)
	}

	plan, _ := store.LoadPlan(order.JobID)
	for _, img := range plan.Images {
		if img.Status != storage.ImageStaged {
			t.Errorf("image %s status = %q", img.ID, img.Status)
		}
		if img.OutputPath != filepath.Join("staged", img.ID+"_staged_final.jpg") {
			t.Errorf("output path = %q, want job-relative staged path", img.OutputPath)
		}
		if _, err := os.Stat(store.AbsolutePath(order.JobID, img.OutputPath)); err != nil {
			t.Errorf("labeled output missing: %v", err)
		}
		base := strings.Replace(img.OutputPath, "_staged_final.jpg", "_staged_base.jpg", 1)
		if _, err := os.Stat(store.AbsolutePath(order.JobID, base)); err != nil {
			t.Errorf("unlabeled base missing: %v", err)
		}
	}

	loaded, _ := store.LoadOrder(order.JobID)
	if loaded.Status != storage.JobStaged || loaded.ErrorMessage != "" {
		t.Errorf("job = %q %q, want staged with no warning", loaded.Status, loaded.ErrorMessage)
	}
}

func TestStageJobPartialFailure(t *testing.T) {
	store := newTestStore(t)
	order := newTestJob(t, store, 3)
	planJobForTest(t, store, order.JobID)

	renderer := &fakeRenderer{
		img: pngBytes(t),
		failFor: map[string]bool{
			store.AbsolutePath(order.JobID, "raw", "b.png"): true,
		},
	}
	runner := NewRunner(store, renderer, "", zerolog.Nop())

	result, err := runner.StageJob(context.Background(), order.JobID)
	if err != nil {
		t.Fatalf("StageJob: %v", err)
	}
	if result.Staged != 2 || result.Failed != 1 {
		t.Errorf("result = %+v, want 2 staged 1 failed", result)
	}

	plan, _ := store.LoadPlan(order.JobID)
	img := plan.ImageByID("img_2")
	if img == nil || img.Status != storage.ImageFailed || img.ErrorMessage == "" {
		t.Errorf("failed image not recorded: %+v", img)
	}

	loaded, _ := store.LoadOrder(order.JobID)
	if loaded.Status != storage.JobStaged {
		t.Errorf("job status = %q, want staged despite one failure", loaded.Status)
	}
	if loaded.ErrorMessage != "1 images failed staging" {
		t.Errorf("job warning = %q", loaded.ErrorMessage)
	}
}

func TestStageJobAllFail(t *testing.T) {
	store := newTestStore(t)
	order := newTestJob(t, store, 2)
	planJobForTest(t, store, order.JobID)

	runner := NewRunner(store, &fakeRenderer{failAll: true}, "", zerolog.Nop())
	result, err := runner.StageJob(context.Background(), order.JobID)
	if err != nil {
		t.Fatalf("StageJob: %v", err)
	}
	if result.Staged != 0 || result.Failed != 2 {
		t.Errorf("result = %+v, want 0 staged 2 failed", result)
	}

	loaded, _ := store.LoadOrder(order.JobID)
	if loaded.Status != storage.JobFailed {
		t.Errorf("job status = %q, want failed when nothing staged", loaded.Status)
	}
	if loaded.ErrorMessage != "All images failed staging" {
		t.Errorf("job message = %q", loaded.ErrorMessage)
	}
}

func TestStageJobResumeSkipsStagedImages(t *testing.T) {
	store := newTestStore(t)
	order := newTestJob(t, store, 2)
	planJobForTest(t, store, order.JobID)

	first := &fakeRenderer{img: pngBytes(t)}
	if _, err := NewRunner(store, first, "", zerolog.Nop()).StageJob(context.Background(), order.JobID); err != nil {
		t.Fatal(err)
	}

	second := &fakeRenderer{img: pngBytes(t)}
	result, err := NewRunner(store, second, "", zerolog.Nop()).StageJob(context.Background(), order.JobID)
	if err != nil {
		t.Fatal(err)
	}
	if second.calls != 0 {
		t.Errorf("resume re-rendered %d images, want 0", second.calls)
	}
	if result.Staged != 2 {
		t.Errorf("resume result = %+v", result)
	}
}

func TestRestageImage(t *testing.T) {
	store := newTestStore(t)
	order := newTestJob(t, store, 2)
	planJobForTest(t, store, order.JobID)

	failing := &fakeRenderer{failAll: true}
	if _, err := NewRunner(store, failing, "", zerolog.Nop()).StageJob(context.Background(), order.JobID); err != nil {
		t.Fatal(err)
	}

	healthy := &fakeRenderer{img: pngBytes(t)}
	runner := NewRunner(store, healthy, "", zerolog.Nop())
	if err := runner.RestageImage(context.Background(), order.JobID, "img_1"); err != nil {
		t.Fatalf("RestageImage: %v", err)
	}

	plan, _ := store.LoadPlan(order.JobID)
	if img := plan.ImageByID("img_1"); img.Status != storage.ImageStaged {
		t.Errorf("restaged image status = %q", img.Status)
	}
	if img := plan.ImageByID("img_2"); img.Status != storage.ImageFailed {
		t.Errorf("untouched image status = %q", img.Status)
	}

	if err := runner.RestageImage(context.Background(), order.JobID, "nope"); err != storage.ErrNotFound {
		t.Errorf("unknown image error = %v, want ErrNotFound", err)
	}
}

func TestRestageImageRequiresInstruction(t *testing.T) {
	store := newTestStore(t)
	order := newTestJob(t, store, 1)

	// Analysis failed, so the image never got a staging instruction.
	planner := NewPlanner(store, &fakeAnalyzer{failAll: true}, zerolog.Nop())
	if _, err := planner.PlanJob(context.Background(), order.JobID); err != nil {
		t.Fatal(err)
	}

	renderer := &fakeRenderer{img: pngBytes(t)}
	runner := NewRunner(store, renderer, "", zerolog.Nop())
	if err := runner.RestageImage(context.Background(), order.JobID, "img_1"); err == nil {
		t.Fatal("restaging an unanalyzed image must fail")
	}
	if renderer.calls != 0 {
		t.Errorf("renderer called %d times for an image without an instruction", renderer.calls)
	}

	plan, _ := store.LoadPlan(order.JobID)
	if img := plan.ImageByID("img_1"); img.Status == storage.ImageStaged {
		t.Error("image without an instruction must not end staged")
	}
}
