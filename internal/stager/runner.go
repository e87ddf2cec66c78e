package stager

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"stagevision/internal/imaging"
	"stagevision/internal/render"
	"stagevision/internal/storage"
)

// StageResult summarizes one staging pass over a job.
type StageResult struct {
	Staged int
	Failed int
}

// Runner renders staged versions of a job's planned photos.
type Runner struct {
	store    *storage.Store
	renderer render.Renderer
	fontPath string
	log      zerolog.Logger
}

func NewRunner(store *storage.Store, renderer render.Renderer, fontPath string, log zerolog.Logger) *Runner {
	return &Runner{
		store:    store,
		renderer: renderer,
		fontPath: fontPath,
		log:      log.With().Str("component", "runner").Logger(),
	}
}

// StageJob renders every photo awaiting staging. One photo's failure never
// aborts the rest; the plan is persisted after each photo so a resumed run
// picks up exactly where this one stopped. The job ends staged when at least
// one photo rendered (with a warning when some did not) and failed when none
// did.
func (r *Runner) StageJob(ctx context.Context, jobID string) (StageResult, error) {
	order, err := r.store.LoadOrder(jobID)
	if err != nil {
		return StageResult{}, err
	}
	plan, err := r.store.LoadPlan(jobID)
	if err != nil {
		return StageResult{}, err
	}
	if err := r.store.SetJobStatus(jobID, storage.JobStaging, ""); err != nil {
		return StageResult{}, err
	}

	var result StageResult
	for i := range plan.Images {
		img := &plan.Images[i]
		switch img.Status {
		case storage.ImagePlanned, storage.ImageNeedsRegen:
		case storage.ImageStaged:
			result.Staged++
			continue
		default:
			if img.Status == storage.ImageFailed {
				result.Failed++
			}
			continue
		}

		if err := r.stageSingle(ctx, order, img); err != nil {
			img.Status = storage.ImageFailed
			img.ErrorMessage = err.Error()
			result.Failed++
			r.log.Error().Err(err).Str("job_id", jobID).Str("image", img.ID).Msg("image staging failed")
		} else {
			img.Status = storage.ImageStaged
			img.ErrorMessage = ""
			result.Staged++
		}

		if err := r.store.SavePlan(plan); err != nil {
			return result, err
		}
	}

	switch {
	case result.Staged == 0:
		err = r.store.SetJobStatus(jobID, storage.JobFailed, "All images failed staging")
	case result.Failed > 0:
		err = r.store.SetJobStatus(jobID, storage.JobStaged, fmt.Sprintf("%d images failed staging", result.Failed))
	default:
		err = r.store.SetJobStatus(jobID, storage.JobStaged, "")
	}
	if err != nil {
		return result, err
	}
	return result, nil
}

// RestageImage re-renders a single photo, regardless of its current state.
func (r *Runner) RestageImage(ctx context.Context, jobID, imageID string) error {
	order, err := r.store.LoadOrder(jobID)
	if err != nil {
		return err
	}
	plan, err := r.store.LoadPlan(jobID)
	if err != nil {
		return err
	}
	img := plan.ImageByID(imageID)
	if img == nil {
		return storage.ErrNotFound
	}

	if err := r.stageSingle(ctx, order, img); err != nil {
		img.Status = storage.ImageFailed
		img.ErrorMessage = err.Error()
		if saveErr := r.store.SavePlan(plan); saveErr != nil {
			return saveErr
		}
		return err
	}
	img.Status = storage.ImageStaged
	img.ErrorMessage = ""
	return r.store.SavePlan(plan)
}

func (r *Runner) stageSingle(ctx context.Context, order *storage.Order, img *storage.ImagePlan) error {
	if strings.TrimSpace(img.StagingInstruction) == "" {
		return fmt.Errorf("stager: image %s has no staging instruction, analyze it first", img.ID)
	}

	srcPath := r.store.AbsolutePath(order.JobID, img.SourcePath)
	width, height, err := imaging.Dimensions(srcPath)
	if err != nil {
		return err
	}
	aspectRatio, imageSize := render.ChooseImageConfig(width, height)

	img.Status = storage.ImageStaging
	raw, err := r.renderer.Stage(ctx, render.StageRequest{
		SourcePath:  srcPath,
		Instruction: img.StagingInstruction,
		RoomType:    img.RoomType,
		Style:       order.Style,
		Occupied:    img.IsOccupied || order.Occupied,
		AspectRatio: aspectRatio,
		ImageSize:   imageSize,
	})
	if err != nil {
		return err
	}

	staged, err := imaging.DecodeBytes(raw)
	if err != nil {
		return fmt.Errorf("stager: decode staged image for %s: %w", img.ID, err)
	}

	basePath := r.store.AbsolutePath(order.JobID, "staged", img.ID+"_staged_base.jpg")
	if err := imaging.SaveJPEG(basePath, staged); err != nil {
		return err
	}

	labeled := imaging.OverlayLabel(staged, r.fontPath)
	finalPath := r.store.AbsolutePath(order.JobID, "staged", img.ID+"_staged_final.jpg")
	if err := imaging.SaveJPEG(finalPath, labeled); err != nil {
		return err
	}

	img.OutputPath = filepath.Join("staged", img.ID+"_staged_final.jpg")
	r.log.Info().
		Str("job_id", order.JobID).
		Str("image", img.ID).
		Str("aspect_ratio", aspectRatio).
		Str("size", imageSize).
		Str("output", filepath.Base(finalPath)).
		Msg("image staged and labeled")
	return nil
}
