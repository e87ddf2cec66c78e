// Package stager orchestrates the staging pipeline: planning each photo,
// rendering the staged versions, packaging the results, and delivering them.
package stager

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"stagevision/internal/storage"
	"stagevision/internal/vision"
)

// Planner analyzes a job's photos and builds its staging plan.
type Planner struct {
	store    *storage.Store
	analyzer vision.Analyzer
	log      zerolog.Logger
}

func NewPlanner(store *storage.Store, analyzer vision.Analyzer, log zerolog.Logger) *Planner {
	return &Planner{
		store:    store,
		analyzer: analyzer,
		log:      log.With().Str("component", "planner").Logger(),
	}
}

// PlanJob produces staging instructions for every source photo of the job.
// Photos already carrying an instruction from an earlier run are kept as-is,
// so a resumed job only pays for the analyses it is missing. The plan is
// persisted after each photo so a crash loses at most one analysis.
func (p *Planner) PlanJob(ctx context.Context, jobID string) (*storage.Plan, error) {
	order, err := p.store.LoadOrder(jobID)
	if err != nil {
		return nil, err
	}
	if err := p.store.SetJobStatus(jobID, storage.JobPlanning, ""); err != nil {
		return nil, err
	}

	paths, err := p.store.ListRawImagePaths(jobID)
	if err != nil {
		return nil, err
	}

	plan, err := p.loadOrInitPlan(jobID, paths)
	if err != nil {
		return nil, err
	}

	for i := range plan.Images {
		img := &plan.Images[i]
		if img.StagingInstruction != "" {
			// Already analyzed. A failed status here means staging
			// failed, not analysis; requeue it for the runner.
			if img.Status == storage.ImageFailed {
				img.Status = storage.ImageNeedsRegen
				img.ErrorMessage = ""
				if err := p.store.SavePlan(plan); err != nil {
					return nil, err
				}
			}
			continue
		}

		analysis, err := p.analyzer.Analyze(ctx, vision.Request{
			ImagePath: p.store.AbsolutePath(jobID, img.SourcePath),
			Style:     order.Style,
			Occupied:  order.Occupied,
			Comments:  order.Comments,
		})
		if err != nil {
			img.Status = storage.ImageFailed
			img.ErrorMessage = err.Error()
			p.log.Error().Err(err).Str("job_id", jobID).Str("image", img.ID).Msg("photo analysis failed")
		} else {
			img.RoomType = analysis.RoomType
			img.IsOccupied = analysis.IsOccupied
			img.Issues = analysis.Issues
			img.StagingInstruction = analysis.StagingPrompt
			img.Status = storage.ImagePlanned
			img.ErrorMessage = ""
		}

		if err := p.store.SavePlan(plan); err != nil {
			return nil, err
		}
	}

	if err := p.store.SetJobStatus(jobID, storage.JobPlanned, ""); err != nil {
		return nil, err
	}
	return plan, nil
}

// ReplanFailedImages re-runs analysis only for photos whose analysis failed.
func (p *Planner) ReplanFailedImages(ctx context.Context, jobID string) (*storage.Plan, error) {
	return p.PlanJob(ctx, jobID)
}

func (p *Planner) loadOrInitPlan(jobID string, paths []string) (*storage.Plan, error) {
	if p.store.PlanExists(jobID) {
		plan, err := p.store.LoadPlan(jobID)
		if err == nil {
			return plan, nil
		}
		if err != storage.ErrNotFound {
			return nil, err
		}
	}

	now := time.Now().UTC()
	plan := &storage.Plan{JobID: jobID, CreatedAt: now, UpdatedAt: now}
	// Ids follow the canonical sorted order of the source photos, so the
	// same job always numbers its photos the same way.
	for i, path := range paths {
		plan.Images = append(plan.Images, storage.ImagePlan{
			ID:         fmt.Sprintf("img_%d", i+1),
			SourcePath: path,
			Status:     storage.ImagePending,
		})
	}
	if err := p.store.SavePlan(plan); err != nil {
		return nil, err
	}
	return plan, nil
}
