package stager

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"stagevision/internal/airtable"
	"stagevision/internal/storage"
)

// Pipeline drives a job through ingest, planning, staging, and delivery.
// Every phase persists its progress, so Process can be re-invoked on a
// partially completed job and will only redo the missing work.
type Pipeline struct {
	store    *storage.Store
	planner  *Planner
	runner   *Runner
	delivery *Delivery
	sink     airtable.StatusSink
	log      zerolog.Logger
}

func NewPipeline(store *storage.Store, planner *Planner, runner *Runner, delivery *Delivery, sink airtable.StatusSink, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		store:    store,
		planner:  planner,
		runner:   runner,
		delivery: delivery,
		sink:     sink,
		log:      log.With().Str("component", "pipeline").Logger(),
	}
}

// Process runs a job end to end. photos may be nil when resuming a job whose
// source images were already downloaded.
func (p *Pipeline) Process(ctx context.Context, jobID string, photos []storage.PhotoRef) error {
	order, err := p.store.LoadOrder(jobID)
	if err != nil {
		return err
	}
	if p.store.IsComplete(jobID) {
		p.log.Info().Str("job_id", jobID).Msg("job already delivered, nothing to do")
		return nil
	}

	if err := p.sink.MarkInProgress(ctx, order.AirtableRecordID); err != nil {
		p.log.Warn().Err(err).Str("job_id", jobID).Msg("source record update failed")
	}

	if err := p.ingest(ctx, jobID, photos); err != nil {
		return p.fail(ctx, order, fmt.Sprintf("Photo download failed: %v", err), err)
	}
	return p.RunStages(ctx, jobID)
}

// Stage names a resumable pipeline phase for the retry endpoint.
type Stage string

const (
	StagePlan    Stage = "plan"
	StageRender  Stage = "stage"
	StageDeliver Stage = "deliver"
)

// RunStages resumes a job from planning onward. It is the tail of Process.
func (p *Pipeline) RunStages(ctx context.Context, jobID string) error {
	return p.RunFrom(ctx, jobID, "")
}

// RunFrom re-runs one named stage and stops there, leaving the job at that
// stage's resulting status. An empty stage runs everything outstanding, from
// planning through delivery.
func (p *Pipeline) RunFrom(ctx context.Context, jobID string, only Stage) error {
	order, err := p.store.LoadOrder(jobID)
	if err != nil {
		return err
	}
	runAll := only == ""

	if runAll || only == StagePlan {
		if _, err := p.planner.PlanJob(ctx, jobID); err != nil {
			return p.fail(ctx, order, fmt.Sprintf("Photo analysis failed: %v", err), err)
		}
		if !runAll {
			p.log.Info().Str("job_id", jobID).Msg("planning complete")
			return nil
		}
	}

	if runAll || only == StageRender {
		result, err := p.runner.StageJob(ctx, jobID)
		if err != nil {
			return p.fail(ctx, order, fmt.Sprintf("Staging failed: %v", err), err)
		}
		if result.Staged == 0 {
			msg := "All images failed staging"
			err := fmt.Errorf("stager: %s", msg)
			return p.fail(ctx, order, msg, err)
		}
		if !runAll {
			p.log.Info().Str("job_id", jobID).
				Int("staged", result.Staged).Int("failed", result.Failed).
				Msg("staging complete")
			return nil
		}
	}

	warning := p.stagingWarning(jobID)
	if err := p.delivery.PackageAndSend(ctx, jobID); err != nil {
		return p.fail(ctx, order, fmt.Sprintf("Delivery failed: %v", err), err)
	}

	if err := p.store.SetJobStatus(jobID, storage.JobDelivered, warning); err != nil {
		return err
	}
	if err := p.sink.MarkDone(ctx, order.AirtableRecordID, warning); err != nil {
		p.log.Warn().Err(err).Str("job_id", jobID).Msg("source record update failed")
	}

	evt := p.log.Info().Str("job_id", jobID)
	if warning != "" {
		evt = evt.Str("warning", warning)
	}
	evt.Msg("pipeline complete")
	return nil
}

// stagingWarning reads the plan and reports how many photos failed staging,
// so a deliver-only resume carries the same warning a full run would.
func (p *Pipeline) stagingWarning(jobID string) string {
	plan, err := p.store.LoadPlan(jobID)
	if err != nil {
		return ""
	}
	var failed int
	for _, img := range plan.Images {
		if img.Status == storage.ImageFailed {
			failed++
		}
	}
	if failed == 0 {
		return ""
	}
	return fmt.Sprintf("%d images failed staging", failed)
}

func (p *Pipeline) ingest(ctx context.Context, jobID string, photos []storage.PhotoRef) error {
	if existing, err := p.store.ListRawImagePaths(jobID); err == nil && len(existing) > 0 {
		p.log.Debug().Str("job_id", jobID).Int("photos", len(existing)).Msg("source photos already present")
		return p.store.SetJobStatus(jobID, storage.JobIngested, "")
	}
	if len(photos) == 0 {
		return fmt.Errorf("no photos to download")
	}
	if _, err := p.store.DownloadSourceImages(ctx, jobID, photos); err != nil {
		return err
	}
	return p.store.SetJobStatus(jobID, storage.JobIngested, "")
}

// fail records the failure on the job and its source record, then returns
// the original error.
func (p *Pipeline) fail(ctx context.Context, order *storage.Order, message string, cause error) error {
	p.log.Error().Err(cause).Str("job_id", order.JobID).Msg("pipeline failed")
	if err := p.store.SetJobStatus(order.JobID, storage.JobFailed, message); err != nil {
		p.log.Error().Err(err).Str("job_id", order.JobID).Msg("failed to record job failure")
	}
	if err := p.sink.MarkError(ctx, order.AirtableRecordID, message); err != nil {
		p.log.Warn().Err(err).Str("job_id", order.JobID).Msg("source record update failed")
	}
	return cause
}
