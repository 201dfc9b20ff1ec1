package services

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/Monetiqai/Monetiq-sub003/internal/platform/logger"
)

type GenerationJob struct {
	PackID     uuid.UUID   `json:"pack_id"`
	VariantIDs []uuid.UUID `json:"variant_ids"`
}

// GenerationDispatcher starts the pipeline for a job and returns a run id without waiting for it.
type GenerationDispatcher interface {
	Dispatch(ctx context.Context, job GenerationJob) (runID string, err error)
}

type InProcessDispatcher struct {
	log      *logger.Logger
	pipeline VariantPipeline
	wg       sync.WaitGroup
}

func NewInProcessDispatcher(log *logger.Logger, pipeline VariantPipeline) *InProcessDispatcher {
	return &InProcessDispatcher{log: log.With("service", "InProcessDispatcher"), pipeline: pipeline}
}

// Dispatch detaches the run from the request context; in-flight generation is never canceled.
func (d *InProcessDispatcher) Dispatch(ctx context.Context, job GenerationJob) (string, error) {
	runID := uuid.NewString()
	runCtx := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.log.Info("generation run started", "run_id", runID, "pack_id", job.PackID, "variants", len(job.VariantIDs))
		if err := d.pipeline.RunPack(runCtx, job.PackID, job.VariantIDs); err != nil {
			d.log.Error("generation run failed", "run_id", runID, "pack_id", job.PackID, "error", err)
			return
		}
		d.log.Info("generation run finished", "run_id", runID, "pack_id", job.PackID)
	}()
	return runID, nil
}

// Wait blocks until every dispatched run has returned.
func (d *InProcessDispatcher) Wait() {
	d.wg.Wait()
}
