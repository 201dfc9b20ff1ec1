package packgen

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/Monetiqai/Monetiq-sub003/internal/platform/logger"
	"github.com/Monetiqai/Monetiq-sub003/internal/services"
)

// Dispatcher starts one workflow per generation job. The run outlives the request that started it.
type Dispatcher struct {
	log       *logger.Logger
	tc        temporalsdkclient.Client
	taskQueue string
}

func NewDispatcher(log *logger.Logger, tc temporalsdkclient.Client, taskQueue string) *Dispatcher {
	return &Dispatcher{log: log.With("service", "TemporalDispatcher"), tc: tc, taskQueue: taskQueue}
}

func (d *Dispatcher) Dispatch(ctx context.Context, job services.GenerationJob) (string, error) {
	if d == nil || d.tc == nil {
		return "", fmt.Errorf("temporal dispatcher not configured")
	}
	in := Input{PackID: job.PackID.String()}
	for _, id := range job.VariantIDs {
		in.VariantIDs = append(in.VariantIDs, id.String())
	}
	opts := temporalsdkclient.StartWorkflowOptions{
		ID:                    fmt.Sprintf("adpack-%s-%s", job.PackID, uuid.NewString()[:8]),
		TaskQueue:             d.taskQueue,
		WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
	}
	run, err := d.tc.ExecuteWorkflow(context.WithoutCancel(ctx), opts, WorkflowName, in)
	if err != nil {
		return "", fmt.Errorf("start generation workflow: %w", err)
	}
	d.log.Info("generation workflow started", "pack_id", job.PackID, "workflow_id", run.GetID(), "run_id", run.GetRunID())
	return run.GetRunID(), nil
}

var _ services.GenerationDispatcher = (*Dispatcher)(nil)
