package packgen

import (
	"fmt"
	"strings"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// Workflow fans out one activity per variant and rolls the pack up once all of them return.
// A variant activity reports failure in its result; it never fails the workflow.
func Workflow(ctx workflow.Context, in Input) (Result, error) {
	out := Result{PackID: strings.TrimSpace(in.PackID)}
	if out.PackID == "" {
		return out, temporal.NewNonRetryableApplicationError("packgen: missing pack_id", "invalid_input", nil)
	}

	variantCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: variantTimeout(ctx),
		HeartbeatTimeout:    time.Minute,
		// Providers get a single attempt per shot.
		RetryPolicy: &temporal.RetryPolicy{MaximumAttempts: 1},
	})
	futures := make([]workflow.Future, 0, len(in.VariantIDs))
	for _, id := range in.VariantIDs {
		futures = append(futures, workflow.ExecuteActivity(variantCtx, ActivityRunVariant, id))
	}
	for i, f := range futures {
		var vr VariantResult
		if err := f.Get(ctx, &vr); err != nil {
			vr = VariantResult{VariantID: in.VariantIDs[i], Failed: true, Reason: "activity_failed"}
			workflow.GetLogger(ctx).Warn("variant activity failed", "variant_id", in.VariantIDs[i], "error", err)
		}
		out.Variants = append(out.Variants, vr)
	}

	finishCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: time.Second,
			MaximumAttempts: 5,
		},
	})
	if err := workflow.ExecuteActivity(finishCtx, ActivityFinishPack, out.PackID).Get(ctx, &out.PackStatus); err != nil {
		return out, fmt.Errorf("finish pack %s: %w", out.PackID, err)
	}
	return out, nil
}

func variantTimeout(ctx workflow.Context) time.Duration {
	var d time.Duration
	enc := workflow.SideEffect(ctx, func(workflow.Context) interface{} {
		return LoadVariantTimeout()
	})
	if err := enc.Get(&d); err != nil || d <= 0 {
		return 15 * time.Minute
	}
	return d
}
