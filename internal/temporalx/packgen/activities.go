package packgen

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	domainagg "github.com/Monetiqai/Monetiq-sub003/internal/domain/aggregates"
	"github.com/Monetiqai/Monetiq-sub003/internal/platform/logger"
	"github.com/Monetiqai/Monetiq-sub003/internal/services"
	"github.com/Monetiqai/Monetiq-sub003/internal/temporalx"
)

type Activities struct {
	Log      *logger.Logger
	Pipeline services.VariantPipeline
}

// RunVariant renders one variant. A pipeline failure has already been written to the
// variant row, so it is returned as a result rather than an activity error.
func (a *Activities) RunVariant(ctx context.Context, variantID string) (VariantResult, error) {
	res := VariantResult{VariantID: strings.TrimSpace(variantID)}
	id, err := uuid.Parse(res.VariantID)
	if err != nil || id == uuid.Nil {
		return res, temporal.NewNonRetryableApplicationError("packgen: invalid variant_id", "invalid_input", err)
	}
	if a == nil || a.Pipeline == nil {
		return res, fmt.Errorf("packgen: activity not configured")
	}

	stop := startHeartbeat(ctx, 10*time.Second)
	defer stop()

	if err := a.Pipeline.RunVariant(ctx, id); err != nil {
		res.Failed = true
		res.Reason = string(domainagg.CodeOf(err))
		if de, ok := domainagg.As(err); ok && de.Message != "" {
			res.Reason = de.Message
		}
		if a.Log != nil {
			a.Log.Warn("variant activity finished with failure", "variant_id", id, "reason", res.Reason)
		}
	}
	return res, nil
}

func (a *Activities) FinishPack(ctx context.Context, packID string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(packID))
	if err != nil || id == uuid.Nil {
		return "", temporal.NewNonRetryableApplicationError("packgen: invalid pack_id", "invalid_input", err)
	}
	if a == nil || a.Pipeline == nil {
		return "", fmt.Errorf("packgen: activity not configured")
	}
	st, err := a.Pipeline.FinishPack(ctx, id)
	if err != nil {
		return "", err
	}
	return string(st), nil
}

func startHeartbeat(ctx context.Context, every time.Duration) func() {
	done := make(chan struct{})
	go func() {
		t := time.NewTicker(every)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-t.C:
				activity.RecordHeartbeat(ctx)
			}
		}
	}()
	return func() { close(done) }
}

// LoadVariantTimeout reads the activity timeout from the process environment.
func LoadVariantTimeout() time.Duration {
	return temporalx.LoadConfig().VariantTimeout
}
