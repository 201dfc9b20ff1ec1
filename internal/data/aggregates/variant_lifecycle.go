package aggregates

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/Monetiqai/Monetiq-sub003/internal/data/repos"
	"github.com/Monetiqai/Monetiq-sub003/internal/domain/adpack"
	domainagg "github.com/Monetiqai/Monetiq-sub003/internal/domain/aggregates"
	"github.com/Monetiqai/Monetiq-sub003/internal/platform/dbctx"
)

const variantTable = "ad_variant"

type VariantLifecycleAggregateDeps struct {
	Base BaseDeps

	Packs    repos.PackRepo
	Variants repos.VariantRepo
}

type variantLifecycleAggregate struct {
	deps VariantLifecycleAggregateDeps
}

func NewVariantLifecycleAggregate(deps VariantLifecycleAggregateDeps) domainagg.VariantLifecycleAggregate {
	deps.Base = deps.Base.withDefaults()
	return &variantLifecycleAggregate{deps: deps}
}

func (a *variantLifecycleAggregate) Contract() domainagg.Contract {
	return domainagg.VariantLifecycleAggregateContract
}

func (a *variantLifecycleAggregate) configured() bool {
	return a.deps.Packs != nil && a.deps.Variants != nil
}

func (a *variantLifecycleAggregate) RecordShot(ctx context.Context, in domainagg.RecordShotInput) (domainagg.RecordShotResult, error) {
	const op = "AdPack.VariantLifecycle.RecordShot"
	var out domainagg.RecordShotResult
	if in.VariantID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing variant_id", nil)
	}
	shotType, ok := adpack.ParseShotType(string(in.Shot.ShotType))
	if !ok {
		return out, domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("unknown shot type %q", in.Shot.ShotType), nil)
	}
	if strings.TrimSpace(in.Shot.ImageURL) == "" {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "shot image_url is required", nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "variant lifecycle repos not configured", nil)
	}
	shot := in.Shot
	shot.ShotType = shotType

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		v, err := a.deps.Variants.LockByID(dbc, in.VariantID)
		if err != nil {
			return err
		}
		if v == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("variant not found: %s", in.VariantID), nil)
		}

		shots, err := v.ShotMap()
		if err != nil {
			return InvariantError(fmt.Sprintf("variant %s has unreadable shots: %v", v.ID, err))
		}
		shots[shotType] = shot
		raw, err := shots.JSON()
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		completed := false
		if v.Status == adpack.VariantStatusGenerating && adpack.IsComplete(shots) {
			ok, err := a.deps.Base.Guard.Swap(dbc, variantTable, v.ID,
				statusStrings(adpack.VariantStatusGenerating),
				map[string]any{
					"shots":      raw,
					"status":     adpack.VariantStatusShotsReady,
					"updated_at": now,
				})
			if err != nil {
				return err
			}
			if err := mustSwap(ok, "variant left generating before shots completed"); err != nil {
				return err
			}
			v.Status = adpack.VariantStatusShotsReady
			completed = true
		} else {
			if err := a.deps.Variants.UpdateFields(dbc, v.ID, map[string]interface{}{
				"shots":      raw,
				"updated_at": now,
			}); err != nil {
				return err
			}
		}
		v.Shots = raw
		v.UpdatedAt = now

		out = domainagg.RecordShotResult{Variant: v, Completed: completed}
		return nil
	})
	return out, err
}

func (a *variantLifecycleAggregate) Validate(ctx context.Context, in domainagg.ValidateVariantInput) (*adpack.Variant, error) {
	const op = "AdPack.VariantLifecycle.Validate"
	if in.VariantID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing variant_id", nil)
	}
	if !a.configured() {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "variant lifecycle repos not configured", nil)
	}
	validatedAt := in.ValidatedAt.UTC()
	if validatedAt.IsZero() {
		validatedAt = time.Now().UTC()
	}

	var out *adpack.Variant
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		v, err := a.lockOwned(dbc, op, in.RequesterID, in.VariantID)
		if err != nil {
			return err
		}
		shots, err := v.ShotMap()
		if err != nil {
			return InvariantError(fmt.Sprintf("variant %s has unreadable shots: %v", v.ID, err))
		}
		if v.Status == adpack.VariantStatusShotsValidated && adpack.IsComplete(shots) {
			out = v
			return nil
		}
		if err := adpack.CheckValidation(v.Status, shots); err != nil {
			return err
		}

		meta, err := adpack.MergeMetadata(v.Metadata, map[string]any{
			"validated_at": validatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return err
		}
		ok, err := a.deps.Base.Guard.Swap(dbc, variantTable, v.ID,
			statusStrings(adpack.VariantStatusShotsReady),
			map[string]any{
				"status":     adpack.VariantStatusShotsValidated,
				"metadata":   meta,
				"updated_at": validatedAt,
			})
		if err != nil {
			return err
		}
		if err := mustSwap(ok, "variant status changed during validation"); err != nil {
			return err
		}
		v.Status = adpack.VariantStatusShotsValidated
		v.Metadata = meta
		v.UpdatedAt = validatedAt
		out = v
		return nil
	})
	return out, err
}

// Transition applies a forward status change. Repeating the current status is a no-op.
func (a *variantLifecycleAggregate) Transition(ctx context.Context, in domainagg.TransitionVariantInput) (*adpack.Variant, error) {
	const op = "AdPack.VariantLifecycle.Transition"
	if in.VariantID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing variant_id", nil)
	}
	if !in.ToStatus.Valid() {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("unknown variant status %q", in.ToStatus), nil)
	}
	if !a.configured() {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "variant lifecycle repos not configured", nil)
	}

	var out *adpack.Variant
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		var (
			v   *adpack.Variant
			err error
		)
		if in.RequesterID != uuid.Nil {
			v, err = a.lockOwned(dbc, op, in.RequesterID, in.VariantID)
		} else {
			v, err = a.deps.Variants.LockByID(dbc, in.VariantID)
			if err == nil && v == nil {
				err = domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("variant not found: %s", in.VariantID), nil)
			}
		}
		if err != nil {
			return err
		}
		if v.Status == in.ToStatus {
			out = v
			return nil
		}
		if err := adpack.CheckTransition(v.Status, in.ToStatus); err != nil {
			return err
		}
		if in.ToStatus == adpack.VariantStatusShotsReady || in.ToStatus == adpack.VariantStatusShotsValidated {
			shots, err := v.ShotMap()
			if err != nil {
				return InvariantError(fmt.Sprintf("variant %s has unreadable shots: %v", v.ID, err))
			}
			if missing := adpack.Missing(shots); len(missing) > 0 {
				return &adpack.TransitionError{From: v.Status, To: in.ToStatus, Reason: adpack.ReasonShotsIncomplete, Missing: missing}
			}
		}

		now := time.Now().UTC()
		updates := map[string]any{
			"status":     in.ToStatus,
			"updated_at": now,
		}
		if reason := strings.TrimSpace(in.FailureReason); reason != "" && in.ToStatus == adpack.VariantStatusFailed {
			updates["failure_reason"] = reason
			v.FailureReason = reason
		}
		if len(in.Metadata) > 0 {
			meta, err := adpack.MergeMetadata(v.Metadata, in.Metadata)
			if err != nil {
				return err
			}
			updates["metadata"] = meta
			v.Metadata = meta
		}
		ok, err := a.deps.Base.Guard.Swap(dbc, variantTable, v.ID, statusStrings(v.Status), updates)
		if err != nil {
			return err
		}
		if err := mustSwap(ok, "variant status changed concurrently"); err != nil {
			return err
		}
		v.Status = in.ToStatus
		v.UpdatedAt = now
		out = v
		return nil
	})
	return out, err
}

func (a *variantLifecycleAggregate) MergeMetadata(ctx context.Context, variantID uuid.UUID, patch map[string]any) error {
	const op = "AdPack.VariantLifecycle.MergeMetadata"
	if variantID == uuid.Nil {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing variant_id", nil)
	}
	if len(patch) == 0 {
		return nil
	}
	if !a.configured() {
		return domainagg.NewError(domainagg.CodeInternal, op, "variant lifecycle repos not configured", nil)
	}
	return executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		v, err := a.deps.Variants.LockByID(dbc, variantID)
		if err != nil {
			return err
		}
		if v == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("variant not found: %s", variantID), nil)
		}
		meta, err := adpack.MergeMetadata(v.Metadata, patch)
		if err != nil {
			return err
		}
		return a.deps.Variants.UpdateFields(dbc, v.ID, map[string]interface{}{"metadata": meta})
	})
}

// lockOwned locks the variant and hides it unless the requester owns its pack.
func (a *variantLifecycleAggregate) lockOwned(dbc dbctx.Context, op string, requesterID, variantID uuid.UUID) (*adpack.Variant, error) {
	notFound := domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("variant not found: %s", variantID), nil)
	v, err := a.deps.Variants.LockByID(dbc, variantID)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, notFound
	}
	pack, err := a.deps.Packs.GetByID(dbc, v.PackID)
	if err != nil {
		return nil, err
	}
	if pack == nil || pack.OwnerID != requesterID {
		return nil, notFound
	}
	return v, nil
}
