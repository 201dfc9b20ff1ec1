package aggregates

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/Monetiqai/Monetiq-sub003/internal/data/repos"
	"github.com/Monetiqai/Monetiq-sub003/internal/domain/adpack"
	domainagg "github.com/Monetiqai/Monetiq-sub003/internal/domain/aggregates"
	"github.com/Monetiqai/Monetiq-sub003/internal/platform/dbctx"
)

const packTable = "ad_pack"

type PackRollupAggregateDeps struct {
	Base BaseDeps

	Packs    repos.PackRepo
	Variants repos.VariantRepo
}

type packRollupAggregate struct {
	deps PackRollupAggregateDeps
}

func NewPackRollupAggregate(deps PackRollupAggregateDeps) domainagg.PackRollupAggregate {
	deps.Base = deps.Base.withDefaults()
	return &packRollupAggregate{deps: deps}
}

func (a *packRollupAggregate) Contract() domainagg.Contract {
	return domainagg.PackRollupAggregateContract
}

func (a *packRollupAggregate) Rollup(ctx context.Context, packID uuid.UUID) (domainagg.PackRollupResult, error) {
	const op = "AdPack.PackRollup.Rollup"
	var out domainagg.PackRollupResult
	if packID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing pack_id", nil)
	}
	if a.deps.Packs == nil || a.deps.Variants == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "pack rollup repos not configured", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		pack, err := a.deps.Packs.GetByID(dbc, packID)
		if err != nil {
			return err
		}
		if pack == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("pack not found: %s", packID), nil)
		}
		variants, err := a.deps.Variants.ListByPack(dbc, packID)
		if err != nil {
			return err
		}

		next, changed := adpack.Rollup(pack.Status, adpack.VariantStatuses(variants))
		if changed {
			now := time.Now().UTC()
			ok, err := a.deps.Base.Guard.Swap(dbc, packTable, pack.ID,
				statusStrings(adpack.PackStatusGenerating),
				map[string]any{"status": next, "updated_at": now})
			if err != nil {
				return err
			}
			if ok {
				pack.Status = next
				pack.UpdatedAt = now
			} else {
				// Another reader rolled the pack up first.
				changed = false
				if pack, err = a.deps.Packs.GetByID(dbc, packID); err != nil {
					return err
				}
			}
		}

		out = domainagg.PackRollupResult{Pack: pack, Variants: variants, Changed: changed}
		return nil
	})
	return out, err
}
