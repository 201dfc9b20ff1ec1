package aggregates

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/Monetiqai/Monetiq-sub003/internal/data/repos"
	"github.com/Monetiqai/Monetiq-sub003/internal/domain/adpack"
	domainagg "github.com/Monetiqai/Monetiq-sub003/internal/domain/aggregates"
	"github.com/Monetiqai/Monetiq-sub003/internal/platform/dbctx"
)

type WinnerAggregateDeps struct {
	Base BaseDeps

	Packs    repos.PackRepo
	Variants repos.VariantRepo
}

type winnerAggregate struct {
	deps WinnerAggregateDeps
}

func NewWinnerAggregate(deps WinnerAggregateDeps) domainagg.WinnerAggregate {
	deps.Base = deps.Base.withDefaults()
	return &winnerAggregate{deps: deps}
}

func (a *winnerAggregate) Contract() domainagg.Contract {
	return domainagg.WinnerAggregateContract
}

// MarkWinner checks not found, then forbidden, then eligibility. The pack row lock
// serializes concurrent selections; the partial unique index catches anything else.
func (a *winnerAggregate) MarkWinner(ctx context.Context, in domainagg.MarkWinnerInput) (domainagg.MarkWinnerResult, error) {
	const op = "AdPack.Winner.MarkWinner"
	var out domainagg.MarkWinnerResult
	if in.VariantID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing variant_id", nil)
	}
	if a.deps.Packs == nil || a.deps.Variants == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "winner aggregate repos not configured", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		v, err := a.deps.Variants.GetByID(dbc, in.VariantID)
		if err != nil {
			return err
		}
		if v == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("variant not found: %s", in.VariantID), nil)
		}
		pack, err := a.deps.Packs.LockByID(dbc, v.PackID)
		if err != nil {
			return err
		}
		if pack == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("variant not found: %s", in.VariantID), nil)
		}
		if pack.OwnerID != in.RequesterID {
			return domainagg.NewError(domainagg.CodeForbidden, op, "variant belongs to another owner", nil)
		}

		// Re-read under the pack lock.
		v, err = a.deps.Variants.LockByID(dbc, in.VariantID)
		if err != nil {
			return err
		}
		if v == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("variant not found: %s", in.VariantID), nil)
		}
		if err := adpack.CheckWinnerEligible(v); err != nil {
			return err
		}

		cleared, err := a.deps.Variants.ClearWinners(dbc, pack.ID, v.ID)
		if err != nil {
			return err
		}
		changed := cleared > 0
		if !v.IsWinner {
			if err := a.deps.Variants.UpdateFields(dbc, v.ID, map[string]interface{}{"is_winner": true}); err != nil {
				return err
			}
			changed = true
		}

		variants, err := a.deps.Variants.ListByPack(dbc, pack.ID)
		if err != nil {
			return err
		}
		winners := 0
		for _, sib := range variants {
			if sib.IsWinner {
				winners++
			}
		}
		if winners != 1 {
			return ConflictError(fmt.Sprintf("pack %s has %d winners after selection", pack.ID, winners))
		}

		out = domainagg.MarkWinnerResult{Pack: pack, Variants: variants, Changed: changed}
		return nil
	})
	return out, err
}
