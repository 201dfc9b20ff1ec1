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

type PromotionAggregateDeps struct {
	Base BaseDeps

	Packs    repos.PackRepo
	Variants repos.VariantRepo
}

type promotionAggregate struct {
	deps PromotionAggregateDeps
}

func NewPromotionAggregate(deps PromotionAggregateDeps) domainagg.PromotionAggregate {
	deps.Base = deps.Base.withDefaults()
	return &promotionAggregate{deps: deps}
}

func (a *promotionAggregate) Contract() domainagg.Contract {
	return domainagg.PromotionAggregateContract
}

func (a *promotionAggregate) Promote(ctx context.Context, in domainagg.PromoteVariantInput) (*adpack.Variant, error) {
	const op = "AdPack.Promotion.Promote"
	if in.VariantID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing variant_id", nil)
	}
	finalModel := strings.TrimSpace(in.FinalModel)
	if finalModel == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing final model", nil)
	}
	if a.deps.Packs == nil || a.deps.Variants == nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "promotion repos not configured", nil)
	}
	now := in.Now.UTC()
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var out *adpack.Variant
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		notFound := domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("variant not found: %s", in.VariantID), nil)
		v, err := a.deps.Variants.GetByID(dbc, in.VariantID)
		if err != nil {
			return err
		}
		if v == nil {
			return notFound
		}
		pack, err := a.deps.Packs.LockByID(dbc, v.PackID)
		if err != nil {
			return err
		}
		if pack == nil || pack.OwnerID != in.RequesterID {
			return notFound
		}

		siblings, err := a.deps.Variants.ListByPack(dbc, pack.ID)
		if err != nil {
			return err
		}
		for _, s := range siblings {
			if s.ID == v.ID {
				v = s
			}
		}
		if err := adpack.CheckPromotable(v, siblings); err != nil {
			return err
		}

		fast, err := v.GenerationPayload()
		if err != nil {
			return InvariantError(fmt.Sprintf("variant %s has unreadable payload: %v", v.ID, err))
		}
		payload, err := adpack.Promote(fast, finalModel, now).JSON()
		if err != nil {
			return err
		}
		meta, err := adpack.MergeMetadata(nil, map[string]any{
			"promoted_from": v.ID.String(),
			"promoted_at":   now.Format(time.RFC3339Nano),
		})
		if err != nil {
			return err
		}
		sourceID := v.ID
		final := &adpack.Variant{
			ID:              uuid.New(),
			PackID:          pack.ID,
			VariantType:     v.VariantType,
			IsFinal:         true,
			Status:          adpack.VariantStatusGenerating,
			Payload:         payload,
			Metadata:        meta,
			SourceVariantID: &sourceID,
		}
		if _, err := a.deps.Variants.Create(dbc, []*adpack.Variant{final}); err != nil {
			return err
		}
		out = final
		return nil
	})
	return out, err
}
